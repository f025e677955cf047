package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/gold-advisor/internal/adapters/config"
	"github.com/selivandex/gold-advisor/pkg/logger"
	"github.com/selivandex/gold-advisor/pkg/models"
)

// Notifier sends advisor output to a Telegram chat.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	cfg    *config.TelegramConfig
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{api: bot, chatID: cfg.ChatID, cfg: cfg}, nil
}

// SendAdvice sends a recommendation alert. With MinActionAlert set, HOLD
// recommendations are skipped to keep the chat quiet.
func (n *Notifier) SendAdvice(rec *models.Recommendation) error {
	if !n.cfg.AlertOnAdvice {
		return nil
	}
	if n.cfg.MinActionAlert && rec.Action == models.ActionHold {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* gold (confidence %.0f%%, %s)\n\n",
		actionEmoji(rec.Action), rec.Action, rec.Confidence*100, rec.ConfidenceLevel())
	fmt.Fprintf(&b, "Current: $%.2f\nPredicted: $%.2f (%+.2f%%)\n\n",
		rec.CurrentPrice, rec.PredictedPrice, rec.PriceChangePct)
	for _, reason := range rec.Reasoning {
		fmt.Fprintf(&b, "• %s\n", reason)
	}

	msg := tgbotapi.NewMessage(n.chatID, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send advice alert: %w", err)
	}
	return nil
}

// AlertError reports a pipeline failure to the chat.
func (n *Notifier) AlertError(message string) error {
	if !n.cfg.AlertOnErrors {
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, "⚠️ "+message)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send error alert: %w", err)
	}
	return nil
}

func actionEmoji(action models.Action) string {
	switch action {
	case models.ActionBuy:
		return "🟢"
	case models.ActionSell:
		return "🔴"
	default:
		return "🟡"
	}
}
