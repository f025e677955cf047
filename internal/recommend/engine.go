// Package recommend converts a price forecast and a sentiment score into a
// discrete BUY/HOLD/SELL action with a confidence value and ordered
// reasoning. Each call is a pure function of its inputs; the engine only
// remembers the last result for the summary helper.
package recommend

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/selivandex/gold-advisor/internal/sentiment"
	"github.com/selivandex/gold-advisor/pkg/models"
)

// headlineExcerptLimit caps the news excerpt carried into reasoning.
const headlineExcerptLimit = 100

// Engine generates recommendations.
type Engine struct {
	mu   sync.Mutex
	last *models.Recommendation
}

// NewEngine creates new recommendation engine
func NewEngine() *Engine {
	return &Engine{}
}

// Recommend evaluates one (current, predicted, sentiment, headline) tuple.
// Invalid numeric inputs fail with ErrInvalidInput instead of propagating
// NaN into the result; a failed call never corrupts engine state, so a
// batch of independent requests survives one malformed entry.
func (e *Engine) Recommend(currentPrice, predictedPrice, sentimentScore float64, headline string) (*models.Recommendation, error) {
	if err := validateInputs(currentPrice, predictedPrice, sentimentScore); err != nil {
		return nil, err
	}

	pct := (predictedPrice - currentPrice) / currentPrice * 100
	trend := classifyTrend(pct)
	strength := sentiment.Classify(sentimentScore)

	rec := &models.Recommendation{
		Action:            decide(trend, strength),
		Confidence:        confidence(trend, strength, pct, sentimentScore),
		CurrentPrice:      currentPrice,
		PredictedPrice:    predictedPrice,
		PriceChangePct:    pct,
		SentimentScore:    sentimentScore,
		PriceTrend:        trend,
		SentimentStrength: strength,
		GeneratedAt:       time.Now().UTC(),
	}
	rec.Reasoning = reasoning(rec, headline)

	e.mu.Lock()
	e.last = rec
	e.mu.Unlock()

	return rec, nil
}

// Last returns the most recent recommendation, or nil before the first call.
func (e *Engine) Last() *models.Recommendation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// LastSummary formats the most recent recommendation for display.
func (e *Engine) LastSummary() string {
	rec := e.Last()
	if rec == nil {
		return "No recommendation available yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recommendation: %s (confidence %.2f, %s)\n",
		rec.Action, rec.Confidence, rec.ConfidenceLevel())
	fmt.Fprintf(&b, "Current: $%.2f  Predicted: $%.2f  Change: %+.2f%%\n",
		rec.CurrentPrice, rec.PredictedPrice, rec.PriceChangePct)
	for i, reason := range rec.Reasoning {
		fmt.Fprintf(&b, "%d. %s\n", i+1, reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

func validateInputs(currentPrice, predictedPrice, sentimentScore float64) error {
	for name, v := range map[string]float64{
		"current_price":   currentPrice,
		"predicted_price": predictedPrice,
		"sentiment_score": sentimentScore,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", models.ErrInvalidInput, name)
		}
	}
	if currentPrice <= 0 {
		return fmt.Errorf("%w: current_price must be positive, got %.4f", models.ErrInvalidInput, currentPrice)
	}
	return nil
}

// classifyTrend buckets the predicted percent change. Thresholds are load
// bearing: the decision table and tests depend on them exactly.
func classifyTrend(pct float64) models.PriceTrend {
	switch {
	case pct > 1.0:
		return models.TrendStrongUp
	case pct > 0.2:
		return models.TrendUp
	case pct < -1.0:
		return models.TrendStrongDown
	case pct < -0.2:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

// decide resolves the (trend, sentiment) cross product. Aligned decisive
// signals act; conflicting or indecisive signals hold.
func decide(trend models.PriceTrend, strength models.SentimentStrength) models.Action {
	switch {
	case trend.Bullish() && strength.Bullish():
		return models.ActionBuy
	case trend.Bearish() && strength.Bearish():
		return models.ActionSell
	default:
		return models.ActionHold
	}
}

// confidence starts from the alignment bucket, then adds bounded bonuses
// for move magnitude and sentiment strength, capped at 1.
//
// Bucket table over the full cross product:
//   0.8  decisive trend aligned with decisive sentiment
//   0.6  decisive trend with neutral sentiment, or stable trend with
//        very_positive/very_negative sentiment
//   0.4  stable trend with neutral sentiment
//   0.2  everything else (conflicts, and stable trend with merely
//        positive/negative sentiment)
func confidence(trend models.PriceTrend, strength models.SentimentStrength, pct, sentimentScore float64) float64 {
	var alignment float64
	switch {
	case (trend.Bullish() && strength.Bullish()) || (trend.Bearish() && strength.Bearish()):
		alignment = 0.8
	case (trend.Bullish() || trend.Bearish()) && strength == models.SentimentNeutral:
		alignment = 0.6
	case trend == models.TrendStable &&
		(strength == models.SentimentVeryPositive || strength == models.SentimentVeryNegative):
		alignment = 0.6
	case trend == models.TrendStable && strength == models.SentimentNeutral:
		alignment = 0.4
	default:
		alignment = 0.2
	}

	magnitudeBonus := math.Min(math.Abs(pct)/2, 1) * 0.2
	sentimentBonus := math.Min(math.Abs(sentimentScore)*2, 1) * 0.2

	return math.Min(alignment+magnitudeBonus+sentimentBonus, 1)
}

// reasoning builds the ordered explanation: trend, sentiment, alignment,
// optional news excerpt, confidence. Order is fixed so consumers and tests
// can rely on positions.
func reasoning(rec *models.Recommendation, headline string) []string {
	reasons := make([]string, 0, 5)

	switch {
	case rec.PriceTrend.Bullish():
		reasons = append(reasons, fmt.Sprintf("Price is predicted to increase by %.2f%%", rec.PriceChangePct))
	case rec.PriceTrend.Bearish():
		reasons = append(reasons, fmt.Sprintf("Price is predicted to decrease by %.2f%%", math.Abs(rec.PriceChangePct)))
	default:
		reasons = append(reasons, fmt.Sprintf("Price trend is stable (%.2f%%)", rec.PriceChangePct))
	}

	reasons = append(reasons, fmt.Sprintf("Market sentiment is %s (%.2f)", rec.SentimentStrength, rec.SentimentScore))

	switch rec.Action {
	case models.ActionBuy:
		reasons = append(reasons, "Positive sentiment aligns with upward price movement")
	case models.ActionSell:
		reasons = append(reasons, "Negative sentiment aligns with downward price movement")
	default:
		if (rec.PriceTrend.Bullish() && rec.SentimentStrength.Bearish()) ||
			(rec.PriceTrend.Bearish() && rec.SentimentStrength.Bullish()) {
			reasons = append(reasons, "Conflicting signals - wait for clearer direction")
		} else {
			reasons = append(reasons, "Mixed signals suggest maintaining current position")
		}
	}

	if excerpt := strings.TrimSpace(headline); excerpt != "" {
		// truncate on a rune boundary so multi-byte headlines stay valid
		if runes := []rune(excerpt); len(runes) > headlineExcerptLimit {
			excerpt = string(runes[:headlineExcerptLimit])
		}
		reasons = append(reasons, fmt.Sprintf("Latest news: %s", excerpt))
	}

	reasons = append(reasons, fmt.Sprintf("Confidence level: %s (%.2f)", rec.ConfidenceLevel(), rec.Confidence))

	return reasons
}
