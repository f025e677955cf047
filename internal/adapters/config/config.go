package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Market     MarketConfig     `envconfig:"MARKET"`
	News       NewsConfig       `envconfig:"NEWS"`
	Model      ModelConfig      `envconfig:"MODEL"`
	Advisor    AdvisorConfig    `envconfig:"ADVISOR"`
	Retail     RetailConfig     `envconfig:"RETAIL"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Server     ServerConfig     `envconfig:"SERVER"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// MarketConfig represents gold price source parameters
type MarketConfig struct {
	MetalPriceAPIKey string        `envconfig:"MARKET_METALPRICE_API_KEY" required:"false"`
	HistoryDays      int           `envconfig:"MARKET_HISTORY_DAYS" default:"365"`
	CacheTTL         time.Duration `envconfig:"MARKET_CACHE_TTL" default:"5m"`
	FallbackPriceUSD float64       `envconfig:"MARKET_FALLBACK_PRICE_USD" default:"1800.0"`
	FallbackUSDINR   float64       `envconfig:"MARKET_FALLBACK_USD_INR" default:"83.0"`
}

// NewsConfig represents news source parameters
type NewsConfig struct {
	Enabled     bool          `envconfig:"NEWS_ENABLED" default:"true"`
	MaxArticles int           `envconfig:"NEWS_MAX_ARTICLES" default:"10"`
	CacheTTL    time.Duration `envconfig:"NEWS_CACHE_TTL" default:"30m"`
}

// ModelConfig represents forecaster parameters
type ModelConfig struct {
	WindowSize      int     `envconfig:"MODEL_WINDOW_SIZE" default:"30"`
	ValidationSplit float64 `envconfig:"MODEL_VALIDATION_SPLIT" default:"0.2"`
	NumTrees        int     `envconfig:"MODEL_NUM_TREES" default:"100"`
	MaxDepth        int     `envconfig:"MODEL_MAX_DEPTH" default:"10"`
	Seed            int64   `envconfig:"MODEL_SEED" default:"42"`
	StatePath       string  `envconfig:"MODEL_STATE_PATH" default:"models/forecaster.bin"`
}

// AdvisorConfig represents advisor loop parameters
type AdvisorConfig struct {
	RefreshInterval time.Duration `envconfig:"ADVISOR_REFRESH_INTERVAL" default:"15m"`
	HorizonDays     int           `envconfig:"ADVISOR_HORIZON_DAYS" default:"7"`
	RetrainSchedule string        `envconfig:"ADVISOR_RETRAIN_SCHEDULE" default:"0 1 * * *"`
}

// RetailConfig represents Indian retail pricing parameters
type RetailConfig struct {
	Enabled        bool    `envconfig:"RETAIL_ENABLED" default:"true"`
	PremiumPercent float64 `envconfig:"RETAIL_PREMIUM_PERCENT" default:"10.0"`
	GSTPercent     float64 `envconfig:"RETAIL_GST_PERCENT" default:"3.0"`
}

// TelegramConfig represents Telegram alert configuration
type TelegramConfig struct {
	BotToken       string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID         int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
	AlertOnAdvice  bool   `envconfig:"TELEGRAM_ALERT_ON_ADVICE" default:"true"`
	AlertOnErrors  bool   `envconfig:"TELEGRAM_ALERT_ON_ERRORS" default:"true"`
	MinActionAlert bool   `envconfig:"TELEGRAM_MIN_ACTION_ALERT" default:"false"` // alert only on BUY/SELL
}

// DatabaseConfig represents Postgres connection parameters
type DatabaseConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	Name           string `envconfig:"DB_NAME" default:"goldadvisor"`
	User           string `envconfig:"DB_USER" required:"true"`
	Password       string `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"migrations"`
}

// GetDSN builds Postgres connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// ClickHouseConfig represents ClickHouse connection parameters
type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	Database string `envconfig:"CLICKHOUSE_DATABASE" default:"goldadvisor"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD" required:"false"`
}

// GetDSN builds ClickHouse connection string
func (c *ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig represents Redis cache parameters
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" required:"false"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// ServerConfig represents HTTP API parameters
type ServerConfig struct {
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" required:"false"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	if c.Model.WindowSize < 2 {
		return fmt.Errorf("MODEL_WINDOW_SIZE must be at least 2, got %d", c.Model.WindowSize)
	}
	if c.Model.ValidationSplit <= 0 || c.Model.ValidationSplit >= 1 {
		return fmt.Errorf("MODEL_VALIDATION_SPLIT must be in (0,1), got %.2f", c.Model.ValidationSplit)
	}
	if c.Advisor.HorizonDays < 1 {
		return fmt.Errorf("ADVISOR_HORIZON_DAYS must be positive, got %d", c.Advisor.HorizonDays)
	}
	return nil
}
