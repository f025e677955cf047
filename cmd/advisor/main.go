package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/selivandex/gold-advisor/internal/adapters/clickhouse"
	"github.com/selivandex/gold-advisor/internal/adapters/config"
	"github.com/selivandex/gold-advisor/internal/adapters/database"
	"github.com/selivandex/gold-advisor/internal/adapters/news"
	"github.com/selivandex/gold-advisor/internal/adapters/price"
	redisadapter "github.com/selivandex/gold-advisor/internal/adapters/redis"
	"github.com/selivandex/gold-advisor/internal/adapters/telegram"
	"github.com/selivandex/gold-advisor/internal/advisor"
	"github.com/selivandex/gold-advisor/internal/forecast"
	"github.com/selivandex/gold-advisor/internal/server"
	"github.com/selivandex/gold-advisor/pkg/logger"
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Run application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Gold Advisor starting...",
		zap.Int("window_size", cfg.Model.WindowSize),
		zap.Int("horizon_days", cfg.Advisor.HorizonDays),
	)

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Market data providers
	goldPrices := price.NewMetalPriceAPIProvider(
		cfg.Market.MetalPriceAPIKey,
		cfg.Market.CacheTTL,
		cfg.Market.FallbackPriceUSD,
	)

	var newsSource news.Provider
	if cfg.News.Enabled {
		newsSource = news.NewStaticProvider()
	}

	forecaster := forecast.New(forecast.Config{
		WindowSize:      cfg.Model.WindowSize,
		ValidationSplit: cfg.Model.ValidationSplit,
		NumTrees:        cfg.Model.NumTrees,
		MaxDepth:        cfg.Model.MaxDepth,
		Seed:            cfg.Model.Seed,
	})

	// A state file written by cmd/train seeds the model; persisted database
	// state, when present, still takes precedence during bootstrap.
	if cfg.Model.StatePath != "" {
		if blob, err := os.ReadFile(cfg.Model.StatePath); err == nil {
			if err := forecaster.ImportState(blob); err != nil {
				logger.Warn("model state file rejected", zap.Error(err))
			} else {
				logger.Info("model state loaded from file", zap.String("path", cfg.Model.StatePath))
			}
		}
	}

	opts := advisor.Options{
		Repo: advisor.NewRepository(db.DB()),
	}

	if cfg.Retail.Enabled {
		fx := price.NewExchangeRateProvider(cfg.Market.CacheTTL, cfg.Market.FallbackUSDINR)
		opts.Retail = price.NewRetailConverter(fx, cfg.Retail.PremiumPercent, cfg.Retail.GSTPercent)
	}

	if cfg.ClickHouse.Enabled {
		forecasts, err := clickhouse.New(&cfg.ClickHouse)
		if err != nil {
			logger.Error("failed to connect to clickhouse, forecast analytics disabled", zap.Error(err))
		} else {
			opts.Forecasts = forecasts
			defer forecasts.Close()
		}
	}

	var cache *redisadapter.Cache
	if cfg.Redis.Enabled {
		cache, err = redisadapter.New(&cfg.Redis)
		if err != nil {
			logger.Error("failed to connect to redis, caching disabled", zap.Error(err))
		} else {
			opts.Cache = cache
			defer cache.Close()
		}
	}

	if cfg.Telegram.BotToken != "" {
		notifier, err := telegram.NewNotifier(&cfg.Telegram)
		if err != nil {
			logger.Error("failed to create telegram notifier", zap.Error(err))
		} else {
			opts.Notifier = notifier
			logger.Info("telegram notifications enabled")
		}
	}

	engine := advisor.NewEngine(cfg, goldPrices, newsSource, forecaster, opts)

	if err := engine.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap advisor: %w", err)
	}

	go func() {
		if err := engine.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("advisor loop stopped", zap.Error(err))
		}
	}()

	srv := server.NewServer(cfg.Server.Port, engine, db, cache)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("api server failed: %w", err)
	}

	logger.Info("shutting down gracefully...")
	return nil
}

func initDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database initialized",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
	)

	return db, nil
}
