// Package advisor wires the preprocessing, forecasting and recommendation
// pipeline into a periodically refreshed advisor loop. The engine is the
// explicit context object holding the series, the fitted forecaster and the
// recommendation engine; there is no process-wide mutable state.
package advisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/selivandex/gold-advisor/internal/adapters/clickhouse"
	"github.com/selivandex/gold-advisor/internal/adapters/config"
	"github.com/selivandex/gold-advisor/internal/adapters/news"
	"github.com/selivandex/gold-advisor/internal/adapters/price"
	"github.com/selivandex/gold-advisor/internal/adapters/redis"
	"github.com/selivandex/gold-advisor/internal/adapters/telegram"
	"github.com/selivandex/gold-advisor/internal/forecast"
	"github.com/selivandex/gold-advisor/internal/indicators"
	"github.com/selivandex/gold-advisor/internal/preprocess"
	"github.com/selivandex/gold-advisor/internal/recommend"
	"github.com/selivandex/gold-advisor/internal/sentiment"
	"github.com/selivandex/gold-advisor/pkg/logger"
	"github.com/selivandex/gold-advisor/pkg/models"
)

// Snapshot is one complete advisor evaluation, served to consumers as-is.
type Snapshot struct {
	Recommendation *models.Recommendation    `json:"recommendation"`
	Forecast       *models.ForecastResult    `json:"forecast"`
	MarketContext  *indicators.MarketContext `json:"market_context,omitempty"`
	RetailQuote    *price.RetailQuote        `json:"retail_quote,omitempty"`
	SeriesLength   int                       `json:"series_length"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// Store persists the series, recommendations and model states across
// restarts. *Repository is the Postgres implementation.
type Store interface {
	UpsertDailySeries(ctx context.Context, rows []models.DailySeriesRow) error
	LoadDailySeries(ctx context.Context) ([]models.DailySeriesRow, error)
	SaveRecommendation(ctx context.Context, rec *models.Recommendation) error
	LatestRecommendation(ctx context.Context) (*models.Recommendation, error)
	SaveModelState(ctx context.Context, windowSize int, state []byte, valRMSE, valMAE float64) error
	LatestModelState(ctx context.Context, windowSize int) ([]byte, error)
}

// Options carries the optional collaborators. Any of them may be nil; the
// engine degrades to an in-memory advisor.
type Options struct {
	Repo      Store
	Forecasts *clickhouse.Repository
	Cache     *redis.Cache
	Notifier  *telegram.Notifier
	Retail    *price.RetailConverter
}

// Engine runs the advise/retrain lifecycle.
type Engine struct {
	cfg         *config.Config
	prices      price.Provider
	newsSource  news.Provider
	aligner     *preprocess.Aligner
	scorer      *sentiment.Scorer
	forecaster  *forecast.Forecaster
	recommender *recommend.Engine
	indicators  *indicators.Calculator
	opts        Options
	log         *zap.Logger

	mu       sync.RWMutex
	series   []models.DailySeriesRow
	snapshot *Snapshot

	newsMu        sync.Mutex
	newsRecords   []models.SentimentRecord
	newsFetchedAt time.Time
}

// NewEngine creates new advisor engine
func NewEngine(
	cfg *config.Config,
	prices price.Provider,
	newsSource news.Provider,
	forecaster *forecast.Forecaster,
	opts Options,
) *Engine {
	return &Engine{
		cfg:         cfg,
		prices:      prices,
		newsSource:  newsSource,
		aligner:     preprocess.NewAligner(),
		scorer:      sentiment.NewGoldScorer(),
		forecaster:  forecaster,
		recommender: recommend.NewEngine(),
		indicators:  indicators.NewCalculator(),
		opts:        opts,
		log:         logger.Named("advisor"),
	}
}

// Bootstrap loads persisted model state if available, restores the last
// known recommendation so consumers are served across restarts, refreshes
// the series and trains a fresh model when none could be loaded.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if e.opts.Repo != nil {
		blob, err := e.opts.Repo.LatestModelState(ctx, e.forecaster.WindowSize())
		if err != nil {
			e.log.Warn("failed to load persisted model state", zap.Error(err))
		} else if blob != nil {
			if err := e.forecaster.ImportState(blob); err != nil {
				e.log.Warn("persisted model state rejected", zap.Error(err))
			} else {
				e.log.Info("model state restored from database")
			}
		}
	}

	e.restoreLastRecommendation(ctx)

	if err := e.RefreshSeries(ctx); err != nil {
		return err
	}

	if !e.forecaster.IsTrained() {
		if err := e.Retrain(ctx); err != nil {
			return fmt.Errorf("initial training failed: %w", err)
		}
	}
	return nil
}

// restoreLastRecommendation seeds the snapshot with the last cached or
// persisted recommendation, so the API serves stale-but-real advice
// instead of an empty response until the first cycle completes.
func (e *Engine) restoreLastRecommendation(ctx context.Context) {
	var rec *models.Recommendation

	if e.opts.Cache != nil {
		cached, err := e.opts.Cache.GetRecommendation(ctx)
		if err != nil {
			e.log.Warn("failed to read cached recommendation", zap.Error(err))
		} else {
			rec = cached
		}
	}
	if rec == nil && e.opts.Repo != nil {
		stored, err := e.opts.Repo.LatestRecommendation(ctx)
		if err != nil {
			e.log.Warn("failed to load persisted recommendation", zap.Error(err))
		} else {
			rec = stored
		}
	}
	if rec == nil {
		return
	}

	e.mu.Lock()
	if e.snapshot == nil {
		e.snapshot = &Snapshot{Recommendation: rec, UpdatedAt: rec.GeneratedAt}
	}
	e.mu.Unlock()

	e.log.Info("last recommendation restored",
		zap.String("action", string(rec.Action)),
		zap.Time("generated_at", rec.GeneratedAt),
	)
}

// RefreshSeries rebuilds the daily series from the price and news sources.
// When the price feed is down the persisted series is served instead, so a
// restart during an outage still has data to advise on.
func (e *Engine) RefreshSeries(ctx context.Context) error {
	priceRows, err := e.prices.History(ctx, e.cfg.Market.HistoryDays)
	if err != nil || len(priceRows) == 0 {
		if restored := e.restoreSeries(ctx, err); restored {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to fetch price history: %w", err)
		}
	}

	newsRecords := e.fetchNews(ctx)

	series, err := e.aligner.Align(priceRows, e.labelRecords(newsRecords))
	if err != nil {
		return fmt.Errorf("series alignment failed: %w", err)
	}

	e.mu.Lock()
	e.series = series
	e.mu.Unlock()

	if e.opts.Repo != nil {
		if err := e.opts.Repo.UpsertDailySeries(ctx, series); err != nil {
			e.log.Warn("failed to persist daily series", zap.Error(err))
		}
	}
	if e.opts.Forecasts != nil {
		if err := e.opts.Forecasts.SaveActualPrices(ctx, priceRows); err != nil {
			e.log.Warn("failed to record actual prices", zap.Error(err))
		}
	}

	e.log.Debug("series refreshed", zap.Int("rows", len(series)))
	return nil
}

// restoreSeries falls back to the persisted daily series. Returns false
// when no store is configured or nothing usable is stored.
func (e *Engine) restoreSeries(ctx context.Context, cause error) bool {
	if e.opts.Repo == nil {
		return false
	}

	stored, err := e.opts.Repo.LoadDailySeries(ctx)
	if err != nil {
		e.log.Warn("failed to load persisted series", zap.Error(err))
		return false
	}
	if len(stored) == 0 {
		return false
	}

	e.mu.Lock()
	e.series = stored
	e.mu.Unlock()

	e.log.Warn("price feed unavailable, serving persisted series",
		zap.Int("rows", len(stored)),
		zap.Error(cause),
	)
	return true
}

// fetchNews returns the latest news records, reusing the previous fetch
// within the configured TTL so series and sentiment refreshes in the same
// cycle hit the source once.
func (e *Engine) fetchNews(ctx context.Context) []models.SentimentRecord {
	if !e.cfg.News.Enabled || e.newsSource == nil {
		return nil
	}

	e.newsMu.Lock()
	defer e.newsMu.Unlock()

	if e.newsRecords != nil && time.Since(e.newsFetchedAt) < e.cfg.News.CacheTTL {
		return e.newsRecords
	}

	records, err := e.newsSource.Fetch(ctx, e.cfg.News.MaxArticles)
	if err != nil {
		e.log.Warn("news fetch failed, series will use neutral sentiment", zap.Error(err))
		return nil
	}

	e.newsRecords = records
	e.newsFetchedAt = time.Now()
	return records
}

// labelRecords fills in missing categorical labels by scoring the text, so
// unlabeled live news still contributes signed sentiment to the series.
func (e *Engine) labelRecords(records []models.SentimentRecord) []models.SentimentRecord {
	for i, rec := range records {
		if rec.Label != models.LabelNone {
			continue
		}
		_, strength := e.scorer.Score(rec.Text)
		switch {
		case strength.Bullish():
			records[i].Label = models.LabelPositive
		case strength.Bearish():
			records[i].Label = models.LabelNegative
		default:
			records[i].Label = models.LabelNeutral
		}
	}
	return records
}

// Refresh runs one full advisor cycle and returns the fresh snapshot.
func (e *Engine) Refresh(ctx context.Context) (*Snapshot, error) {
	if err := e.RefreshSeries(ctx); err != nil {
		return nil, err
	}

	e.mu.RLock()
	series := e.series
	e.mu.RUnlock()

	spot, err := e.prices.Spot(ctx)
	if err != nil || spot <= 0 {
		spot = e.fallbackSpot(ctx, series)
	}

	sentimentScore, latestHeadline := e.currentSentiment(ctx)

	horizon, err := e.forecaster.PredictHorizon(series, e.cfg.Advisor.HorizonDays)
	if err != nil {
		return nil, fmt.Errorf("forecast failed: %w", err)
	}

	rec, err := e.recommender.Recommend(spot, horizon.PointEstimate, sentimentScore, latestHeadline)
	if err != nil {
		return nil, fmt.Errorf("recommendation failed: %w", err)
	}

	snapshot := &Snapshot{
		Recommendation: rec,
		Forecast:       horizon,
		SeriesLength:   len(series),
		UpdatedAt:      time.Now().UTC(),
	}

	if marketCtx, err := e.indicators.Calculate(series); err == nil {
		snapshot.MarketContext = marketCtx
	}
	if e.opts.Retail != nil && e.cfg.Retail.Enabled {
		if quote, err := e.opts.Retail.Quote(ctx, spot); err == nil {
			snapshot.RetailQuote = quote
		} else {
			e.log.Warn("retail quote failed", zap.Error(err))
		}
	}

	e.mu.Lock()
	e.snapshot = snapshot
	e.mu.Unlock()

	e.fanOut(ctx, snapshot, spot)

	e.log.Info("advisor cycle complete",
		zap.String("action", string(rec.Action)),
		zap.Float64("confidence", rec.Confidence),
		zap.Float64("spot", spot),
		zap.Float64("predicted", horizon.PointEstimate),
	)

	return snapshot, nil
}

// fallbackSpot recovers a usable spot price when the live feed is down:
// the recently cached value first, then the last aligned close.
func (e *Engine) fallbackSpot(ctx context.Context, series []models.DailySeriesRow) float64 {
	if e.opts.Cache != nil {
		cached, ok, err := e.opts.Cache.GetSpotPrice(ctx)
		if err != nil {
			e.log.Warn("failed to read cached spot price", zap.Error(err))
		} else if ok && cached > 0 {
			return cached
		}
	}
	return series[len(series)-1].Price
}

// currentSentiment averages per-article polarity over the latest news and
// returns the newest headline for the reasoning excerpt.
func (e *Engine) currentSentiment(ctx context.Context) (float64, string) {
	records := e.fetchNews(ctx)
	if len(records) == 0 {
		return 0, ""
	}

	var sum float64
	for _, rec := range records {
		score, _ := e.scorer.Score(rec.Text)
		sum += score
	}
	return sum / float64(len(records)), records[0].Text
}

// fanOut pushes the snapshot to persistence, cache and alerting. Failures
// are logged, never fatal: the snapshot is already live in memory.
func (e *Engine) fanOut(ctx context.Context, snapshot *Snapshot, spot float64) {
	if e.opts.Repo != nil {
		if err := e.opts.Repo.SaveRecommendation(ctx, snapshot.Recommendation); err != nil {
			e.log.Warn("failed to persist recommendation", zap.Error(err))
		}
	}
	if e.opts.Forecasts != nil {
		if err := e.opts.Forecasts.SaveForecast(ctx, snapshot.UpdatedAt, snapshot.Forecast); err != nil {
			e.log.Warn("failed to persist forecast history", zap.Error(err))
		}
	}
	if e.opts.Cache != nil {
		if err := e.opts.Cache.SetSpotPrice(ctx, spot, e.cfg.Market.CacheTTL); err != nil {
			e.log.Warn("failed to cache spot price", zap.Error(err))
		}
		if err := e.opts.Cache.SetRecommendation(ctx, snapshot.Recommendation, e.cfg.Advisor.RefreshInterval*2); err != nil {
			e.log.Warn("failed to cache recommendation", zap.Error(err))
		}
	}
	if e.opts.Notifier != nil {
		if err := e.opts.Notifier.SendAdvice(snapshot.Recommendation); err != nil {
			e.log.Warn("failed to send telegram advice", zap.Error(err))
		}
	}
}

// Retrain refits the model on the current series and persists the new
// state. The forecaster swaps models atomically, so concurrent Refresh
// calls keep serving the old model until the new one is complete.
func (e *Engine) Retrain(ctx context.Context) error {
	e.mu.RLock()
	series := e.series
	e.mu.RUnlock()

	if len(series) == 0 {
		if err := e.RefreshSeries(ctx); err != nil {
			return err
		}
		e.mu.RLock()
		series = e.series
		e.mu.RUnlock()
	}

	report, err := e.forecaster.Fit(series)
	if err != nil {
		return fmt.Errorf("model fit failed: %w", err)
	}

	e.log.Info("model retrained",
		zap.Int("examples", report.Examples),
		zap.Float64("val_rmse", report.ValRMSE),
		zap.Float64("val_mae", report.ValMAE),
	)

	if e.opts.Repo != nil {
		blob, err := e.forecaster.ExportState()
		if err != nil {
			return fmt.Errorf("failed to export model state: %w", err)
		}
		if err := e.opts.Repo.SaveModelState(ctx, report.WindowSize, blob, report.ValRMSE, report.ValMAE); err != nil {
			e.log.Warn("failed to persist model state", zap.Error(err))
		}
	}
	return nil
}

// Latest returns the most recent snapshot, or nil before the first cycle.
func (e *Engine) Latest() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Summary returns the human-readable form of the last recommendation.
func (e *Engine) Summary() string {
	return e.recommender.LastSummary()
}

// ForecastAccuracy reports per-step error statistics of past forecasts.
// Returns ErrNoData when forecast analytics are not configured.
func (e *Engine) ForecastAccuracy(ctx context.Context) ([]clickhouse.StepAccuracy, error) {
	if e.opts.Forecasts == nil {
		return nil, models.ErrNoData
	}
	return e.opts.Forecasts.ForecastAccuracy(ctx)
}

// Run starts the advisor loop: one cycle immediately, then on the refresh
// interval, with retraining on the configured cron schedule. Blocks until
// ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("advisor engine started",
		zap.Duration("refresh_interval", e.cfg.Advisor.RefreshInterval),
		zap.String("retrain_schedule", e.cfg.Advisor.RetrainSchedule),
		zap.Int("horizon_days", e.cfg.Advisor.HorizonDays),
	)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(e.cfg.Advisor.RetrainSchedule, func() {
		if err := e.Retrain(ctx); err != nil {
			e.log.Error("scheduled retrain failed", zap.Error(err))
			e.alertError(fmt.Sprintf("Scheduled retrain failed: %v", err))
		}
	}); err != nil {
		return fmt.Errorf("invalid retrain schedule %q: %w", e.cfg.Advisor.RetrainSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if _, err := e.Refresh(ctx); err != nil {
		e.log.Error("advisor cycle failed", zap.Error(err))
		e.alertError(fmt.Sprintf("Advisor cycle failed: %v", err))
	}

	ticker := time.NewTicker(e.cfg.Advisor.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.Refresh(ctx); err != nil {
				e.log.Error("advisor cycle failed", zap.Error(err))
				e.alertError(fmt.Sprintf("Advisor cycle failed: %v", err))
			}
		}
	}
}

func (e *Engine) alertError(message string) {
	if e.opts.Notifier == nil {
		return
	}
	if err := e.opts.Notifier.AlertError(message); err != nil {
		e.log.Warn("failed to send error alert", zap.Error(err))
	}
}
