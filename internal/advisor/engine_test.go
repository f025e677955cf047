package advisor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/selivandex/gold-advisor/internal/adapters/config"
	newsadapter "github.com/selivandex/gold-advisor/internal/adapters/news"
	"github.com/selivandex/gold-advisor/internal/forecast"
	"github.com/selivandex/gold-advisor/pkg/logger"
	"github.com/selivandex/gold-advisor/pkg/models"
)

func init() {
	_ = logger.Init("error", "")
}

type fakePriceProvider struct {
	days int
}

func (f *fakePriceProvider) GetName() string { return "fake" }

func (f *fakePriceProvider) Spot(ctx context.Context) (float64, error) {
	return 1860, nil
}

func (f *fakePriceProvider) History(ctx context.Context, days int) ([]models.PricePoint, error) {
	n := f.days
	if n == 0 {
		n = days
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, n)
	price := 1800.0
	for i := 0; i < n; i++ {
		points[i] = models.PricePoint{Date: base.AddDate(0, 0, i), Price: price}
		price += 1 + math.Sin(float64(i))
	}
	return points, nil
}

type emptyPriceProvider struct{}

func (e *emptyPriceProvider) GetName() string { return "empty" }
func (e *emptyPriceProvider) Spot(ctx context.Context) (float64, error) {
	return 0, nil
}
func (e *emptyPriceProvider) History(ctx context.Context, days int) ([]models.PricePoint, error) {
	return nil, nil
}

type countingNewsProvider struct {
	inner newsadapter.Provider
	calls int
}

func (c *countingNewsProvider) GetName() string { return "counting" }

func (c *countingNewsProvider) Fetch(ctx context.Context, limit int) ([]models.SentimentRecord, error) {
	c.calls++
	return c.inner.Fetch(ctx, limit)
}

// memoryStore is an in-memory Store for exercising the persistence paths.
type memoryStore struct {
	series []models.DailySeriesRow
	recs   []*models.Recommendation
	states [][]byte
	window int
}

func (m *memoryStore) UpsertDailySeries(ctx context.Context, rows []models.DailySeriesRow) error {
	m.series = rows
	return nil
}

func (m *memoryStore) LoadDailySeries(ctx context.Context) ([]models.DailySeriesRow, error) {
	return m.series, nil
}

func (m *memoryStore) SaveRecommendation(ctx context.Context, rec *models.Recommendation) error {
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memoryStore) LatestRecommendation(ctx context.Context) (*models.Recommendation, error) {
	if len(m.recs) == 0 {
		return nil, nil
	}
	return m.recs[len(m.recs)-1], nil
}

func (m *memoryStore) SaveModelState(ctx context.Context, windowSize int, state []byte, valRMSE, valMAE float64) error {
	m.states = append(m.states, state)
	m.window = windowSize
	return nil
}

func (m *memoryStore) LatestModelState(ctx context.Context, windowSize int) ([]byte, error) {
	if len(m.states) == 0 || windowSize != m.window {
		return nil, nil
	}
	return m.states[len(m.states)-1], nil
}

func testEngineConfig() *config.Config {
	return &config.Config{
		Market: config.MarketConfig{
			HistoryDays:      60,
			CacheTTL:         time.Minute,
			FallbackPriceUSD: 1800,
		},
		News: config.NewsConfig{
			Enabled:     true,
			MaxArticles: 10,
		},
		Advisor: config.AdvisorConfig{
			RefreshInterval: time.Minute,
			HorizonDays:     3,
			RetrainSchedule: "0 1 * * *",
		},
	}
}

func testForecaster() *forecast.Forecaster {
	return forecast.New(forecast.Config{
		WindowSize:      5,
		ValidationSplit: 0.2,
		NumTrees:        10,
		MaxDepth:        5,
		Seed:            42,
	})
}

func TestEngine_BootstrapAndRefresh(t *testing.T) {
	engine := NewEngine(testEngineConfig(), &fakePriceProvider{}, newsadapter.NewStaticProvider(), testForecaster(), Options{})

	ctx := context.Background()
	if err := engine.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	snapshot, err := engine.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if snapshot.Recommendation == nil {
		t.Fatal("Snapshot should carry a recommendation")
	}
	if snapshot.Recommendation.Action == "" {
		t.Error("Recommendation action should be set")
	}
	if len(snapshot.Forecast.HorizonEstimates) != 3 {
		t.Errorf("Expected 3 horizon estimates, got %d", len(snapshot.Forecast.HorizonEstimates))
	}
	if snapshot.SeriesLength != 60 {
		t.Errorf("Expected 60 series rows, got %d", snapshot.SeriesLength)
	}
	if snapshot.MarketContext == nil {
		t.Error("60-row series should yield a market context")
	}

	if engine.Latest() != snapshot {
		t.Error("Latest should return the snapshot just produced")
	}
	if engine.Summary() == "No recommendation available yet." {
		t.Error("Summary should reflect the produced recommendation")
	}
}

func TestEngine_RefreshBeforeTraining(t *testing.T) {
	engine := NewEngine(testEngineConfig(), &fakePriceProvider{}, newsadapter.NewStaticProvider(), testForecaster(), Options{})

	_, err := engine.Refresh(context.Background())
	if !errors.Is(err, models.ErrNotTrained) {
		t.Errorf("Expected ErrNotTrained before Bootstrap, got %v", err)
	}
}

func TestEngine_BrokenPriceSource(t *testing.T) {
	engine := NewEngine(testEngineConfig(), &emptyPriceProvider{}, newsadapter.NewStaticProvider(), testForecaster(), Options{})

	err := engine.Bootstrap(context.Background())
	if !errors.Is(err, models.ErrNoData) {
		t.Errorf("Expected ErrNoData for empty price source, got %v", err)
	}
}

func TestEngine_BootstrapRestoresLastRecommendation(t *testing.T) {
	stored := &models.Recommendation{
		Action:      models.ActionBuy,
		Confidence:  0.72,
		GeneratedAt: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	store := &memoryStore{recs: []*models.Recommendation{stored}}
	engine := NewEngine(testEngineConfig(), &fakePriceProvider{}, newsadapter.NewStaticProvider(), testForecaster(), Options{Repo: store})

	ctx := context.Background()
	if err := engine.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	// Before the first cycle the persisted advice is served as-is
	restored := engine.Latest()
	if restored == nil {
		t.Fatal("Latest should serve the persisted recommendation after Bootstrap")
	}
	if restored.Recommendation.Action != models.ActionBuy {
		t.Errorf("Expected restored action BUY, got %s", restored.Recommendation.Action)
	}
	if !restored.UpdatedAt.Equal(stored.GeneratedAt) {
		t.Errorf("Restored snapshot should carry the stored timestamp, got %v", restored.UpdatedAt)
	}
	if restored.Forecast != nil {
		t.Error("Restored snapshot should not fabricate a forecast")
	}

	snapshot, err := engine.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if engine.Latest() != snapshot {
		t.Error("First cycle should replace the restored snapshot")
	}
	if len(store.recs) != 2 {
		t.Errorf("Refresh should persist the new recommendation, got %d stored", len(store.recs))
	}
}

func TestEngine_PersistedSeriesFallback(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()

	// A healthy engine populates the store
	healthy := NewEngine(testEngineConfig(), &fakePriceProvider{}, newsadapter.NewStaticProvider(), testForecaster(), Options{Repo: store})
	if err := healthy.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if len(store.series) == 0 {
		t.Fatal("Bootstrap should persist the daily series")
	}

	// A restarted engine with a dead price feed runs on the stored series
	restarted := NewEngine(testEngineConfig(), &emptyPriceProvider{}, newsadapter.NewStaticProvider(), testForecaster(), Options{Repo: store})
	if err := restarted.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap with persisted series failed: %v", err)
	}

	snapshot, err := restarted.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh on persisted series failed: %v", err)
	}
	if snapshot.SeriesLength != len(store.series) {
		t.Errorf("Expected %d series rows from the store, got %d", len(store.series), snapshot.SeriesLength)
	}
	if snapshot.Recommendation == nil {
		t.Error("Persisted series should still yield a recommendation")
	}
}

func TestEngine_NewsFetchCachedWithinTTL(t *testing.T) {
	counting := &countingNewsProvider{inner: newsadapter.NewStaticProvider()}
	cfg := testEngineConfig()
	cfg.News.CacheTTL = time.Hour
	engine := NewEngine(cfg, &fakePriceProvider{}, counting, testForecaster(), Options{})

	ctx := context.Background()
	if err := engine.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if counting.calls != 1 {
		t.Errorf("Expected a single news fetch within the TTL, got %d", counting.calls)
	}
}

func TestEngine_RetrainKeepsServing(t *testing.T) {
	engine := NewEngine(testEngineConfig(), &fakePriceProvider{}, newsadapter.NewStaticProvider(), testForecaster(), Options{})

	ctx := context.Background()
	if err := engine.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	before, err := engine.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if err := engine.Retrain(ctx); err != nil {
		t.Fatalf("Retrain failed: %v", err)
	}

	after, err := engine.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh after retrain failed: %v", err)
	}

	// Same data, same seed: retraining must reproduce the same forecast
	if before.Forecast.PointEstimate != after.Forecast.PointEstimate {
		t.Errorf("Deterministic retrain changed forecast: %.6f vs %.6f",
			before.Forecast.PointEstimate, after.Forecast.PointEstimate)
	}
}
