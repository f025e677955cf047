package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/selivandex/gold-advisor/pkg/models"
)

func testConfig() Config {
	return Config{
		WindowSize:      5,
		ValidationSplit: 0.2,
		NumTrees:        10,
		MaxDepth:        5,
		Seed:            42,
	}
}

// generateTestSeries builds a drifting price series with alternating sentiment
func generateTestSeries(n int, startPrice, drift float64) []models.DailySeriesRow {
	rows := make([]models.DailySeriesRow, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := startPrice
	for i := 0; i < n; i++ {
		sentiment := 0.2
		if i%3 == 0 {
			sentiment = -0.1
		}
		rows[i] = models.DailySeriesRow{
			Date:           base.AddDate(0, 0, i),
			Price:          price,
			SentimentScore: sentiment,
		}
		price += drift + math.Sin(float64(i))*2
	}
	return rows
}

func TestForecaster_FitAndPredict(t *testing.T) {
	f := New(testConfig())
	series := generateTestSeries(60, 1800, 1.5)

	report, err := f.Fit(series)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if report.Examples != 60-5 {
		t.Errorf("Expected %d examples, got %d", 55, report.Examples)
	}
	if report.TrainSize+report.ValSize != report.Examples {
		t.Error("Split sizes should sum to example count")
	}

	pred, err := f.PredictNext(series)
	if err != nil {
		t.Fatalf("PredictNext failed: %v", err)
	}

	// Prediction must land inside the scaler bounds observed at fit time
	minP, maxP := series[0].Price, series[0].Price
	for _, row := range series {
		if row.Price < minP {
			minP = row.Price
		}
		if row.Price > maxP {
			maxP = row.Price
		}
	}
	if pred < minP || pred > maxP {
		t.Errorf("Prediction %.2f outside fitted price range [%.2f, %.2f]", pred, minP, maxP)
	}
}

func TestForecaster_Deterministic(t *testing.T) {
	series := generateTestSeries(60, 1800, 1.5)

	f1 := New(testConfig())
	if _, err := f1.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	p1, err := f1.PredictNext(series)
	if err != nil {
		t.Fatalf("PredictNext failed: %v", err)
	}
	p2, _ := f1.PredictNext(series)
	if p1 != p2 {
		t.Errorf("Repeated PredictNext differs: %.6f vs %.6f", p1, p2)
	}

	// A second forecaster with the same seed must reproduce the same model
	f2 := New(testConfig())
	if _, err := f2.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	p3, _ := f2.PredictNext(series)
	if p1 != p3 {
		t.Errorf("Same seed should give identical predictions: %.6f vs %.6f", p1, p3)
	}
}

func TestForecaster_NotTrained(t *testing.T) {
	f := New(testConfig())
	series := generateTestSeries(60, 1800, 1.5)

	if _, err := f.PredictNext(series); !errors.Is(err, models.ErrNotTrained) {
		t.Errorf("Expected ErrNotTrained, got %v", err)
	}
	if _, err := f.PredictHorizon(series, 7); !errors.Is(err, models.ErrNotTrained) {
		t.Errorf("Expected ErrNotTrained, got %v", err)
	}
	if _, err := f.ExportState(); !errors.Is(err, models.ErrNotTrained) {
		t.Errorf("Expected ErrNotTrained, got %v", err)
	}
}

func TestForecaster_WindowInvariant(t *testing.T) {
	f := New(testConfig())
	series := generateTestSeries(60, 1800, 1.5)
	if _, err := f.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// Fewer than W rows fails
	if _, err := f.PredictNext(series[:4]); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData with 4 rows, got %v", err)
	}

	// Exactly W rows succeeds
	if _, err := f.PredictNext(series[:5]); err != nil {
		t.Errorf("PredictNext with exactly W rows should succeed, got %v", err)
	}
}

func TestForecaster_FitInsufficientData(t *testing.T) {
	f := New(testConfig())

	// W+1 rows is the minimum for a single training example
	if _, err := f.Fit(generateTestSeries(5, 1800, 1)); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
	if _, err := f.Fit(generateTestSeries(6, 1800, 1)); err != nil {
		t.Errorf("Fit with W+1 rows should succeed, got %v", err)
	}
}

func TestForecaster_PredictHorizon(t *testing.T) {
	f := New(testConfig())
	series := generateTestSeries(60, 1800, 1.5)
	if _, err := f.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	result, err := f.PredictHorizon(series, 7)
	if err != nil {
		t.Fatalf("PredictHorizon failed: %v", err)
	}

	if len(result.HorizonEstimates) != 7 {
		t.Fatalf("Expected 7 horizon estimates, got %d", len(result.HorizonEstimates))
	}
	if len(result.FilledSentiment) != 7 {
		t.Fatalf("Expected 7 filled sentiment values, got %d", len(result.FilledSentiment))
	}
	if result.PointEstimate != result.HorizonEstimates[0] {
		t.Error("PointEstimate should equal the first horizon estimate")
	}
	if !result.BasedOnDate.Equal(series[len(series)-1].Date) {
		t.Error("BasedOnDate should be the last known row date")
	}

	// First fill-in is the historical mean sentiment
	var sum float64
	for _, row := range series {
		sum += row.SentimentScore
	}
	wantMean := sum / float64(len(series))
	if math.Abs(result.FilledSentiment[0]-wantMean) > 1e-12 {
		t.Errorf("First filled sentiment = %.6f, want historical mean %.6f",
			result.FilledSentiment[0], wantMean)
	}

	if _, err := f.PredictHorizon(series, 0); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero horizon, got %v", err)
	}
}

func TestForecaster_StateRoundTrip(t *testing.T) {
	f := New(testConfig())
	series := generateTestSeries(60, 1800, 1.5)
	if _, err := f.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	original, err := f.PredictNext(series)
	if err != nil {
		t.Fatalf("PredictNext failed: %v", err)
	}

	blob, err := f.ExportState()
	if err != nil {
		t.Fatalf("ExportState failed: %v", err)
	}

	restored := New(testConfig())
	if err := restored.ImportState(blob); err != nil {
		t.Fatalf("ImportState failed: %v", err)
	}

	loaded, err := restored.PredictNext(series)
	if err != nil {
		t.Fatalf("PredictNext after import failed: %v", err)
	}
	if original != loaded {
		t.Errorf("Round trip changed prediction: %.6f vs %.6f", original, loaded)
	}
}

func TestForecaster_WindowSizeMismatch(t *testing.T) {
	f := New(testConfig())
	series := generateTestSeries(60, 1800, 1.5)
	if _, err := f.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	blob, err := f.ExportState()
	if err != nil {
		t.Fatalf("ExportState failed: %v", err)
	}

	otherCfg := testConfig()
	otherCfg.WindowSize = 10
	other := New(otherCfg)

	if err := other.ImportState(blob); !errors.Is(err, models.ErrWindowSizeMismatch) {
		t.Errorf("Expected ErrWindowSizeMismatch, got %v", err)
	}
	if other.IsTrained() {
		t.Error("Failed import must not leave a loaded model behind")
	}
}

func TestMinMaxScaler(t *testing.T) {
	var s MinMaxScaler
	s.Fit([]float64{10, 20, 30})

	if got := s.Transform(10); got != 0 {
		t.Errorf("Transform(min) = %.4f, want 0", got)
	}
	if got := s.Transform(30); got != 1 {
		t.Errorf("Transform(max) = %.4f, want 1", got)
	}
	if got := s.Inverse(s.Transform(22.5)); math.Abs(got-22.5) > 1e-12 {
		t.Errorf("Inverse(Transform(x)) = %.6f, want 22.5", got)
	}

	// Degenerate range maps to 0 instead of dividing by zero
	var flat MinMaxScaler
	flat.Fit([]float64{5, 5, 5})
	if got := flat.Transform(5); got != 0 {
		t.Errorf("Degenerate Transform = %.4f, want 0", got)
	}
}
