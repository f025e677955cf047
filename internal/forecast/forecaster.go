// Package forecast builds fixed-length lookback windows over the daily
// series and fits a random forest regressor mapping window to next-day
// price. It produces single-step and recursive multi-step forecasts.
package forecast

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/selivandex/gold-advisor/pkg/logger"
	"github.com/selivandex/gold-advisor/pkg/models"
)

// Config represents forecaster parameters
type Config struct {
	WindowSize      int
	ValidationSplit float64
	NumTrees        int
	MaxDepth        int
	Seed            int64
}

// DefaultConfig returns the parameters the original advisor shipped with.
func DefaultConfig() Config {
	return Config{
		WindowSize:      30,
		ValidationSplit: 0.2,
		NumTrees:        100,
		MaxDepth:        10,
		Seed:            42,
	}
}

// TrainingReport summarizes fit quality on the chronological split.
type TrainingReport struct {
	Examples   int     `json:"examples"`
	TrainSize  int     `json:"train_size"`
	ValSize    int     `json:"val_size"`
	TrainRMSE  float64 `json:"train_rmse"`
	ValRMSE    float64 `json:"val_rmse"`
	TrainMAE   float64 `json:"train_mae"`
	ValMAE     float64 `json:"val_mae"`
	WindowSize int     `json:"window_size"`
}

// modelState is everything inference needs. It is built completely before
// being swapped in, so readers never observe a half-updated model.
type modelState struct {
	Forest          *Forest
	PriceScaler     MinMaxScaler
	SentimentScaler MinMaxScaler
	WindowSize      int
}

// Forecaster fits and serves the window regression model. Fit builds a new
// state and swaps it atomically under the write lock; PredictNext and
// PredictHorizon only take the read lock, so concurrent inference during
// retraining is safe.
type Forecaster struct {
	cfg Config
	log *zap.Logger

	mu    sync.RWMutex
	state *modelState
}

// New creates an untrained forecaster.
func New(cfg Config) *Forecaster {
	return &Forecaster{cfg: cfg, log: logger.Named("forecast")}
}

// WindowSize returns the configured lookback length.
func (f *Forecaster) WindowSize() int { return f.cfg.WindowSize }

// IsTrained reports whether a fitted model is currently loaded.
func (f *Forecaster) IsTrained() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state != nil
}

// Fit trains a new model on series and swaps it in. The scalers are fitted
// on this series only; later predictions reuse the stored bounds. The split
// is chronological: the most recent ValidationSplit fraction validates.
func (f *Forecaster) Fit(series []models.DailySeriesRow) (*TrainingReport, error) {
	w := f.cfg.WindowSize
	if len(series) < w+1 {
		return nil, fmt.Errorf("%w: need at least %d rows to fit, got %d",
			models.ErrInsufficientData, w+1, len(series))
	}

	prices := make([]float64, len(series))
	sentiments := make([]float64, len(series))
	for i, row := range series {
		prices[i] = row.Price
		sentiments[i] = row.SentimentScore
	}

	state := &modelState{WindowSize: w}
	state.PriceScaler.Fit(prices)
	state.SentimentScaler.Fit(sentiments)

	scaledPrices := state.PriceScaler.TransformAll(prices)
	scaledSents := state.SentimentScaler.TransformAll(sentiments)

	X := make([][]float64, 0, len(series)-w)
	y := make([]float64, 0, len(series)-w)
	for i := w; i < len(series); i++ {
		X = append(X, windowVector(scaledPrices, scaledSents, i, w))
		y = append(y, scaledPrices[i])
	}

	splitIdx := int(float64(len(X)) * (1 - f.cfg.ValidationSplit))
	if splitIdx < 1 {
		splitIdx = 1
	}

	state.Forest = trainForest(X[:splitIdx], y[:splitIdx], forestParams{
		numTrees:   f.cfg.NumTrees,
		maxDepth:   f.cfg.MaxDepth,
		minSamples: 2,
		seed:       f.cfg.Seed,
	})

	report := &TrainingReport{
		Examples:   len(X),
		TrainSize:  splitIdx,
		ValSize:    len(X) - splitIdx,
		WindowSize: w,
	}
	report.TrainRMSE, report.TrainMAE = f.evaluate(state, X[:splitIdx], y[:splitIdx])
	if report.ValSize > 0 {
		report.ValRMSE, report.ValMAE = f.evaluate(state, X[splitIdx:], y[splitIdx:])
	}

	f.mu.Lock()
	f.state = state
	f.mu.Unlock()

	f.log.Info("model fitted",
		zap.Int("examples", report.Examples),
		zap.Int("window_size", w),
		zap.Float64("val_rmse", report.ValRMSE),
		zap.Float64("val_mae", report.ValMAE),
	)

	return report, nil
}

// evaluate computes RMSE and MAE in price units.
func (f *Forecaster) evaluate(state *modelState, X [][]float64, y []float64) (rmse, mae float64) {
	if len(X) == 0 {
		return 0, 0
	}
	var sqSum, absSum float64
	for i, features := range X {
		pred := state.PriceScaler.Inverse(state.Forest.Predict(features))
		actual := state.PriceScaler.Inverse(y[i])
		d := pred - actual
		sqSum += d * d
		absSum += math.Abs(d)
	}
	n := float64(len(X))
	return math.Sqrt(sqSum / n), absSum / n
}

// PredictNext forecasts the next-day price from the most recent window.
func (f *Forecaster) PredictNext(series []models.DailySeriesRow) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	state := f.state
	if state == nil {
		return 0, fmt.Errorf("%w: call Fit or ImportState first", models.ErrNotTrained)
	}
	if len(series) < state.WindowSize {
		return 0, fmt.Errorf("%w: need %d rows, got %d",
			models.ErrInsufficientData, state.WindowSize, len(series))
	}

	prices := make([]float64, 0, state.WindowSize)
	sentiments := make([]float64, 0, state.WindowSize)
	for _, row := range series[len(series)-state.WindowSize:] {
		prices = append(prices, row.Price)
		sentiments = append(sentiments, row.SentimentScore)
	}

	return predictFromWindow(state, prices, sentiments), nil
}

// PredictHorizon forecasts n days ahead recursively. Each produced estimate
// is appended to the working series with the running mean sentiment as a
// fill-in, since real sentiment for future days cannot exist; the fill-in
// used at each step is reported in FilledSentiment. Prediction error
// compounds with every step.
func (f *Forecaster) PredictHorizon(series []models.DailySeriesRow, n int) (*models.ForecastResult, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	state := f.state
	if state == nil {
		return nil, fmt.Errorf("%w: call Fit or ImportState first", models.ErrNotTrained)
	}
	if len(series) < state.WindowSize {
		return nil, fmt.Errorf("%w: need %d rows, got %d",
			models.ErrInsufficientData, state.WindowSize, len(series))
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", models.ErrInvalidInput, n)
	}

	prices := make([]float64, len(series))
	sentiments := make([]float64, len(series))
	var sentSum float64
	for i, row := range series {
		prices[i] = row.Price
		sentiments[i] = row.SentimentScore
		sentSum += row.SentimentScore
	}

	result := &models.ForecastResult{
		HorizonEstimates: make([]float64, 0, n),
		FilledSentiment:  make([]float64, 0, n),
		BasedOnDate:      series[len(series)-1].Date,
	}

	for step := 0; step < n; step++ {
		w := state.WindowSize
		next := predictFromWindow(state, prices[len(prices)-w:], sentiments[len(sentiments)-w:])

		meanSent := sentSum / float64(len(sentiments))

		result.HorizonEstimates = append(result.HorizonEstimates, next)
		result.FilledSentiment = append(result.FilledSentiment, meanSent)

		prices = append(prices, next)
		sentiments = append(sentiments, meanSent)
		sentSum += meanSent
	}

	result.PointEstimate = result.HorizonEstimates[0]
	return result, nil
}

func predictFromWindow(state *modelState, prices, sentiments []float64) float64 {
	w := state.WindowSize
	scaledPrices := make([]float64, w)
	scaledSents := make([]float64, w)
	for i := 0; i < w; i++ {
		scaledPrices[i] = state.PriceScaler.Transform(prices[i])
		scaledSents[i] = state.SentimentScaler.Transform(sentiments[i])
	}

	features := make([]float64, 0, 2*w)
	features = append(features, scaledPrices...)
	features = append(features, scaledSents...)

	return state.PriceScaler.Inverse(state.Forest.Predict(features))
}

// windowVector concatenates the W scaled prices and W scaled sentiments
// ending just before index i.
func windowVector(scaledPrices, scaledSents []float64, i, w int) []float64 {
	features := make([]float64, 0, 2*w)
	features = append(features, scaledPrices[i-w:i]...)
	features = append(features, scaledSents[i-w:i]...)
	return features
}
