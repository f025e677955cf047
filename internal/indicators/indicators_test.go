package indicators

import (
	"errors"
	"testing"
	"time"

	"github.com/selivandex/gold-advisor/pkg/models"
)

func generateTestSeries(n int, start, step float64) []models.DailySeriesRow {
	rows := make([]models.DailySeriesRow, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		rows[i] = models.DailySeriesRow{
			Date:  base.AddDate(0, 0, i),
			Price: start + float64(i)*step,
		}
	}
	return rows
}

func TestCalculator_Calculate(t *testing.T) {
	calc := NewCalculator()

	// Steadily rising series
	series := generateTestSeries(50, 1800, 2)

	ctx, err := calc.Calculate(series)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if ctx.RSI14 < 0 || ctx.RSI14 > 100 {
		t.Errorf("RSI should be in [0,100], got %.2f", ctx.RSI14)
	}
	if !ctx.AboveSMA {
		t.Error("Rising series should close above its SMA")
	}
	if ctx.BollingerUpper <= ctx.BollingerMid || ctx.BollingerMid <= ctx.BollingerLower {
		t.Error("Bollinger bands out of order")
	}
	if !ctx.Overbought {
		t.Error("Monotone rise should read as overbought")
	}
}

func TestCalculator_InsufficientData(t *testing.T) {
	calc := NewCalculator()

	_, err := calc.Calculate(generateTestSeries(10, 1800, 2))
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}
