// Package indicators derives technical context from the daily price series.
// The context rides along with recommendations for display; it does not
// feed the forecaster.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator"

	"github.com/selivandex/gold-advisor/pkg/models"
)

// minRows is what the slowest indicator (RSI warmup) needs.
const minRows = 15

// MarketContext summarizes where the latest price sits technically.
type MarketContext struct {
	SMA20          float64 `json:"sma_20"`
	RSI14          float64 `json:"rsi_14"`
	BollingerUpper float64 `json:"bollinger_upper"`
	BollingerMid   float64 `json:"bollinger_mid"`
	BollingerLower float64 `json:"bollinger_lower"`
	AboveSMA       bool    `json:"above_sma"`
	Overbought     bool    `json:"overbought"` // RSI > 70
	Oversold       bool    `json:"oversold"`   // RSI < 30
}

// Calculator calculates technical indicators from the daily series
type Calculator struct{}

// NewCalculator creates new indicator calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate computes the market context from the series' closing prices.
func (c *Calculator) Calculate(series []models.DailySeriesRow) (*MarketContext, error) {
	if len(series) < minRows {
		return nil, fmt.Errorf("%w: need at least %d rows for indicators, got %d",
			models.ErrInsufficientData, minRows, len(series))
	}

	closes := make([]float64, len(series))
	for i, row := range series {
		closes[i] = row.Price
	}
	last := closes[len(closes)-1]

	smaPeriod := 20
	if len(closes) < smaPeriod {
		smaPeriod = len(closes)
	}
	sma := indicator.Sma(smaPeriod, closes)

	_, rsi := indicator.Rsi(closes)
	if len(rsi) < 14 {
		return nil, fmt.Errorf("%w: RSI returned too few values", models.ErrInsufficientData)
	}
	lastRSI := rsi[len(rsi)-1]

	bbMiddle, bbUpper, bbLower := indicator.BollingerBands(closes)

	ctx := &MarketContext{
		SMA20:          sma[len(sma)-1],
		RSI14:          lastRSI,
		BollingerUpper: bbUpper[len(bbUpper)-1],
		BollingerMid:   bbMiddle[len(bbMiddle)-1],
		BollingerLower: bbLower[len(bbLower)-1],
	}
	ctx.AboveSMA = last > ctx.SMA20
	ctx.Overbought = lastRSI > 70
	ctx.Oversold = lastRSI < 30

	return ctx, nil
}
