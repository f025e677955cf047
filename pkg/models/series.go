package models

import "time"

// PricePoint is a single daily observation from a price source.
// Price is expressed in USD per troy ounce; no unit conversion happens
// downstream.
type PricePoint struct {
	Date  time.Time `json:"date" db:"date"`
	Price float64   `json:"price" db:"price"`
}

// SentimentLabel is a categorical label attached to a news record by its
// source. Unlabeled records count as neutral.
type SentimentLabel string

const (
	LabelNegative SentimentLabel = "negative"
	LabelNeutral  SentimentLabel = "neutral"
	LabelPositive SentimentLabel = "positive"
	LabelNone     SentimentLabel = ""
)

// Score maps a categorical label to its numeric sentiment value.
func (l SentimentLabel) Score() float64 {
	switch l {
	case LabelNegative:
		return -1
	case LabelPositive:
		return 1
	default:
		return 0
	}
}

// SentimentRecord is a single raw news item. Multiple records may share
// a date.
type SentimentRecord struct {
	Date  time.Time      `json:"date" db:"date"`
	Text  string         `json:"text" db:"text"`
	Label SentimentLabel `json:"label" db:"label"`
}

// DailySeriesRow is the canonical per-day unit the forecaster and
// recommendation engine consume. Exactly one row exists per price date;
// days without news carry a neutral score and an empty headline summary.
type DailySeriesRow struct {
	Date            time.Time `json:"date" db:"date"`
	Price           float64   `json:"price" db:"price"`
	SentimentScore  float64   `json:"sentiment_score" db:"sentiment_score"`
	HeadlineSummary string    `json:"headline_summary" db:"headline_summary"`
}

// ForecastResult holds a next-day point estimate and an optional multi-day
// horizon. Horizon estimates are produced recursively: each predicted price
// is appended to the working series with the running mean sentiment as a
// stand-in, so FilledSentiment[i] records the value actually used at step i.
// Errors compound step to step; treat far horizon values as indicative only.
type ForecastResult struct {
	PointEstimate    float64   `json:"point_estimate"`
	HorizonEstimates []float64 `json:"horizon_estimates,omitempty"`
	FilledSentiment  []float64 `json:"filled_sentiment,omitempty"`
	BasedOnDate      time.Time `json:"based_on_date"`
}
