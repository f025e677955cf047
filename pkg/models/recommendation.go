package models

import "time"

// Action is a discrete trading recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// PriceTrend classifies the predicted percent change bucket.
type PriceTrend string

const (
	TrendStrongUp   PriceTrend = "strong_up"
	TrendUp         PriceTrend = "up"
	TrendStable     PriceTrend = "stable"
	TrendDown       PriceTrend = "down"
	TrendStrongDown PriceTrend = "strong_down"
)

// Bullish reports whether the trend points up.
func (t PriceTrend) Bullish() bool { return t == TrendStrongUp || t == TrendUp }

// Bearish reports whether the trend points down.
func (t PriceTrend) Bearish() bool { return t == TrendStrongDown || t == TrendDown }

// SentimentStrength classifies the sentiment score bucket.
type SentimentStrength string

const (
	SentimentVeryPositive SentimentStrength = "very_positive"
	SentimentPositive     SentimentStrength = "positive"
	SentimentNeutral      SentimentStrength = "neutral"
	SentimentNegative     SentimentStrength = "negative"
	SentimentVeryNegative SentimentStrength = "very_negative"
)

// Bullish reports whether the sentiment leans positive.
func (s SentimentStrength) Bullish() bool {
	return s == SentimentVeryPositive || s == SentimentPositive
}

// Bearish reports whether the sentiment leans negative.
func (s SentimentStrength) Bearish() bool {
	return s == SentimentVeryNegative || s == SentimentNegative
}

// Recommendation is the output of one evaluation. It is produced fresh on
// every call and never mutated afterwards.
type Recommendation struct {
	Action            Action            `json:"action" db:"action"`
	Confidence        float64           `json:"confidence" db:"confidence"`
	Reasoning         []string          `json:"reasoning"`
	CurrentPrice      float64           `json:"current_price" db:"current_price"`
	PredictedPrice    float64           `json:"predicted_price" db:"predicted_price"`
	PriceChangePct    float64           `json:"price_change_pct" db:"price_change_pct"`
	SentimentScore    float64           `json:"sentiment_score" db:"sentiment_score"`
	PriceTrend        PriceTrend        `json:"price_trend" db:"price_trend"`
	SentimentStrength SentimentStrength `json:"sentiment_strength" db:"sentiment_strength"`
	GeneratedAt       time.Time         `json:"generated_at" db:"generated_at"`
}

// ConfidenceLevel buckets the confidence value for display.
func (r *Recommendation) ConfidenceLevel() string {
	switch {
	case r.Confidence > 0.7:
		return "High"
	case r.Confidence > 0.4:
		return "Medium"
	default:
		return "Low"
	}
}
