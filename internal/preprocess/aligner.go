// Package preprocess aligns raw price and news sentiment feeds into the
// single daily series the forecaster and recommendation engine consume.
package preprocess

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/selivandex/gold-advisor/pkg/models"
)

// maxHeadlinesPerDay caps how many distinct headlines are joined into one
// day's summary, bounding memory on noisy news days.
const maxHeadlinesPerDay = 5

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

// Aligner merges a price series with raw sentiment records into ordered
// daily rows. It is stateless; Align may be called concurrently.
type Aligner struct{}

// NewAligner creates new series aligner
func NewAligner() *Aligner {
	return &Aligner{}
}

// Align left-joins per-date aggregated sentiment onto the cleaned price
// series. The result has exactly one row per valid price date, sorted
// ascending; dates without news get a neutral score and empty summary.
// Returns ErrNoData when the price source yields zero valid rows.
func (a *Aligner) Align(priceRows []models.PricePoint, sentimentRows []models.SentimentRecord) ([]models.DailySeriesRow, error) {
	prices := cleanPrices(priceRows)
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: price source produced no usable rows", models.ErrNoData)
	}

	daily := aggregateSentiment(sentimentRows)

	rows := make([]models.DailySeriesRow, 0, len(prices))
	for _, p := range prices {
		row := models.DailySeriesRow{
			Date:  p.Date,
			Price: p.Price,
		}
		if agg, ok := daily[p.Date]; ok {
			row.SentimentScore = agg.score()
			row.HeadlineSummary = strings.Join(agg.headlines, " | ")
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// cleanPrices drops unusable rows, normalizes dates to day granularity,
// sorts ascending and de-duplicates keeping the first source row. Duplicate
// prices are never averaged; series integrity takes precedence.
func cleanPrices(priceRows []models.PricePoint) []models.PricePoint {
	seen := make(map[time.Time]bool, len(priceRows))
	prices := make([]models.PricePoint, 0, len(priceRows))

	for _, p := range priceRows {
		if p.Date.IsZero() {
			continue
		}
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		day := normalizeDate(p.Date)
		if seen[day] {
			continue
		}
		seen[day] = true
		prices = append(prices, models.PricePoint{Date: day, Price: p.Price})
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].Date.Before(prices[j].Date) })
	return prices
}

type dayAggregate struct {
	sum       float64
	count     int
	headlines []string
	headSeen  map[string]bool
}

func (d *dayAggregate) score() float64 {
	if d.count == 0 {
		return 0
	}
	return d.sum / float64(d.count)
}

// aggregateSentiment groups records by day: mean score, distinct cleaned
// headlines up to the cap. Records with a zero date are silently excluded.
func aggregateSentiment(records []models.SentimentRecord) map[time.Time]*dayAggregate {
	daily := make(map[time.Time]*dayAggregate)

	for _, rec := range records {
		if rec.Date.IsZero() {
			continue
		}
		day := normalizeDate(rec.Date)

		agg, ok := daily[day]
		if !ok {
			agg = &dayAggregate{headSeen: make(map[string]bool)}
			daily[day] = agg
		}

		agg.sum += rec.Label.Score()
		agg.count++

		headline := NormalizeText(rec.Text)
		if headline != "" && !agg.headSeen[headline] && len(agg.headlines) < maxHeadlinesPerDay {
			agg.headSeen[headline] = true
			agg.headlines = append(agg.headlines, headline)
		}
	}

	return daily
}

// NormalizeText lowercases, trims and strips everything outside
// alphanumerics and spaces.
func NormalizeText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	return strings.TrimSpace(nonAlnum.ReplaceAllString(text, ""))
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
