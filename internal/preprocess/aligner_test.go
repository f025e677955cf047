package preprocess

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/selivandex/gold-advisor/pkg/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAligner_Align(t *testing.T) {
	aligner := NewAligner()

	prices := []models.PricePoint{
		{Date: day(2024, 1, 3), Price: 2050.0},
		{Date: day(2024, 1, 1), Price: 2040.0},
		{Date: day(2024, 1, 2), Price: 2045.5},
	}
	sentiments := []models.SentimentRecord{
		{Date: day(2024, 1, 1), Text: "Gold rallies on Fed cut hopes!", Label: models.LabelPositive},
		{Date: day(2024, 1, 1), Text: "Dollar strength weighs on gold", Label: models.LabelNegative},
		{Date: day(2024, 1, 3), Text: "Gold steady ahead of data", Label: models.LabelNeutral},
	}

	rows, err := aligner.Align(prices, sentiments)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	// Sorted ascending regardless of input order
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Date.Before(rows[i].Date) {
			t.Errorf("Rows not sorted ascending at index %d", i)
		}
	}

	// Jan 1: mean of +1 and -1 = 0, both headlines joined
	if rows[0].SentimentScore != 0 {
		t.Errorf("Expected mean sentiment 0 for Jan 1, got %.2f", rows[0].SentimentScore)
	}
	want := "gold rallies on fed cut hopes | dollar strength weighs on gold"
	if rows[0].HeadlineSummary != want {
		t.Errorf("Unexpected headline summary: %q", rows[0].HeadlineSummary)
	}

	// Jan 2 had no news: neutral, empty summary
	if rows[1].SentimentScore != 0 || rows[1].HeadlineSummary != "" {
		t.Errorf("Expected neutral gap fill for Jan 2, got score=%.2f summary=%q",
			rows[1].SentimentScore, rows[1].HeadlineSummary)
	}
}

func TestAligner_DropsInvalidPrices(t *testing.T) {
	aligner := NewAligner()

	prices := []models.PricePoint{
		{Date: day(2024, 1, 1), Price: 2040.0},
		{Date: day(2024, 1, 2), Price: math.NaN()},
		{Date: day(2024, 1, 3), Price: -5},
		{Date: time.Time{}, Price: 2050.0},
		{Date: day(2024, 1, 1), Price: 9999.0}, // duplicate date, first wins
	}

	rows, err := aligner.Align(prices, nil)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("Expected 1 valid row, got %d", len(rows))
	}
	if rows[0].Price != 2040.0 {
		t.Errorf("Duplicate should keep first source row, got %.2f", rows[0].Price)
	}
}

func TestAligner_EmptyPriceSeries(t *testing.T) {
	aligner := NewAligner()

	_, err := aligner.Align(nil, nil)
	if !errors.Is(err, models.ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}

	_, err = aligner.Align([]models.PricePoint{{Date: day(2024, 1, 1), Price: math.Inf(1)}}, nil)
	if !errors.Is(err, models.ErrNoData) {
		t.Errorf("Expected ErrNoData for all-invalid series, got %v", err)
	}
}

func TestAligner_HeadlineCap(t *testing.T) {
	aligner := NewAligner()

	prices := []models.PricePoint{{Date: day(2024, 1, 1), Price: 2000}}
	var sentiments []models.SentimentRecord
	for i := 0; i < 8; i++ {
		sentiments = append(sentiments, models.SentimentRecord{
			Date:  day(2024, 1, 1),
			Text:  "headline number " + string(rune('a'+i)),
			Label: models.LabelPositive,
		})
	}
	// Exact duplicate text must not count twice
	sentiments = append(sentiments, models.SentimentRecord{
		Date: day(2024, 1, 1), Text: "headline number a", Label: models.LabelPositive,
	})

	rows, err := aligner.Align(prices, sentiments)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	if got := len(splitSummary(rows[0].HeadlineSummary)); got != maxHeadlinesPerDay {
		t.Errorf("Expected %d headlines, got %d", maxHeadlinesPerDay, got)
	}
}

func TestAligner_Idempotent(t *testing.T) {
	aligner := NewAligner()

	prices := []models.PricePoint{
		{Date: day(2024, 1, 2), Price: 2045.5},
		{Date: day(2024, 1, 1), Price: 2040.0},
	}
	sentiments := []models.SentimentRecord{
		{Date: day(2024, 1, 1), Text: "Gold edges higher", Label: models.LabelPositive},
	}

	first, err := aligner.Align(prices, sentiments)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	second, err := aligner.Align(prices, sentiments)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Align should be idempotent on identical inputs")
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Gold SURGES 2.5%! ", "gold surges 25"},
		{"fed-cut, rally?", "fedcut rally"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func splitSummary(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, " | ")
}
