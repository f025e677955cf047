package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/selivandex/gold-advisor/internal/forecast"
	"github.com/selivandex/gold-advisor/internal/preprocess"
	"github.com/selivandex/gold-advisor/pkg/logger"
	"github.com/selivandex/gold-advisor/pkg/models"
)

func main() {
	// Parse flags
	var (
		pricesPath = flag.String("prices", "data/prices.csv", "Price history CSV (date + close columns)")
		newsPath   = flag.String("news", "", "News sentiment CSV (date + text + optional label columns)")
		outPath    = flag.String("out", "models/forecaster.bin", "Output path for the trained model state")
		windowSize = flag.Int("window", 30, "Lookback window in days")
		numTrees   = flag.Int("trees", 100, "Number of trees in the forest")
		maxDepth   = flag.Int("depth", 10, "Maximum tree depth")
		valSplit   = flag.Float64("split", 0.2, "Validation fraction (chronological tail)")
		seed       = flag.Int64("seed", 42, "Random seed")
	)

	flag.Parse()

	// Initialize logger
	if err := logger.Init("info", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	prices, err := loadPriceCSV(*pricesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load prices: %v\n", err)
		os.Exit(1)
	}

	var news []models.SentimentRecord
	if *newsPath != "" {
		news, err = loadNewsCSV(*newsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load news: %v\n", err)
			os.Exit(1)
		}
	}

	series, err := preprocess.NewAligner().Align(prices, news)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build daily series: %v\n", err)
		os.Exit(1)
	}

	forecaster := forecast.New(forecast.Config{
		WindowSize:      *windowSize,
		ValidationSplit: *valSplit,
		NumTrees:        *numTrees,
		MaxDepth:        *maxDepth,
		Seed:            *seed,
	})

	fmt.Printf("Training on %d daily rows (%d prices, %d news records)...\n",
		len(series), len(prices), len(news))

	report, err := forecaster.Fit(series)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Training failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n=== Training Report ===")
	fmt.Printf("Examples:     %d (train %d / validation %d)\n",
		report.Examples, report.TrainSize, report.ValSize)
	fmt.Printf("Train RMSE:   %.4f\n", report.TrainRMSE)
	fmt.Printf("Train MAE:    %.4f\n", report.TrainMAE)
	fmt.Printf("Val RMSE:     %.4f\n", report.ValRMSE)
	fmt.Printf("Val MAE:      %.4f\n", report.ValMAE)

	next, err := forecaster.PredictNext(series)
	if err == nil {
		last := series[len(series)-1]
		fmt.Printf("\nLast close %.2f on %s, next-day estimate %.2f\n",
			last.Price, last.Date.Format("2006-01-02"), next)
	}

	blob, err := forecaster.ExportState()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to export model state: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, blob, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write model state: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nModel state saved to %s (%d bytes)\n", *outPath, len(blob))
}

// loadPriceCSV reads a CSV with a header row and picks the date and close
// columns by name. Extra columns are ignored so raw exports load as-is.
func loadPriceCSV(path string) ([]models.PricePoint, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	dateIdx := findColumn(records[0], "date")
	priceIdx := findColumn(records[0], "close", "price", "adj close")
	if dateIdx < 0 || priceIdx < 0 {
		return nil, fmt.Errorf("%s is missing date or close column", path)
	}

	points := make([]models.PricePoint, 0, len(records)-1)
	for i, row := range records[1:] {
		date, err := parseDate(row[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(row[priceIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad price %q", i+2, row[priceIdx])
		}
		points = append(points, models.PricePoint{Date: date, Price: price})
	}
	return points, nil
}

func loadNewsCSV(path string) ([]models.SentimentRecord, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	dateIdx := findColumn(records[0], "date", "dates")
	textIdx := findColumn(records[0], "news", "text", "headline", "title")
	labelIdx := findColumn(records[0], "sentiment", "label")
	if dateIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("%s is missing date or text column", path)
	}

	out := make([]models.SentimentRecord, 0, len(records)-1)
	for i, row := range records[1:] {
		date, err := parseDate(row[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rec := models.SentimentRecord{Date: date, Text: row[textIdx]}
		if labelIdx >= 0 {
			rec.Label = parseLabel(row[labelIdx])
		}
		out = append(out, rec)
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func findColumn(header []string, names ...string) int {
	for _, name := range names {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), name) {
				return i
			}
		}
	}
	return -1
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006/01/02", "01/02/2006", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseLabel(s string) models.SentimentLabel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "negative", "neg", "-1":
		return models.LabelNegative
	case "positive", "pos", "1":
		return models.LabelPositive
	case "neutral", "0":
		return models.LabelNeutral
	default:
		return models.LabelNone
	}
}
