package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/gold-advisor/pkg/logger"
	"github.com/selivandex/gold-advisor/pkg/models"
)

const metalPriceAPIURL = "https://api.metalpriceapi.com/v1"

// MetalPriceAPIProvider implements Provider using metalpriceapi.com
// (XAU base, USD quote). Spot responses are cached in memory; when the API
// is unreachable the provider degrades to a static fallback price rather
// than failing the whole advisor cycle.
type MetalPriceAPIProvider struct {
	apiKey        string
	client        *http.Client
	cacheTTL      time.Duration
	fallbackPrice float64

	cachedSpot   float64
	cachedSpotAt time.Time
}

// NewMetalPriceAPIProvider creates new MetalpriceAPI gold price provider
func NewMetalPriceAPIProvider(apiKey string, cacheTTL time.Duration, fallbackPrice float64) *MetalPriceAPIProvider {
	return &MetalPriceAPIProvider{
		apiKey:        apiKey,
		client:        &http.Client{Timeout: 10 * time.Second},
		cacheTTL:      cacheTTL,
		fallbackPrice: fallbackPrice,
	}
}

func (p *MetalPriceAPIProvider) GetName() string {
	return "MetalpriceAPI"
}

// Spot returns the current XAU/USD price, cached for cacheTTL.
func (p *MetalPriceAPIProvider) Spot(ctx context.Context) (float64, error) {
	if p.cachedSpot > 0 && time.Since(p.cachedSpotAt) < p.cacheTTL {
		return p.cachedSpot, nil
	}

	url := fmt.Sprintf("%s/latest?api_key=%s&base=XAU&currencies=USD", metalPriceAPIURL, p.apiKey)

	var result struct {
		Success bool               `json:"success"`
		Rates   map[string]float64 `json:"rates"`
	}
	if err := p.getJSON(ctx, url, &result); err != nil {
		logger.Warn("spot price fetch failed, using fallback",
			zap.Float64("fallback", p.fallbackPrice),
			zap.Error(err),
		)
		return p.fallbackPrice, nil
	}

	usd, ok := result.Rates["USD"]
	if !result.Success || !ok || usd <= 0 {
		logger.Warn("spot price response unusable, using fallback",
			zap.Float64("fallback", p.fallbackPrice),
		)
		return p.fallbackPrice, nil
	}

	p.cachedSpot = usd
	p.cachedSpotAt = time.Now()
	return usd, nil
}

// History returns daily XAU/USD closes for the last days, oldest first.
func (p *MetalPriceAPIProvider) History(ctx context.Context, days int) ([]models.PricePoint, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	url := fmt.Sprintf("%s/timeframe?api_key=%s&start_date=%s&end_date=%s&base=XAU&currencies=USD",
		metalPriceAPIURL, p.apiKey, start.Format("2006-01-02"), end.Format("2006-01-02"))

	var result struct {
		Success bool                          `json:"success"`
		Rates   map[string]map[string]float64 `json:"rates"`
	}
	if err := p.getJSON(ctx, url, &result); err != nil {
		return nil, err
	}
	if !result.Success || len(result.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty history response", models.ErrNoData)
	}

	points := make([]models.PricePoint, 0, len(result.Rates))
	for dateStr, rates := range result.Rates {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if usd, ok := rates["USD"]; ok && usd > 0 {
			points = append(points, models.PricePoint{Date: date, Price: usd})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return points, nil
}

func (p *MetalPriceAPIProvider) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
