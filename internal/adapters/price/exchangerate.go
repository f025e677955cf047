package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/gold-advisor/pkg/logger"
)

const exchangeRateAPIURL = "https://api.exchangerate-api.com/v4/latest/USD"

// ExchangeRateProvider implements FXProvider using exchangerate-api.com
// (free, no API key needed). Falls back to a static rate on failure.
type ExchangeRateProvider struct {
	client       *http.Client
	cacheTTL     time.Duration
	fallbackRate float64

	cachedRate   float64
	cachedRateAt time.Time
}

// NewExchangeRateProvider creates new USD/INR rate provider
func NewExchangeRateProvider(cacheTTL time.Duration, fallbackRate float64) *ExchangeRateProvider {
	return &ExchangeRateProvider{
		client:       &http.Client{Timeout: 10 * time.Second},
		cacheTTL:     cacheTTL,
		fallbackRate: fallbackRate,
	}
}

// USDToINR returns the current USD to INR rate, cached for cacheTTL.
func (p *ExchangeRateProvider) USDToINR(ctx context.Context) (float64, error) {
	if p.cachedRate > 0 && time.Since(p.cachedRateAt) < p.cacheTTL {
		return p.cachedRate, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", exchangeRateAPIURL, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Warn("fx rate fetch failed, using fallback",
			zap.Float64("fallback", p.fallbackRate),
			zap.Error(err),
		)
		return p.fallbackRate, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return p.fallbackRate, nil
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return p.fallbackRate, nil
	}

	inr, ok := result.Rates["INR"]
	if !ok || inr <= 0 {
		return p.fallbackRate, nil
	}

	p.cachedRate = inr
	p.cachedRateAt = time.Now()
	return inr, nil
}
