package price

import (
	"context"

	"github.com/selivandex/gold-advisor/pkg/models"
)

// Provider supplies gold spot prices in USD per troy ounce.
type Provider interface {
	// Spot returns the current spot price.
	Spot(ctx context.Context) (float64, error)

	// History returns up to days of daily closing prices, oldest first.
	History(ctx context.Context, days int) ([]models.PricePoint, error)

	// GetName returns provider name
	GetName() string
}

// FXProvider supplies currency conversion rates.
type FXProvider interface {
	// USDToINR returns the current USD to INR rate.
	USDToINR(ctx context.Context) (float64, error)
}
