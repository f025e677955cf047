package price

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Grams per troy ounce, the conversion constant for bullion pricing.
var gramsPerTroyOunce = decimal.NewFromFloat(31.1034768)

var ten = decimal.NewFromInt(10)
var hundred = decimal.NewFromInt(100)

// RetailQuote approximates Indian retail gold pricing: spot converted to
// INR per 10 grams with the local market premium and GST applied.
type RetailQuote struct {
	SpotUSDPerOunce decimal.Decimal `json:"spot_usd_per_ounce"`
	USDToINR        decimal.Decimal `json:"usd_to_inr"`
	BaseINRPer10g   decimal.Decimal `json:"base_inr_per_10g"`
	PremiumPercent  decimal.Decimal `json:"premium_percent"`
	GSTPercent      decimal.Decimal `json:"gst_percent"`
	RetailINRPer10g decimal.Decimal `json:"retail_inr_per_10g"`
}

// RetailConverter derives retail INR quotes from the USD spot price.
// The premium approximates dealer markup over spot; it is configuration,
// not market data.
type RetailConverter struct {
	fx             FXProvider
	premiumPercent decimal.Decimal
	gstPercent     decimal.Decimal
}

// NewRetailConverter creates new retail price converter
func NewRetailConverter(fx FXProvider, premiumPercent, gstPercent float64) *RetailConverter {
	return &RetailConverter{
		fx:             fx,
		premiumPercent: decimal.NewFromFloat(premiumPercent),
		gstPercent:     decimal.NewFromFloat(gstPercent),
	}
}

// Quote converts a USD/oz spot price into a retail INR/10g quote.
func (c *RetailConverter) Quote(ctx context.Context, spotUSD float64) (*RetailQuote, error) {
	if spotUSD <= 0 {
		return nil, fmt.Errorf("spot price must be positive, got %.4f", spotUSD)
	}

	rate, err := c.fx.USDToINR(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get USD/INR rate: %w", err)
	}

	spot := decimal.NewFromFloat(spotUSD)
	inrRate := decimal.NewFromFloat(rate)

	// USD/oz -> INR/gram -> INR/10g
	base := spot.Mul(inrRate).Div(gramsPerTroyOunce).Mul(ten)

	withPremium := base.Mul(hundred.Add(c.premiumPercent)).Div(hundred)
	retail := withPremium.Mul(hundred.Add(c.gstPercent)).Div(hundred)

	return &RetailQuote{
		SpotUSDPerOunce: spot.Round(2),
		USDToINR:        inrRate.Round(4),
		BaseINRPer10g:   base.Round(2),
		PremiumPercent:  c.premiumPercent,
		GSTPercent:      c.gstPercent,
		RetailINRPer10g: retail.Round(2),
	}, nil
}
