package price

import (
	"context"
	"testing"
)

type staticFX struct {
	rate float64
}

func (f *staticFX) USDToINR(ctx context.Context) (float64, error) {
	return f.rate, nil
}

func TestRetailConverter_Quote(t *testing.T) {
	conv := NewRetailConverter(&staticFX{rate: 83.0}, 10.0, 3.0)

	quote, err := conv.Quote(context.Background(), 1800)
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	// 1800 * 83 / 31.1034768 * 10 = 48033.07 INR per 10g before markup
	base, _ := quote.BaseINRPer10g.Float64()
	if base < 48000 || base > 48100 {
		t.Errorf("Base INR/10g out of expected range: %.2f", base)
	}

	// premium then GST: base * 1.10 * 1.03
	retail, _ := quote.RetailINRPer10g.Float64()
	want := base * 1.10 * 1.03
	if retail < want-1 || retail > want+1 {
		t.Errorf("Retail INR/10g = %.2f, want ~%.2f", retail, want)
	}

	if retail <= base {
		t.Error("Retail price should exceed base price")
	}
}

func TestRetailConverter_RejectsNonPositiveSpot(t *testing.T) {
	conv := NewRetailConverter(&staticFX{rate: 83.0}, 10.0, 3.0)

	if _, err := conv.Quote(context.Background(), 0); err == nil {
		t.Error("Expected error for zero spot price")
	}
	if _, err := conv.Quote(context.Background(), -100); err == nil {
		t.Error("Expected error for negative spot price")
	}
}
