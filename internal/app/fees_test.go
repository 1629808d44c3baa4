package app

import (
	"testing"

	"github.com/paylink/payments-service/internal/domain"
)

func newTestFeeEngine() *FeeEngine {
	return NewFeeEngine(83.33, 5700, 500000)
}

func TestComputeFeeTierBoundaries(t *testing.T) {
	engine := newTestFeeEngine()

	tests := []struct {
		name        string
		amount      int64
		currency    domain.Currency
		wantTier    domain.FeeTier
		wantFee     int64
		wantInvoice bool
	}{
		{
			name:     "small usd amount is free",
			amount:   300,
			currency: domain.CurrencyUSD,
			wantTier: domain.TierFree,
			wantFee:  0,
		},
		{
			name:     "free tier upper bound inclusive",
			amount:   500,
			currency: domain.CurrencyUSD,
			wantTier: domain.TierFree,
			wantFee:  0,
		},
		{
			name:     "one cent above free boundary pays micro fee",
			amount:   501,
			currency: domain.CurrencyUSD,
			wantTier: domain.TierMicro,
			wantFee:  3, // 2.505 rounds half-up
		},
		{
			name:     "micro tier upper bound inclusive",
			amount:   5600,
			currency: domain.CurrencyUSD,
			wantTier: domain.TierMicro,
			wantFee:  28,
		},
		{
			name:        "business tier above micro boundary",
			amount:      10000,
			currency:    domain.CurrencyUSD,
			wantTier:    domain.TierBusiness,
			wantFee:     150,
			wantInvoice: true,
		},
		{
			name:        "invoice threshold exactly met",
			amount:      5700,
			currency:    domain.CurrencyUSD,
			wantTier:    domain.TierBusiness,
			wantFee:     86, // 85.5 rounds half-up
			wantInvoice: true,
		},
		{
			name:     "one cent below invoice threshold",
			amount:   5699,
			currency: domain.CurrencyUSD,
			wantTier: domain.TierBusiness,
			wantFee:  85, // 85.485 rounds down
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := engine.ComputeFee(tt.amount, tt.currency)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if quote.Tier != tt.wantTier {
				t.Fatalf("expected tier %q, got %q", tt.wantTier, quote.Tier)
			}
			if quote.Fee != tt.wantFee {
				t.Fatalf("expected fee %d, got %d", tt.wantFee, quote.Fee)
			}
			if quote.InvoiceRequired != tt.wantInvoice {
				t.Fatalf("expected invoice=%t, got %t", tt.wantInvoice, quote.InvoiceRequired)
			}
		})
	}
}

func TestComputeFeeINRNormalization(t *testing.T) {
	engine := newTestFeeEngine()

	tests := []struct {
		name        string
		amount      int64
		wantTier    domain.FeeTier
		wantFee     int64
		wantInvoice bool
	}{
		{
			// 41665 paise / 83.33 = 500.00 cents, still free.
			name:     "inr amount at free tier boundary after conversion",
			amount:   41665,
			wantTier: domain.TierFree,
			wantFee:  0,
		},
		{
			// 100000 paise ~ 1200 cents normalized, micro tier; fee on
			// the original paise amount: 0.5% of 100000 = 500 paise.
			name:     "inr micro tier fee computed on paise",
			amount:   100000,
			wantTier: domain.TierMicro,
			wantFee:  500,
		},
		{
			// 500000 paise ~ 6000 cents normalized, business tier and
			// exactly at the INR invoice threshold.
			name:        "inr invoice threshold independent of usd threshold",
			amount:      500000,
			wantTier:    domain.TierBusiness,
			wantFee:     7500,
			wantInvoice: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := engine.ComputeFee(tt.amount, domain.CurrencyINR)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if quote.Tier != tt.wantTier {
				t.Fatalf("expected tier %q, got %q", tt.wantTier, quote.Tier)
			}
			if quote.Fee != tt.wantFee {
				t.Fatalf("expected fee %d, got %d", tt.wantFee, quote.Fee)
			}
			if quote.InvoiceRequired != tt.wantInvoice {
				t.Fatalf("expected invoice=%t, got %t", tt.wantInvoice, quote.InvoiceRequired)
			}
		})
	}
}

func TestComputeFeeRejectsBadInput(t *testing.T) {
	engine := newTestFeeEngine()

	if _, err := engine.ComputeFee(0, domain.CurrencyUSD); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := engine.ComputeFee(-100, domain.CurrencyUSD); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if _, err := engine.ComputeFee(1000, domain.Currency("EUR")); err == nil {
		t.Fatal("expected error for unsupported currency")
	}
}
