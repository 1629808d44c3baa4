/**
 * @description
 * This file implements the tiered fee engine. Given a transfer amount and its
 * currency it returns the fee, the tier the amount falls into, and whether an
 * invoice identifier must be attached.
 *
 * Tier classification happens on the amount normalized to USD with a fixed,
 * configured conversion rate; the fee itself is always computed on the original
 * currency amount. All arithmetic uses shopspring/decimal with round-half-up to
 * the nearest minor unit so repeated fee computations cannot drift.
 */

package app

import (
	"fmt"

	"github.com/paylink/payments-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Tier boundaries in USD minor units (cents), inclusive upper bounds.
const (
	freeTierMaxUSDCents  = 500  // <= $5 is fee-free, subject to the lifetime quota
	microTierMaxUSDCents = 5600 // <= $56 pays the micro fee
)

var (
	microFeeRate    = decimal.NewFromFloat(0.005) // 0.5%
	businessFeeRate = decimal.NewFromFloat(0.015) // 1.5%
)

// FeeQuote is the result of classifying a transfer amount.
type FeeQuote struct {
	Fee             int64 // in minor units of the original currency
	Tier            domain.FeeTier
	InvoiceRequired bool
}

// FeeEngine classifies transfer amounts into fee tiers. It is a pure
// component: it never touches balances or quotas.
type FeeEngine struct {
	inrPerUSD         decimal.Decimal
	invoiceThresholds map[domain.Currency]int64 // in minor units of each currency
}

// NewFeeEngine builds a fee engine from the configured INR-per-USD rate and
// per-currency invoice thresholds (minor units).
func NewFeeEngine(inrPerUSD float64, usdThreshold, inrThreshold int64) *FeeEngine {
	return &FeeEngine{
		inrPerUSD: decimal.NewFromFloat(inrPerUSD),
		invoiceThresholds: map[domain.Currency]int64{
			domain.CurrencyUSD: usdThreshold,
			domain.CurrencyINR: inrThreshold,
		},
	}
}

// ComputeFee returns the fee quote for a positive amount in minor units of the
// given currency. Non-positive amounts are rejected upstream; this is a guard.
func (e *FeeEngine) ComputeFee(amount int64, currency domain.Currency) (FeeQuote, error) {
	if amount <= 0 {
		return FeeQuote{}, fmt.Errorf("fee engine received non-positive amount %d", amount)
	}
	threshold, ok := e.invoiceThresholds[currency]
	if !ok {
		return FeeQuote{}, fmt.Errorf("fee engine received unsupported currency %q", currency)
	}

	original := decimal.NewFromInt(amount)
	normalized := original
	if currency == domain.CurrencyINR {
		// Minor units cancel out: paise per cent equals INR per USD.
		normalized = original.Div(e.inrPerUSD)
	}

	quote := FeeQuote{InvoiceRequired: amount >= threshold}
	switch {
	case normalized.LessThanOrEqual(decimal.NewFromInt(freeTierMaxUSDCents)):
		quote.Tier = domain.TierFree
		quote.Fee = 0
	case normalized.LessThanOrEqual(decimal.NewFromInt(microTierMaxUSDCents)):
		quote.Tier = domain.TierMicro
		quote.Fee = roundToMinorUnit(original.Mul(microFeeRate))
	default:
		quote.Tier = domain.TierBusiness
		quote.Fee = roundToMinorUnit(original.Mul(businessFeeRate))
	}
	return quote, nil
}

// roundToMinorUnit rounds half-up to a whole minor unit. decimal.Round rounds
// half away from zero, which is half-up for the non-negative values here.
func roundToMinorUnit(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
