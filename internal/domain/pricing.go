package domain

import "math"

// Per-unit prices in BRL. Bundles are cheaper per unit because the
// marketplace takes its cut from the bundle price, not from us.
const (
	CurrencyRate = 0.0478
	BundleRate   = 0.04
)

// marketplaceCut is the share the game marketplace keeps on bundle sales.
const marketplaceCut = 0.3

// Rate returns the per-unit BRL price for a product kind.
func Rate(kind ProductKind) float64 {
	if kind == KindBundle {
		return BundleRate
	}
	return CurrencyRate
}

// Price computes the BRL price for quantity units of kind, rounded to
// 2 decimal places. Full precision is quantity*rate; rounding happens here
// once so every display and settlement path agrees on the amount.
func Price(kind ProductKind, quantity float64) float64 {
	return Round2(quantity * Rate(kind))
}

// BundleQuantity converts a desired currency amount into the bundle size the
// buyer must list so that the marketplace cut still nets the full amount.
func BundleQuantity(currencyAmount float64) int {
	return int(math.Round(currencyAmount / (1 - marketplaceCut)))
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
