package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnits is the decimal precision per currency. Stablecoins carry
// six places; fiat follows ISO 4217.
var minorUnits = map[string]int32{
	"NGN":  2,
	"KES":  2,
	"GHS":  2,
	"UGX":  0,
	"TZS":  2,
	"USD":  2,
	"USDT": 6,
	"USDC": 6,
}

// MinorUnits returns the decimal precision for a currency, defaulting
// to two places for anything unlisted.
func MinorUnits(currency string) int32 {
	if units, ok := minorUnits[strings.ToUpper(currency)]; ok {
		return units
	}
	return 2
}

// RoundToMinorUnits rounds an amount to the currency's precision using
// round-half-even, so conversion output never invents value.
func RoundToMinorUnits(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.RoundBank(MinorUnits(currency))
}
