package validation

import (
	"github.com/shopspring/decimal"

	"kobopay/internal/errors"
)

// MaxTransactionAmount caps a single payment intent, in the intent's
// own currency minor units.
var MaxTransactionAmount = decimal.NewFromInt(10_000_000)

// ValidateAmount enforces 0 < amount <= MaxTransactionAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.NewValidationError("amount", "amount must be greater than zero")
	}
	if amount.GreaterThan(MaxTransactionAmount) {
		return errors.NewValidationError("amount", "amount exceeds maximum transaction limit")
	}
	return nil
}
