package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"kobopay/internal/models"
)

// Service is the wallet ledger engine. Every balance mutation in the
// system goes through one of these methods; each pairs the mutation
// with exactly one journal row inside a single database transaction.
type Service interface {
	GetOrCreateWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error)

	AddFunds(ctx context.Context, req FundsRequest) (*models.Transaction, error)
	DeductFunds(ctx context.Context, req FundsRequest) (*models.Transaction, error)

	// CreditOnce is the at-most-once deposit for a payment intent. The
	// gate insert into the credit ledger and the balance credit commit
	// or roll back together, so a failed credit releases the gate and a
	// skipped duplicate always means the wallet was really funded.
	// False with a nil error means the intent was already credited.
	CreditOnce(ctx context.Context, paymentIntentID string, req FundsRequest) (*models.Transaction, bool, error)

	// LockFunds reserves part of the available balance. It is a
	// reservation, not a ledger event, so no journal row is written.
	LockFunds(ctx context.Context, userID uint, currency string, amount decimal.Decimal) (bool, error)

	// UnlockFunds releases a reservation. With releaseToBalance the
	// funds become spendable again; without it the amount was consumed
	// through a separate journaled debit and the balance is untouched
	// either way.
	UnlockFunds(ctx context.Context, userID uint, currency string, amount decimal.Decimal, releaseToBalance bool) error

	TransferFunds(ctx context.Context, req TransferRequest) (*TransferResult, error)
	ConvertCurrency(ctx context.Context, req ConvertRequest) (*ConversionResult, error)

	GetBalances(ctx context.Context, userID uint) ([]BalanceSnapshot, error)
	GetTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error)

	// ReclaimStaleLocks zeroes reservations older than the timeout.
	// Safety net for lock holders that died before unlocking.
	ReclaimStaleLocks(ctx context.Context) (int64, error)
}

// FundsRequest describes a single-wallet credit or debit.
type FundsRequest struct {
	UserID      uint
	Currency    string
	Amount      decimal.Decimal
	Description string
	Reference   string
	Metadata    models.JSON
}

// TransferRequest moves funds between two users in one currency.
type TransferRequest struct {
	FromUserID  uint
	ToUserID    uint
	Currency    string
	Amount      decimal.Decimal
	Description string
}

// TransferResult carries the two journal legs sharing one reference.
type TransferResult struct {
	Reference string
	Debit     *models.Transaction
	Credit    *models.Transaction
}

// ConvertRequest exchanges amount of FromCurrency into ToCurrency at
// the given rate.
type ConvertRequest struct {
	UserID       uint
	FromCurrency string
	ToCurrency   string
	Amount       decimal.Decimal
	Rate         decimal.Decimal
}

// ConversionResult carries both conversion legs; AmountOut is the
// credited amount after minor-unit rounding.
type ConversionResult struct {
	Reference string
	AmountOut decimal.Decimal
	Debit     *models.Transaction
	Credit    *models.Transaction
}

// BalanceSnapshot is a read-model row for one of a user's wallets.
type BalanceSnapshot struct {
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	LockedBalance decimal.Decimal `json:"locked_balance"`
	Available     decimal.Decimal `json:"available"`
}

// Cache is the subset of the wallet cache the engine needs; mutation
// paths only ever invalidate.
type Cache interface {
	GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, bool, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userID uint, currency string) error
}
