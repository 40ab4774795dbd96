package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"kobopay/internal/models"
)

var (
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrIntentNotFound   = errors.New("payment intent not found")
	ErrOperatorNotFound = errors.New("operator not found")
)

// LedgerRepository is the storage contract of the wallet ledger
// engine. Balance-touching methods are written as conditional updates
// so a lost update under concurrency shows up as zero rows affected
// instead of a silently wrong balance.
type LedgerRepository interface {
	// Wallet rows
	UpsertWallet(ctx context.Context, userID uint, currency string) error
	GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	GetWalletForUpdate(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	GetWalletsByUser(ctx context.Context, userID uint) ([]models.Wallet, error)

	// Balance mutations. UpdateBalance is a compare-and-swap on the
	// current balance; false means the row moved underneath us.
	UpdateBalance(ctx context.Context, walletID uint, from, to decimal.Decimal) (bool, error)
	LockAmount(ctx context.Context, userID uint, currency string, amount decimal.Decimal) (bool, error)
	UnlockAmount(ctx context.Context, userID uint, currency string, amount decimal.Decimal) (bool, error)
	ReclaimStaleLocks(ctx context.Context, cutoff time.Time) (int64, error)

	// Journal
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error)

	// InsertCredit attempts the insert-or-ignore against the unique
	// payment_intent_id index. False means the intent was already
	// credited. It lives on this repository so the gate insert and the
	// balance credit can share one ExecuteInTransaction unit.
	InsertCredit(ctx context.Context, credit *models.WalletCredit) (bool, error)

	// ExecuteInTransaction runs fn inside one database transaction; the
	// repository passed to fn shares that transaction.
	ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error
}
