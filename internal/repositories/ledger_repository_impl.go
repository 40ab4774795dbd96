package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kobopay/internal/models"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) UpsertWallet(ctx context.Context, userID uint, currency string) error {
	wallet := &models.Wallet{
		UserID:   userID,
		Currency: currency,
		IsActive: true,
	}
	// Concurrent first access races on the unique (user_id, currency)
	// index; DoNothing makes the loser a no-op instead of an error.
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "currency"}},
		DoNothing: true,
	}).Create(wallet).Error
	if err != nil {
		return fmt.Errorf("failed to upsert wallet: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND currency = ?", userID, currency).
		First(&wallet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) GetWalletForUpdate(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND currency = ?", userID, currency).
		First(&wallet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet row: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) GetWalletsByUser(ctx context.Context, userID uint) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("currency ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}

func (r *ledgerRepository) UpdateBalance(ctx context.Context, walletID uint, from, to decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND balance = ?", walletID, from).
		Update("balance", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update balance: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *ledgerRepository) LockAmount(ctx context.Context, userID uint, currency string, amount decimal.Decimal) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND currency = ? AND is_active AND balance - locked_balance >= ?", userID, currency, amount).
		Updates(map[string]interface{}{
			"locked_balance": gorm.Expr("locked_balance + ?", amount),
			"locked_at":      now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to lock funds: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *ledgerRepository) UnlockAmount(ctx context.Context, userID uint, currency string, amount decimal.Decimal) (bool, error) {
	// Only the reservation moves here. When the locked amount was spent
	// the caller journals that spend through a separate debit; the
	// balance column is never touched without a journal row.
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND currency = ? AND locked_balance >= ?", userID, currency, amount).
		Update("locked_balance", gorm.Expr("locked_balance - ?", amount))
	if result.Error != nil {
		return false, fmt.Errorf("failed to unlock funds: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *ledgerRepository) ReclaimStaleLocks(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("locked_balance > 0 AND locked_at < ?", cutoff).
		Updates(map[string]interface{}{
			"locked_balance": decimal.Zero,
			"locked_at":      nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reclaim stale locks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (r *ledgerRepository) InsertCredit(ctx context.Context, credit *models.WalletCredit) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_intent_id"}},
		DoNothing: true,
	}).Create(credit)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert wallet credit: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}
