package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet holds a per-user, per-currency balance with a reserved
// (locked) sub-balance. One row per (user, currency), created lazily.
// Balances are only ever mutated through the ledger service.
type Wallet struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	UserID        uint            `gorm:"uniqueIndex:idx_wallet_user_currency;not null" json:"user_id"`
	Currency      string          `gorm:"uniqueIndex:idx_wallet_user_currency;not null;size:8" json:"currency"`
	Balance       decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"balance"`
	LockedBalance decimal.Decimal `gorm:"type:numeric(24,8);not null;default:0" json:"locked_balance"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	LockedAt      *time.Time      `json:"locked_at,omitempty"` // last time locked_balance went above zero
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// New wallets always start empty
	w.Balance = decimal.Zero
	w.LockedBalance = decimal.Zero
	return nil
}

// Available is the spendable portion of the balance.
func (w *Wallet) Available() decimal.Decimal {
	return w.Balance.Sub(w.LockedBalance)
}
