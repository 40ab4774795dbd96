package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeDeposit    = "DEPOSIT"
	TransactionTypeWithdrawal = "WITHDRAWAL"
	TransactionTypePurchase   = "PURCHASE"
	TransactionTypeRefund     = "REFUND"
	TransactionTypeConversion = "CONVERSION"
	TransactionTypeTransfer   = "TRANSFER"
)

// Transaction is an immutable journal entry. Every wallet balance
// mutation writes exactly one row with before/after snapshots taken
// inside the same database transaction. Amounts are stored as positive
// magnitudes; the type says which direction the money moved.
type Transaction struct {
	ID            string          `gorm:"primarykey;size:64" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	WalletID      uint            `gorm:"not null" json:"wallet_id"`
	Type          string          `gorm:"not null;size:16" json:"type"`
	Amount        decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"amount"`
	Currency      string          `gorm:"not null;size:8" json:"currency"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"balance_after"`
	Description   string          `json:"description"`
	Reference     string          `gorm:"index;size:64" json:"reference"`
	Metadata      JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
