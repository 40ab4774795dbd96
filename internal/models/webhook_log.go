package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WebhookLog is the append-only audit trail of inbound gateway
// notifications. One row per delivery that passed signature
// verification, including duplicates and deliveries for unknown
// intents (PaymentIntentID then carries the claimed reference).
type WebhookLog struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	PaymentIntentID string    `gorm:"index;size:64" json:"payment_intent_id"`
	WebhookType     string    `gorm:"size:32" json:"webhook_type"`
	Status          string    `gorm:"size:32" json:"status"` // raw provider value, unmapped
	Payload         JSON      `gorm:"type:jsonb" json:"payload"`
	WalletCredited  bool      `gorm:"not null;default:false" json:"wallet_credited"`
	WalletID        *uint     `json:"wallet_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// WalletCredit is the idempotency ledger for webhook-triggered
// credits. The unique index on PaymentIntentID makes the
// check-then-credit sequence a single atomic insert: a conflicting
// insert means the intent was already credited.
type WalletCredit struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	PaymentIntentID string          `gorm:"uniqueIndex;not null;size:64" json:"payment_intent_id"`
	WalletID        uint            `gorm:"not null" json:"wallet_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(24,8);not null" json:"amount"`
	Currency        string          `gorm:"not null;size:8" json:"currency"`
	CreatedAt       time.Time       `json:"created_at"`
}
