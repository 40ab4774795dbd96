package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentIntentStatus is the lifecycle state of a payment intent.
// Transitions only move forward: initiated -> pending -> confirmed|failed.
type PaymentIntentStatus string

const (
	PaymentStatusInitiated PaymentIntentStatus = "initiated"
	PaymentStatusPending   PaymentIntentStatus = "pending"
	PaymentStatusConfirmed PaymentIntentStatus = "confirmed"
	PaymentStatusFailed    PaymentIntentStatus = "failed"
)

// forward transitions only; terminal states have no exits here. The
// operator reopen path (failed -> pending) is a separate administrative
// action and deliberately not part of this table.
var paymentStatusTransitions = map[PaymentIntentStatus][]PaymentIntentStatus{
	PaymentStatusInitiated: {PaymentStatusPending, PaymentStatusFailed},
	PaymentStatusPending:   {PaymentStatusConfirmed, PaymentStatusFailed},
	PaymentStatusConfirmed: {},
	PaymentStatusFailed:    {},
}

// Valid reports whether s is a known status value.
func (s PaymentIntentStatus) Valid() bool {
	_, ok := paymentStatusTransitions[s]
	return ok
}

// IsTerminal reports whether s has no legal exits.
func (s PaymentIntentStatus) IsTerminal() bool {
	return s == PaymentStatusConfirmed || s == PaymentStatusFailed
}

// CanTransitionTo reports whether s -> next is a legal forward move.
func (s PaymentIntentStatus) CanTransitionTo(next PaymentIntentStatus) bool {
	for _, allowed := range paymentStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentIntent tracks one inbound mobile-money payment request from
// creation through the gateway round trip to its terminal state.
type PaymentIntent struct {
	ID          string              `gorm:"primarykey;size:64" json:"id"`
	UserID      *uint               `gorm:"index" json:"user_id,omitempty"`
	Amount      decimal.Decimal     `gorm:"type:numeric(24,8);not null" json:"amount"`
	Currency    string              `gorm:"not null;size:8" json:"currency"`
	Country     string              `gorm:"not null;size:2" json:"country"`
	Provider    string              `gorm:"not null;size:32" json:"provider"`
	PhoneNumber string              `gorm:"not null;size:20" json:"phone_number"`
	Status      PaymentIntentStatus `gorm:"not null;default:'initiated';size:16" json:"status"`
	TxHash      *string             `gorm:"index;size:128" json:"tx_hash,omitempty"`
	Reference   string              `gorm:"index;size:64" json:"reference"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
