package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the outbound boundary to the mobile-money network. The
// network's settlement internals are opaque; the adapter only initiates
// charges and reports whether the network accepted them.
type Gateway interface {
	InitiateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// ChargeRequest asks the network to collect from a subscriber.
type ChargeRequest struct {
	IntentID    string          `json:"intent_id"`
	PhoneNumber string          `json:"phone_number"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Country     string          `json:"country"`
	Provider    string          `json:"provider"`
	Reference   string          `json:"reference"`
}

// ChargeResult is the network's synchronous answer. Accepted means
// the charge is pending subscriber approval; the terminal outcome
// arrives later by webhook.
type ChargeResult struct {
	Accepted     bool   `json:"accepted"`
	TxHash       string `json:"tx_hash"`
	Reference    string `json:"reference"`
	RedirectURL  string `json:"redirect_url,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Message      string `json:"message,omitempty"`
}
