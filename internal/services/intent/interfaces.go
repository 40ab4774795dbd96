package intent

import (
	"context"

	"github.com/shopspring/decimal"

	"kobopay/internal/models"
)

// Service tracks payment intents through their forward-only lifecycle.
type Service interface {
	// CreateIntent validates the request against the per-country
	// tables and persists a new intent with status initiated. Nothing
	// is persisted on validation failure.
	CreateIntent(ctx context.Context, req CreateRequest) (*models.PaymentIntent, error)

	// RecordGatewayResult is the only legal exit from initiated:
	// accepted -> pending (storing the provider tx hash), rejected ->
	// failed.
	RecordGatewayResult(ctx context.Context, id string, accepted bool, txHash string) (*models.PaymentIntent, error)

	GetStatus(ctx context.Context, id string) (*models.PaymentIntent, error)

	// UpdateStatus enforces the forward-only state machine. Re-setting
	// an intent to its current value is a no-op; any other transition
	// out of a terminal state is a conflict.
	UpdateStatus(ctx context.Context, id string, status models.PaymentIntentStatus, txHash string) (*models.PaymentIntent, error)

	// Reopen is the logged administrative retry path: failed -> pending.
	Reopen(ctx context.Context, id string) (*models.PaymentIntent, error)

	// FindForWebhook locates an intent by provider tx hash, intent id
	// or reference.
	FindForWebhook(ctx context.Context, key string) (*models.PaymentIntent, error)
}

// CreateRequest is a new payment intent. UserID is nil for anonymous
// inbound payments.
type CreateRequest struct {
	Phone    string
	Amount   decimal.Decimal
	Country  string
	Provider string
	Currency string
	UserID   *uint
}
