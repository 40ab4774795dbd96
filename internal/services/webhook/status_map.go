package webhook

import (
	"strings"

	"kobopay/internal/models"
)

// providerStatusMap translates the gateway's free-text status
// vocabulary into the internal state machine. Unlisted values map to
// failed: an unrecognized status must never credit a wallet.
var providerStatusMap = map[string]models.PaymentIntentStatus{
	"completed":  models.PaymentStatusConfirmed,
	"successful": models.PaymentStatusConfirmed,
	"success":    models.PaymentStatusConfirmed,
	"confirmed":  models.PaymentStatusConfirmed,
	"processing": models.PaymentStatusPending,
	"pending":    models.PaymentStatusPending,
	"accepted":   models.PaymentStatusPending,
	"cancelled":  models.PaymentStatusFailed,
	"canceled":   models.PaymentStatusFailed,
	"expired":    models.PaymentStatusFailed,
	"rejected":   models.PaymentStatusFailed,
	"declined":   models.PaymentStatusFailed,
	"failed":     models.PaymentStatusFailed,
}

// MapProviderStatus resolves a raw provider status, fail-closed.
func MapProviderStatus(raw string) models.PaymentIntentStatus {
	if status, ok := providerStatusMap[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return models.PaymentStatusFailed
}
