package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kobopay/internal/models"
)

func TestSignVerifyRoundtrip(t *testing.T) {
	payload := []byte(`{"tx_hash":"mtn-abc123","status":"completed"}`)
	sig := Sign("secret", "1700000000", payload)

	assert.True(t, VerifySignature("secret", sig, "1700000000", payload))
	assert.True(t, VerifySignature("secret", " "+sig+" ", "1700000000", payload), "header whitespace is tolerated")
}

func TestVerifySignatureRejects(t *testing.T) {
	payload := []byte(`{"status":"completed"}`)
	sig := Sign("secret", "1700000000", payload)

	tests := []struct {
		name      string
		secret    string
		signature string
		timestamp string
		payload   []byte
	}{
		{"tampered payload", "secret", sig, "1700000000", []byte(`{"status":"failed"}`)},
		{"tampered timestamp", "secret", sig, "1700000001", payload},
		{"wrong secret", "other", sig, "1700000000", payload},
		{"empty signature", "secret", "", "1700000000", payload},
		{"non hex signature", "secret", "not-hex!", "1700000000", payload},
		{"empty secret", "", sig, "1700000000", payload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifySignature(tt.secret, tt.signature, tt.timestamp, tt.payload))
		})
	}
}

func TestMapProviderStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want models.PaymentIntentStatus
	}{
		{"completed", models.PaymentStatusConfirmed},
		{"SUCCESSFUL", models.PaymentStatusConfirmed},
		{" success ", models.PaymentStatusConfirmed},
		{"processing", models.PaymentStatusPending},
		{"accepted", models.PaymentStatusPending},
		{"cancelled", models.PaymentStatusFailed},
		{"expired", models.PaymentStatusFailed},
		{"rejected", models.PaymentStatusFailed},
		{"on_hold", models.PaymentStatusFailed},
		{"", models.PaymentStatusFailed},
	}

	for _, tt := range tests {
		t.Run("maps "+tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, MapProviderStatus(tt.raw))
		})
	}
}
