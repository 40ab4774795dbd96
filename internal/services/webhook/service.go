// Package webhook implements the inbound gateway notification path:
// verify, locate, map, update, credit, log. Credits are idempotent per
// payment intent via the wallet credit ledger's unique constraint.
package webhook

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"

	"kobopay/internal/errors"
	"kobopay/internal/models"
	"kobopay/internal/repositories"
	"kobopay/internal/services/intent"
	"kobopay/internal/services/ledger"
)

// Service processes signed gateway deliveries.
type Service interface {
	Process(ctx context.Context, rawPayload []byte, signature, timestamp string) (*Result, error)
}

// Result is returned to the gateway after a processed delivery.
type Result struct {
	PaymentID      string                     `json:"payment_id"`
	MappedStatus   models.PaymentIntentStatus `json:"mapped_status"`
	WalletCredited bool                       `json:"wallet_credited"`
}

// payload is the gateway's notification body. Tx hash, reference and
// payment id are alternative intent locators, tried in that order.
type payload struct {
	Event     string `json:"event"`
	TxHash    string `json:"tx_hash"`
	Reference string `json:"reference"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

func (p payload) locator() string {
	if p.TxHash != "" {
		return p.TxHash
	}
	if p.Reference != "" {
		return p.Reference
	}
	return p.PaymentID
}

type service struct {
	secret  string
	intents intent.Service
	wallets ledger.Service
	repo    repositories.WebhookRepository
}

func NewService(secret string, intents intent.Service, wallets ledger.Service, repo repositories.WebhookRepository) Service {
	if intents == nil || wallets == nil || repo == nil {
		panic("intent service, ledger service and webhook repository are required")
	}
	return &service{
		secret:  secret,
		intents: intents,
		wallets: wallets,
		repo:    repo,
	}
}

func (s *service) Process(ctx context.Context, rawPayload []byte, signature, timestamp string) (*Result, error) {
	// Signature first; nothing is touched or logged for forgeries.
	if !VerifySignature(s.secret, signature, timestamp, rawPayload) {
		return nil, errors.ErrInvalidSignature
	}

	var body payload
	if err := json.Unmarshal(rawPayload, &body); err != nil {
		return nil, errors.NewValidationError("payload", "malformed webhook payload")
	}

	key := body.locator()
	if key == "" {
		return nil, errors.NewValidationError("payload", "missing payment reference")
	}

	paymentIntent, err := s.intents.FindForWebhook(ctx, key)
	if err != nil {
		if err == errors.ErrIntentNotFound {
			// Audit the delivery anyway; the gateway retries on its
			// own schedule and an operator may need the trail.
			log.Printf("webhook for unknown payment %q dropped", key)
			s.appendLog(ctx, key, body, rawPayload, false, nil)
		}
		return nil, err
	}

	mapped := MapProviderStatus(body.Status)

	if _, err := s.intents.UpdateStatus(ctx, paymentIntent.ID, mapped, body.TxHash); err != nil {
		// A delivery trying to move a terminal intent elsewhere is
		// acknowledged and ignored so the gateway stops retrying it.
		if stderrors.Is(err, errors.ErrInvalidTransition) && paymentIntent.Status.IsTerminal() {
			log.Printf("webhook status %q ignored for terminal payment %s (%s)", body.Status, paymentIntent.ID, paymentIntent.Status)
			s.appendLog(ctx, paymentIntent.ID, body, rawPayload, false, nil)
			return &Result{
				PaymentID:      paymentIntent.ID,
				MappedStatus:   paymentIntent.Status,
				WalletCredited: false,
			}, nil
		}
		s.appendLog(ctx, paymentIntent.ID, body, rawPayload, false, nil)
		return nil, err
	}

	credited := false
	var walletID *uint
	if mapped == models.PaymentStatusConfirmed && paymentIntent.UserID != nil {
		credited, walletID, err = s.creditOnce(ctx, paymentIntent)
		if err != nil {
			s.appendLog(ctx, paymentIntent.ID, body, rawPayload, false, nil)
			return nil, err
		}
	}

	s.appendLog(ctx, paymentIntent.ID, body, rawPayload, credited, walletID)

	return &Result{
		PaymentID:      paymentIntent.ID,
		MappedStatus:   mapped,
		WalletCredited: credited,
	}, nil
}

// creditOnce funds the wallet for a confirmed intent. The ledger
// engine runs the idempotency-gate insert and the balance credit as
// one transaction, so a duplicate skip always means a committed prior
// credit.
func (s *service) creditOnce(ctx context.Context, paymentIntent *models.PaymentIntent) (bool, *uint, error) {
	txn, credited, err := s.wallets.CreditOnce(ctx, paymentIntent.ID, ledger.FundsRequest{
		UserID:      *paymentIntent.UserID,
		Currency:    paymentIntent.Currency,
		Amount:      paymentIntent.Amount,
		Description: fmt.Sprintf("mobile money deposit via %s", paymentIntent.Provider),
		Reference:   paymentIntent.ID,
	})
	if err != nil {
		return false, nil, err
	}
	if !credited {
		return false, nil, nil
	}
	return true, &txn.WalletID, nil
}

func (s *service) appendLog(ctx context.Context, intentID string, body payload, raw []byte, credited bool, walletID *uint) {
	var rawJSON models.JSON
	if err := json.Unmarshal(raw, &rawJSON); err != nil {
		rawJSON = models.JSON{"raw": string(raw)}
	}
	entry := &models.WebhookLog{
		PaymentIntentID: intentID,
		WebhookType:     body.Event,
		Status:          body.Status,
		Payload:         rawJSON,
		WalletCredited:  credited,
		WalletID:        walletID,
	}
	if err := s.repo.CreateLog(ctx, entry); err != nil {
		log.Printf("failed to persist webhook log for %s: %v", intentID, err)
	}
}
