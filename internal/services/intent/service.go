// Package intent implements the payment intent tracker: creation with
// per-country validation, and the forward-only status machine every
// webhook and admin override runs through.
package intent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"kobopay/internal/errors"
	"kobopay/internal/models"
	"kobopay/internal/repositories"
	"kobopay/internal/validation"
)

type service struct {
	repo repositories.IntentRepository
}

func NewService(repo repositories.IntentRepository) Service {
	if repo == nil {
		panic("intent repository is required")
	}
	return &service{repo: repo}
}

func (s *service) CreateIntent(ctx context.Context, req CreateRequest) (*models.PaymentIntent, error) {
	if err := validation.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if err := validation.ValidatePhone(req.Phone, req.Country); err != nil {
		return nil, err
	}
	if err := validation.ValidateProvider(req.Provider, req.Country); err != nil {
		return nil, err
	}
	if req.Currency == "" {
		return nil, errors.NewValidationError("currency", "currency is required")
	}

	phone, err := validation.NormalizePhone(req.Phone, req.Country)
	if err != nil {
		return nil, err
	}

	intent := &models.PaymentIntent{
		ID:          newIntentID(),
		UserID:      req.UserID,
		Amount:      req.Amount,
		Currency:    strings.ToUpper(req.Currency),
		Country:     strings.ToUpper(req.Country),
		Provider:    strings.ToUpper(strings.TrimSpace(req.Provider)),
		PhoneNumber: phone,
		Status:      models.PaymentStatusInitiated,
		Reference:   newReference(),
	}
	if err := s.repo.Create(ctx, intent); err != nil {
		return nil, err
	}
	return intent, nil
}

func (s *service) RecordGatewayResult(ctx context.Context, id string, accepted bool, txHash string) (*models.PaymentIntent, error) {
	target := models.PaymentStatusFailed
	var hash *string
	if accepted {
		target = models.PaymentStatusPending
		if txHash != "" {
			hash = &txHash
		}
	}

	applied, err := s.repo.UpdateStatusFrom(ctx, id, models.PaymentStatusInitiated, target, hash)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Either the intent is gone or it already left initiated.
		current, err := s.getByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: intent %s is %s, expected initiated", errors.ErrInvalidTransition, id, current.Status)
	}
	return s.getByID(ctx, id)
}

func (s *service) GetStatus(ctx context.Context, id string) (*models.PaymentIntent, error) {
	return s.getByID(ctx, id)
}

func (s *service) UpdateStatus(ctx context.Context, id string, status models.PaymentIntentStatus, txHash string) (*models.PaymentIntent, error) {
	if !status.Valid() {
		return nil, errors.ErrInvalidStatus
	}

	current, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Idempotent re-delivery: re-setting the current value is a no-op,
	// terminal or not, so the gateway never retries a duplicate.
	if current.Status == status {
		return current, nil
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, current.Status, status)
	}

	var hash *string
	if txHash != "" {
		hash = &txHash
	}
	applied, err := s.repo.UpdateStatusFrom(ctx, id, current.Status, status, hash)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent writer moved the intent first; re-evaluate so a
		// duplicate of the same transition stays a no-op.
		latest, err := s.getByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if latest.Status == status {
			return latest, nil
		}
		return nil, fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, latest.Status, status)
	}
	return s.getByID(ctx, id)
}

func (s *service) Reopen(ctx context.Context, id string) (*models.PaymentIntent, error) {
	applied, err := s.repo.UpdateStatusFrom(ctx, id, models.PaymentStatusFailed, models.PaymentStatusPending, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		current, err := s.getByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: cannot reopen intent in state %s", errors.ErrInvalidTransition, current.Status)
	}
	log.Printf("payment intent %s reopened by operator at %s", id, time.Now().UTC().Format(time.RFC3339))
	return s.getByID(ctx, id)
}

func (s *service) FindForWebhook(ctx context.Context, key string) (*models.PaymentIntent, error) {
	intent, err := s.repo.FindByTxHashOrID(ctx, key)
	if err != nil {
		if err == repositories.ErrIntentNotFound {
			return nil, errors.ErrIntentNotFound
		}
		return nil, err
	}
	return intent, nil
}

func (s *service) getByID(ctx context.Context, id string) (*models.PaymentIntent, error) {
	intent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repositories.ErrIntentNotFound {
			return nil, errors.ErrIntentNotFound
		}
		return nil, err
	}
	return intent, nil
}

// newIntentID builds the externally visible transaction id.
func newIntentID() string {
	return fmt.Sprintf("KP-%d-%s", time.Now().Unix(), strings.Split(uuid.NewString(), "-")[0])
}

// newReference is the short human-readable code shown to the payer.
func newReference() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
