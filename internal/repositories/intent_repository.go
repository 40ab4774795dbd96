package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"kobopay/internal/models"
)

// IntentRepository persists payment intents. Status changes go through
// UpdateStatusFrom so a transition is only applied against the exact
// state it was decided on.
type IntentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetByID(ctx context.Context, id string) (*models.PaymentIntent, error)
	FindByTxHashOrID(ctx context.Context, key string) (*models.PaymentIntent, error)
	UpdateStatusFrom(ctx context.Context, id string, from, to models.PaymentIntentStatus, txHash *string) (bool, error)
}

type intentRepository struct {
	db *gorm.DB
}

func NewIntentRepository(db *gorm.DB) IntentRepository {
	return &intentRepository{db: db}
}

func (r *intentRepository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		return fmt.Errorf("failed to create payment intent: %w", err)
	}
	return nil
}

func (r *intentRepository) GetByID(ctx context.Context, id string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&intent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	return &intent, nil
}

func (r *intentRepository) FindByTxHashOrID(ctx context.Context, key string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("tx_hash = ? OR id = ? OR reference = ?", key, key, key).
		First(&intent).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("failed to find payment intent: %w", err)
	}
	return &intent, nil
}

// UpdateStatusFrom applies from->to as a conditional update. False
// with no error means the intent was no longer in the expected state.
func (r *intentRepository) UpdateStatusFrom(ctx context.Context, id string, from, to models.PaymentIntentStatus, txHash *string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if txHash != nil {
		updates["tx_hash"] = *txHash
	}
	result := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update payment intent status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
