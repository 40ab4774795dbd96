package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"kobopay/internal/models"
)

// WebhookRepository persists the webhook audit trail. The credit
// idempotency ledger lives on LedgerRepository so the gate and the
// balance credit share one transaction.
type WebhookRepository interface {
	CreateLog(ctx context.Context, entry *models.WebhookLog) error
	LogsByIntent(ctx context.Context, intentID string) ([]models.WebhookLog, error)
}

type webhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

func (r *webhookRepository) CreateLog(ctx context.Context, entry *models.WebhookLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create webhook log: %w", err)
	}
	return nil
}

func (r *webhookRepository) LogsByIntent(ctx context.Context, intentID string) ([]models.WebhookLog, error) {
	var logs []models.WebhookLog
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", intentID).
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook logs: %w", err)
	}
	return logs, nil
}
