package ledger

import (
	"context"

	"kobopay/internal/models"
)

// NoopCache satisfies Cache where no Redis is wired, e.g. in tests.
type NoopCache struct{}

func (NoopCache) GetWallet(context.Context, uint, string) (*models.Wallet, bool, error) {
	return nil, false, nil
}

func (NoopCache) CacheWallet(context.Context, *models.Wallet) error { return nil }

func (NoopCache) InvalidateWallet(context.Context, uint, string) error { return nil }
