package webhook

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kobopay/internal/errors"
	"kobopay/internal/models"
	"kobopay/internal/services/intent"
	"kobopay/internal/services/ledger"
)

const testSecret = "whsec_test"

type MockIntentService struct {
	mock.Mock
}

func (m *MockIntentService) CreateIntent(ctx context.Context, req intent.CreateRequest) (*models.PaymentIntent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockIntentService) RecordGatewayResult(ctx context.Context, id string, accepted bool, txHash string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, id, accepted, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockIntentService) GetStatus(ctx context.Context, id string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockIntentService) UpdateStatus(ctx context.Context, id string, status models.PaymentIntentStatus, txHash string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, id, status, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockIntentService) Reopen(ctx context.Context, id string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockIntentService) FindForWebhook(ctx context.Context, key string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetOrCreateWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockLedgerService) AddFunds(ctx context.Context, req ledger.FundsRequest) (*models.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockLedgerService) CreditOnce(ctx context.Context, paymentIntentID string, req ledger.FundsRequest) (*models.Transaction, bool, error) {
	args := m.Called(ctx, paymentIntentID, req)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Transaction), args.Bool(1), args.Error(2)
}

func (m *MockLedgerService) DeductFunds(ctx context.Context, req ledger.FundsRequest) (*models.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockLedgerService) LockFunds(ctx context.Context, userID uint, currency string, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, userID, currency, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerService) UnlockFunds(ctx context.Context, userID uint, currency string, amount decimal.Decimal, releaseToBalance bool) error {
	args := m.Called(ctx, userID, currency, amount, releaseToBalance)
	return args.Error(0)
}

func (m *MockLedgerService) TransferFunds(ctx context.Context, req ledger.TransferRequest) (*ledger.TransferResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransferResult), args.Error(1)
}

func (m *MockLedgerService) ConvertCurrency(ctx context.Context, req ledger.ConvertRequest) (*ledger.ConversionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ConversionResult), args.Error(1)
}

func (m *MockLedgerService) GetBalances(ctx context.Context, userID uint) ([]ledger.BalanceSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.BalanceSnapshot), args.Error(1)
}

func (m *MockLedgerService) GetTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockLedgerService) ReclaimStaleLocks(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockWebhookRepo struct {
	mock.Mock
}

func (m *MockWebhookRepo) CreateLog(ctx context.Context, entry *models.WebhookLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockWebhookRepo) LogsByIntent(ctx context.Context, intentID string) ([]models.WebhookLog, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WebhookLog), args.Error(1)
}

func signedDelivery(t *testing.T, body string) (raw []byte, signature, timestamp string) {
	t.Helper()
	raw = []byte(body)
	timestamp = fmt.Sprintf("%d", time.Now().Unix())
	signature = Sign(testSecret, timestamp, raw)
	return raw, signature, timestamp
}

func pendingIntent() *models.PaymentIntent {
	userID := uint(7)
	hash := "mtn-abc123"
	return &models.PaymentIntent{
		ID:       "KP-1",
		UserID:   &userID,
		Amount:   decimal.RequireFromString("1500"),
		Currency: "NGN",
		Country:  "NG",
		Provider: "MTN_MOMO",
		Status:   models.PaymentStatusPending,
		TxHash:   &hash,
	}
}

func TestProcessRejectsBadSignature(t *testing.T) {
	intents := new(MockIntentService)
	wallets := new(MockLedgerService)
	repo := new(MockWebhookRepo)
	s := NewService(testSecret, intents, wallets, repo)

	raw := []byte(`{"tx_hash":"mtn-abc123","status":"completed"}`)

	_, err := s.Process(context.Background(), raw, "deadbeef", "1700000000")
	assert.ErrorIs(t, err, errors.ErrInvalidSignature)

	intents.AssertNotCalled(t, "FindForWebhook", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "CreateLog", mock.Anything, mock.Anything)
}

func TestProcessRejectsMalformedPayload(t *testing.T) {
	intents := new(MockIntentService)
	wallets := new(MockLedgerService)
	repo := new(MockWebhookRepo)
	s := NewService(testSecret, intents, wallets, repo)

	raw, sig, ts := signedDelivery(t, `not json`)

	_, err := s.Process(context.Background(), raw, sig, ts)
	var vErr *errors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestProcessConfirmedCreditsWallet(t *testing.T) {
	intents := new(MockIntentService)
	wallets := new(MockLedgerService)
	repo := new(MockWebhookRepo)
	s := NewService(testSecret, intents, wallets, repo)

	pi := pendingIntent()
	confirmed := *pi
	confirmed.Status = models.PaymentStatusConfirmed

	raw, sig, ts := signedDelivery(t, `{"event":"charge.completed","tx_hash":"mtn-abc123","status":"completed"}`)

	intents.On("FindForWebhook", mock.Anything, "mtn-abc123").Return(pi, nil)
	intents.On("UpdateStatus", mock.Anything, "KP-1", models.PaymentStatusConfirmed, "mtn-abc123").
		Return(&confirmed, nil)
	wallets.On("CreditOnce", mock.Anything, "KP-1", mock.MatchedBy(func(req ledger.FundsRequest) bool {
		return req.UserID == 7 && req.Currency == "NGN" &&
			req.Amount.Equal(decimal.RequireFromString("1500")) &&
			req.Reference == "KP-1"
	})).Return(&models.Transaction{ID: "tx-1", WalletID: 11}, true, nil)
	repo.On("CreateLog", mock.Anything, mock.MatchedBy(func(e *models.WebhookLog) bool {
		return e.PaymentIntentID == "KP-1" && e.WalletCredited && e.WalletID != nil && *e.WalletID == 11
	})).Return(nil)

	result, err := s.Process(context.Background(), raw, sig, ts)
	require.NoError(t, err)
	assert.True(t, result.WalletCredited)
	assert.Equal(t, models.PaymentStatusConfirmed, result.MappedStatus)
	assert.Equal(t, "KP-1", result.PaymentID)

	intents.AssertExpectations(t)
	wallets.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestProcessDuplicateDeliveryCreditsOnce(t *testing.T) {
	intents := new(MockIntentService)
	wallets := new(MockLedgerService)
	repo := new(MockWebhookRepo)
	s := NewService(testSecret, intents, wallets, repo)

	pi := pendingIntent()
	pi.Status = models.PaymentStatusConfirmed

	raw, sig, ts := signedDelivery(t, `{"tx_hash":"mtn-abc123","status":"completed"}`)

	intents.On("FindForWebhook", mock.Anything, "mtn-abc123").Return(pi, nil)
	intents.On("UpdateStatus", mock.Anything, "KP-1", models.PaymentStatusConfirmed, "mtn-abc123").
		Return(pi, nil)
	wallets.On("CreditOnce", mock.Anything, "KP-1", mock.Anything).Return(nil, false, nil)
	repo.On("CreateLog", mock.Anything, mock.MatchedBy(func(e *models.WebhookLog) bool {
		return !e.WalletCredited
	})).Return(nil)

	result, err := s.Process(context.Background(), raw, sig, ts)
	require.NoError(t, err)
	assert.False(t, result.WalletCredited)

	wallets.AssertNumberOfCalls(t, "CreditOnce", 1)
}

func TestProcessRetriesCreditAfterStorageFailure(t *testing.T) {
	intents := new(MockIntentService)
	wallets := new(MockLedgerService)
	repo := new(MockWebhookRepo)
	s := NewService(testSecret, intents, wallets, repo)

	pi := pendingIntent()
	confirmed := *pi
	confirmed.Status = models.PaymentStatusConfirmed

	raw, sig, ts := signedDelivery(t, `{"tx_hash":"mtn-abc123","status":"completed"}`)

	intents.On("FindForWebhook", mock.Anything, "mtn-abc123").Return(pi, nil)
	intents.On("UpdateStatus", mock.Anything, "KP-1", models.PaymentStatusConfirmed, "mtn-abc123").
		Return(&confirmed, nil)
	// Failed credit rolls the gate back, so the gateway's retry of the
	// same delivery still funds the wallet.
	wallets.On("CreditOnce", mock.Anything, "KP-1", mock.Anything).
		Return(nil, false, fmt.Errorf("connection reset")).Once()
	wallets.On("CreditOnce", mock.Anything, "KP-1", mock.Anything).
		Return(&models.Transaction{ID: "tx-1", WalletID: 11}, true, nil).Once()
	repo.On("CreateLog", mock.Anything, mock.Anything).Return(nil)

	_, err := s.Process(context.Background(), raw, sig, ts)
	require.Error(t, err)

	result, err := s.Process(context.Background(), raw, sig, ts)
	require.NoError(t, err)
	assert.True(t, result.WalletCredited)
}

func TestProcessPendingStatusDoesNotCredit(t *testing.T) {
	intents := new(MockIntentService)
	wallets := new(MockLedgerService)
	repo := new(MockWebhookRepo)
	s := NewService(testSecret, intents, wallets, repo)

	pi := pendingIntent()
	pi.Status = models.PaymentStatusInitiated

	raw, sig, ts := signedDelivery(t, `{"tx_hash":"mtn-abc123","status":"processing"}`)

	updated := *pi
	updated.Status = models.PaymentStatusPending
	intents.On("FindForWebhook", mock.Anything, "mtn-abc123").Return(pi, nil)
	intents.On("UpdateStatus", mock.Anything, "KP-1", models.PaymentStatusPending, "mtn-abc123").
		Return(&updated, nil)
	repo.On("CreateLog", mock.Anything, mock.Anything).Return(nil)

	result, err := s.Process(context.Background(), raw, sig, ts)
	require.NoError(t, err)
	assert.False(t, result.WalletCredited)
	assert.Equal(t, models.PaymentStatusPending, result.MappedStatus)

	wallets.AssertNotCalled(t, "CreditOnce", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessUnknownStatusFailsClosed(t *testing.T) {
	intents := new(MockIntentService)
	wallets := new(MockLedgerService)
	repo := new(MockWebhookRepo)
	s := NewService(testSecret, intents, wallets, repo)

	pi := pendingIntent()

	raw, sig, ts := signedDelivery(t, `{"tx_hash":"mtn-abc123","status":"on_hold"}`)

	failed := *pi
	failed.Status = models.PaymentStatusFailed
	intents.On("FindForWebhook", mock.Anything, "mtn-abc123").Return(pi, nil)
	intents.On("UpdateStatus", mock.Anything, "KP-1", models.PaymentStatusFailed, "mtn-abc123").
		Return(&failed, nil)
	repo.On("CreateLog", mock.Anything, mock.Anything).Return(nil)

	result, err := s.Process(context.Background(), raw, sig, ts)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, result.MappedStatus)
	assert.False(t, result.WalletCredited)

	wallets.AssertNotCalled(t, "CreditOnce", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessRejectionAfterConfirmIsAcknowledged(t *testing.T) {
	intents := new(MockIntentService)
	wallets := new(MockLedgerService)
	repo := new(MockWebhookRepo)
	s := NewService(testSecret, intents, wallets, repo)

	pi := pendingIntent()
	pi.Status = models.PaymentStatusConfirmed

	raw, sig, ts := signedDelivery(t, `{"tx_hash":"mtn-abc123","status":"rejected"}`)

	intents.On("FindForWebhook", mock.Anything, "mtn-abc123").Return(pi, nil)
	intents.On("UpdateStatus", mock.Anything, "KP-1", models.PaymentStatusFailed, "mtn-abc123").
		Return(nil, fmt.Errorf("%w: confirmed -> failed", errors.ErrInvalidTransition))
	repo.On("CreateLog", mock.Anything, mock.Anything).Return(nil)

	result, err := s.Process(context.Background(), raw, sig, ts)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusConfirmed, result.MappedStatus)
	assert.False(t, result.WalletCredited)

	wallets.AssertNotCalled(t, "CreditOnce", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessUnknownIntentIsAudited(t *testing.T) {
	intents := new(MockIntentService)
	wallets := new(MockLedgerService)
	repo := new(MockWebhookRepo)
	s := NewService(testSecret, intents, wallets, repo)

	raw, sig, ts := signedDelivery(t, `{"tx_hash":"bogus-hash","status":"completed"}`)

	intents.On("FindForWebhook", mock.Anything, "bogus-hash").
		Return(nil, errors.ErrIntentNotFound)
	repo.On("CreateLog", mock.Anything, mock.MatchedBy(func(e *models.WebhookLog) bool {
		return e.PaymentIntentID == "bogus-hash" && !e.WalletCredited
	})).Return(nil)

	_, err := s.Process(context.Background(), raw, sig, ts)
	assert.ErrorIs(t, err, errors.ErrIntentNotFound)
	repo.AssertExpectations(t)
}

func TestProcessMissingLocator(t *testing.T) {
	intents := new(MockIntentService)
	wallets := new(MockLedgerService)
	repo := new(MockWebhookRepo)
	s := NewService(testSecret, intents, wallets, repo)

	raw, sig, ts := signedDelivery(t, `{"event":"charge.completed","status":"completed"}`)

	_, err := s.Process(context.Background(), raw, sig, ts)
	var vErr *errors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "payload", vErr.Field)
}
