package intent

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kobopay/internal/errors"
	"kobopay/internal/models"
)

type MockIntentRepo struct {
	mock.Mock
}

func (m *MockIntentRepo) Create(ctx context.Context, intent *models.PaymentIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func (m *MockIntentRepo) GetByID(ctx context.Context, id string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockIntentRepo) FindByTxHashOrID(ctx context.Context, key string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *MockIntentRepo) UpdateStatusFrom(ctx context.Context, id string, from, to models.PaymentIntentStatus, txHash *string) (bool, error) {
	args := m.Called(ctx, id, from, to, txHash)
	return args.Bool(0), args.Error(1)
}

func validCreateRequest() CreateRequest {
	return CreateRequest{
		Phone:    "0701234567",
		Amount:   decimal.RequireFromString("1500"),
		Country:  "NG",
		Provider: "MTN_MOMO",
		Currency: "NGN",
	}
}

func TestCreateIntent(t *testing.T) {
	t.Run("creates initiated intent with normalized phone", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		repo.On("Create", mock.Anything, mock.MatchedBy(func(i *models.PaymentIntent) bool {
			return i.Status == models.PaymentStatusInitiated &&
				i.PhoneNumber == "+234701234567" &&
				i.Country == "NG" &&
				i.Provider == "MTN_MOMO"
		})).Return(nil)

		intent, err := s.CreateIntent(context.Background(), validCreateRequest())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(intent.ID, "KP-"))
		assert.Len(t, intent.Reference, 10)
		assert.Equal(t, models.PaymentStatusInitiated, intent.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects provider not offered in country", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		req := validCreateRequest()
		req.Provider = "MPESA"

		_, err := s.CreateIntent(context.Background(), req)
		var vErr *errors.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "provider", vErr.Field)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed phone", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		req := validCreateRequest()
		req.Phone = "12345"

		_, err := s.CreateIntent(context.Background(), req)
		var vErr *errors.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "phone_number", vErr.Field)
	})

	t.Run("rejects unsupported country", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		req := validCreateRequest()
		req.Country = "FR"

		_, err := s.CreateIntent(context.Background(), req)
		var vErr *errors.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "country", vErr.Field)
	})

	t.Run("rejects zero and oversized amounts", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		req := validCreateRequest()
		req.Amount = decimal.Zero
		_, err := s.CreateIntent(context.Background(), req)
		var vErr *errors.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "amount", vErr.Field)

		req.Amount = decimal.RequireFromString("10000001")
		_, err = s.CreateIntent(context.Background(), req)
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "amount", vErr.Field)
	})

	t.Run("requires currency", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		req := validCreateRequest()
		req.Currency = ""

		_, err := s.CreateIntent(context.Background(), req)
		var vErr *errors.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "currency", vErr.Field)
	})
}

func TestRecordGatewayResult(t *testing.T) {
	t.Run("accepted moves initiated to pending with tx hash", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		hash := "mtn-abc123"
		repo.On("UpdateStatusFrom", mock.Anything, "KP-1", models.PaymentStatusInitiated, models.PaymentStatusPending, &hash).
			Return(true, nil)
		repo.On("GetByID", mock.Anything, "KP-1").
			Return(&models.PaymentIntent{ID: "KP-1", Status: models.PaymentStatusPending, TxHash: &hash}, nil)

		intent, err := s.RecordGatewayResult(context.Background(), "KP-1", true, hash)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, intent.Status)
	})

	t.Run("rejected moves initiated to failed", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		repo.On("UpdateStatusFrom", mock.Anything, "KP-1", models.PaymentStatusInitiated, models.PaymentStatusFailed, (*string)(nil)).
			Return(true, nil)
		repo.On("GetByID", mock.Anything, "KP-1").
			Return(&models.PaymentIntent{ID: "KP-1", Status: models.PaymentStatusFailed}, nil)

		intent, err := s.RecordGatewayResult(context.Background(), "KP-1", false, "")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, intent.Status)
	})

	t.Run("conflicts when intent already left initiated", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		repo.On("UpdateStatusFrom", mock.Anything, "KP-1", models.PaymentStatusInitiated, models.PaymentStatusFailed, (*string)(nil)).
			Return(false, nil)
		repo.On("GetByID", mock.Anything, "KP-1").
			Return(&models.PaymentIntent{ID: "KP-1", Status: models.PaymentStatusConfirmed}, nil)

		_, err := s.RecordGatewayResult(context.Background(), "KP-1", false, "")
		assert.ErrorIs(t, err, errors.ErrInvalidTransition)
	})
}

func TestUpdateStatus(t *testing.T) {
	transitions := []struct {
		name    string
		from    models.PaymentIntentStatus
		to      models.PaymentIntentStatus
		allowed bool
	}{
		{"initiated to pending", models.PaymentStatusInitiated, models.PaymentStatusPending, true},
		{"initiated to failed", models.PaymentStatusInitiated, models.PaymentStatusFailed, true},
		{"initiated to confirmed", models.PaymentStatusInitiated, models.PaymentStatusConfirmed, false},
		{"pending to confirmed", models.PaymentStatusPending, models.PaymentStatusConfirmed, true},
		{"pending to failed", models.PaymentStatusPending, models.PaymentStatusFailed, true},
		{"pending to initiated", models.PaymentStatusPending, models.PaymentStatusInitiated, false},
		{"confirmed to failed", models.PaymentStatusConfirmed, models.PaymentStatusFailed, false},
		{"confirmed to pending", models.PaymentStatusConfirmed, models.PaymentStatusPending, false},
		{"failed to confirmed", models.PaymentStatusFailed, models.PaymentStatusConfirmed, false},
		{"failed to pending", models.PaymentStatusFailed, models.PaymentStatusPending, false},
	}

	for _, tt := range transitions {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockIntentRepo)
			s := NewService(repo)

			repo.On("GetByID", mock.Anything, "KP-1").
				Return(&models.PaymentIntent{ID: "KP-1", Status: tt.from}, nil)
			if tt.allowed {
				repo.On("UpdateStatusFrom", mock.Anything, "KP-1", tt.from, tt.to, (*string)(nil)).
					Return(true, nil)
			}

			_, err := s.UpdateStatus(context.Background(), "KP-1", tt.to, "")
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errors.ErrInvalidTransition)
				repo.AssertNotCalled(t, "UpdateStatusFrom",
					mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}

	t.Run("same non-terminal value is a no-op", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		repo.On("GetByID", mock.Anything, "KP-1").
			Return(&models.PaymentIntent{ID: "KP-1", Status: models.PaymentStatusPending}, nil)

		intent, err := s.UpdateStatus(context.Background(), "KP-1", models.PaymentStatusPending, "")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, intent.Status)
		repo.AssertNotCalled(t, "UpdateStatusFrom",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("terminal same value is a no-op", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		repo.On("GetByID", mock.Anything, "KP-1").
			Return(&models.PaymentIntent{ID: "KP-1", Status: models.PaymentStatusConfirmed}, nil)

		intent, err := s.UpdateStatus(context.Background(), "KP-1", models.PaymentStatusConfirmed, "")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusConfirmed, intent.Status)
		repo.AssertNotCalled(t, "UpdateStatusFrom",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown status value", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		_, err := s.UpdateStatus(context.Background(), "KP-1", models.PaymentIntentStatus("refunded"), "")
		assert.ErrorIs(t, err, errors.ErrInvalidStatus)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("lost race to the same status resolves as no-op", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		pending := &models.PaymentIntent{ID: "KP-1", Status: models.PaymentStatusPending}
		confirmed := &models.PaymentIntent{ID: "KP-1", Status: models.PaymentStatusConfirmed}
		repo.On("GetByID", mock.Anything, "KP-1").Return(pending, nil).Once()
		repo.On("UpdateStatusFrom", mock.Anything, "KP-1", models.PaymentStatusPending, models.PaymentStatusConfirmed, (*string)(nil)).
			Return(false, nil)
		repo.On("GetByID", mock.Anything, "KP-1").Return(confirmed, nil).Once()

		intent, err := s.UpdateStatus(context.Background(), "KP-1", models.PaymentStatusConfirmed, "")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusConfirmed, intent.Status)
	})
}

func TestReopen(t *testing.T) {
	t.Run("moves failed back to pending", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		repo.On("UpdateStatusFrom", mock.Anything, "KP-1", models.PaymentStatusFailed, models.PaymentStatusPending, (*string)(nil)).
			Return(true, nil)
		repo.On("GetByID", mock.Anything, "KP-1").
			Return(&models.PaymentIntent{ID: "KP-1", Status: models.PaymentStatusPending}, nil)

		intent, err := s.Reopen(context.Background(), "KP-1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, intent.Status)
	})

	t.Run("refuses to reopen a confirmed intent", func(t *testing.T) {
		repo := new(MockIntentRepo)
		s := NewService(repo)

		repo.On("UpdateStatusFrom", mock.Anything, "KP-1", models.PaymentStatusFailed, models.PaymentStatusPending, (*string)(nil)).
			Return(false, nil)
		repo.On("GetByID", mock.Anything, "KP-1").
			Return(&models.PaymentIntent{ID: "KP-1", Status: models.PaymentStatusConfirmed}, nil)

		_, err := s.Reopen(context.Background(), "KP-1")
		assert.ErrorIs(t, err, errors.ErrInvalidTransition)
	})
}

func TestFindForWebhook(t *testing.T) {
	repo := new(MockIntentRepo)
	s := NewService(repo)

	hash := "mtn-xyz"
	repo.On("FindByTxHashOrID", mock.Anything, "mtn-xyz").
		Return(&models.PaymentIntent{ID: "KP-1", Status: models.PaymentStatusPending, TxHash: &hash}, nil)

	intent, err := s.FindForWebhook(context.Background(), "mtn-xyz")
	require.NoError(t, err)
	assert.Equal(t, "KP-1", intent.ID)
}
