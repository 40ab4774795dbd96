// Package ledger implements the wallet ledger engine: atomic balance
// mutations over per-user, per-currency wallet rows paired with an
// append-only transaction journal.
package ledger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kobopay/internal/errors"
	"kobopay/internal/models"
	"kobopay/internal/repositories"
)

// DefaultLockTimeout is how long a reservation may sit before the
// sweep reclaims it.
const DefaultLockTimeout = 30 * time.Minute

type service struct {
	repo        repositories.LedgerRepository
	cache       Cache
	metrics     MetricsCollector
	lockTimeout time.Duration
}

// Config tunes the ledger service.
type Config struct {
	LockTimeout time.Duration
}

// NewService creates the ledger engine. Cache and metrics are
// optional; passing nil wires the no-op implementations.
func NewService(repo repositories.LedgerRepository, cache Cache, metrics MetricsCollector, cfg Config) Service {
	if repo == nil {
		panic("ledger repository is required")
	}
	if cache == nil {
		cache = NoopCache{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	return &service{
		repo:        repo,
		cache:       cache,
		metrics:     metrics,
		lockTimeout: cfg.LockTimeout,
	}
}

func (s *service) GetOrCreateWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	currency = strings.ToUpper(currency)

	if wallet, found, _ := s.cache.GetWallet(ctx, userID, currency); found {
		return wallet, nil
	}

	wallet, err := s.repo.GetWallet(ctx, userID, currency)
	if err == repositories.ErrWalletNotFound {
		if err := s.repo.UpsertWallet(ctx, userID, currency); err != nil {
			return nil, err
		}
		wallet, err = s.repo.GetWallet(ctx, userID, currency)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.CacheWallet(ctx, wallet); err != nil {
		log.Printf("failed to cache wallet %d/%s: %v", userID, currency, err)
	}
	return wallet, nil
}

func (s *service) AddFunds(ctx context.Context, req FundsRequest) (*models.Transaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		s.metrics.RecordError("add_funds", errors.ErrInvalidAmount.Code)
		return nil, errors.ErrInvalidAmount
	}
	req.Currency = strings.ToUpper(req.Currency)

	// Deposits create the wallet lazily.
	if err := s.repo.UpsertWallet(ctx, req.UserID, req.Currency); err != nil {
		return nil, err
	}

	var txn *models.Transaction
	err := s.repo.ExecuteInTransaction(ctx, func(r repositories.LedgerRepository) error {
		var err error
		txn, err = creditWallet(ctx, r, req, models.TransactionTypeDeposit)
		return err
	})
	if err != nil {
		s.metrics.RecordError("add_funds", "storage")
		return nil, err
	}

	s.invalidate(ctx, req.UserID, req.Currency)
	s.metrics.RecordTransaction(models.TransactionTypeDeposit, req.Amount)
	return txn, nil
}

func (s *service) CreditOnce(ctx context.Context, paymentIntentID string, req FundsRequest) (*models.Transaction, bool, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		s.metrics.RecordError("credit_once", errors.ErrInvalidAmount.Code)
		return nil, false, errors.ErrInvalidAmount
	}
	req.Currency = strings.ToUpper(req.Currency)

	if err := s.repo.UpsertWallet(ctx, req.UserID, req.Currency); err != nil {
		return nil, false, err
	}

	var txn *models.Transaction
	credited := false
	err := s.repo.ExecuteInTransaction(ctx, func(r repositories.LedgerRepository) error {
		w, err := r.GetWalletForUpdate(ctx, req.UserID, req.Currency)
		if err != nil {
			return err
		}

		// The gate insert rides the same transaction as the credit: if
		// anything below fails, the rollback releases the gate and the
		// gateway's retry gets another attempt.
		fresh, err := r.InsertCredit(ctx, &models.WalletCredit{
			PaymentIntentID: paymentIntentID,
			WalletID:        w.ID,
			Amount:          req.Amount,
			Currency:        req.Currency,
		})
		if err != nil {
			return err
		}
		if !fresh {
			return nil
		}

		txn, err = creditWallet(ctx, r, req, models.TransactionTypeDeposit)
		if err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		s.metrics.RecordError("credit_once", "storage")
		return nil, false, err
	}
	if !credited {
		log.Printf("payment %s already credited, skipping", paymentIntentID)
		return nil, false, nil
	}

	s.invalidate(ctx, req.UserID, req.Currency)
	s.metrics.RecordTransaction(models.TransactionTypeDeposit, req.Amount)
	return txn, true, nil
}

func (s *service) DeductFunds(ctx context.Context, req FundsRequest) (*models.Transaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		s.metrics.RecordError("deduct_funds", errors.ErrInvalidAmount.Code)
		return nil, errors.ErrInvalidAmount
	}
	req.Currency = strings.ToUpper(req.Currency)

	var txn *models.Transaction
	err := s.repo.ExecuteInTransaction(ctx, func(r repositories.LedgerRepository) error {
		var err error
		txn, err = debitWallet(ctx, r, req, models.TransactionTypeWithdrawal)
		return err
	})
	if err != nil {
		if err != errors.ErrInsufficientBalance {
			s.metrics.RecordError("deduct_funds", "storage")
		}
		return nil, err
	}

	s.invalidate(ctx, req.UserID, req.Currency)
	s.metrics.RecordTransaction(models.TransactionTypeWithdrawal, req.Amount)
	return txn, nil
}

func (s *service) LockFunds(ctx context.Context, userID uint, currency string, amount decimal.Decimal) (bool, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return false, errors.ErrInvalidAmount
	}
	locked, err := s.repo.LockAmount(ctx, userID, strings.ToUpper(currency), amount)
	if err != nil {
		return false, err
	}
	if locked {
		s.invalidate(ctx, userID, currency)
	}
	return locked, nil
}

func (s *service) UnlockFunds(ctx context.Context, userID uint, currency string, amount decimal.Decimal, releaseToBalance bool) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.ErrInvalidAmount
	}
	ok, err := s.repo.UnlockAmount(ctx, userID, strings.ToUpper(currency), amount)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrInsufficientLocked
	}
	if !releaseToBalance {
		// The reserved amount was spent through a journaled debit; the
		// reservation is simply dropped.
		log.Printf("reservation of %s %s consumed for user %d", amount.String(), strings.ToUpper(currency), userID)
	}
	s.invalidate(ctx, userID, currency)
	return nil
}

func (s *service) TransferFunds(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.FromUserID == req.ToUserID {
		return nil, errors.NewValidationError("to_user_id", "cannot transfer to self")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.ErrInvalidAmount
	}
	currency := strings.ToUpper(req.Currency)

	// Receiver wallet may not exist yet; create it before entering the
	// transfer transaction so the locked section stays short.
	if err := s.repo.UpsertWallet(ctx, req.ToUserID, currency); err != nil {
		return nil, err
	}

	reference := uuid.NewString()
	result := &TransferResult{Reference: reference}

	err := s.repo.ExecuteInTransaction(ctx, func(r repositories.LedgerRepository) error {
		// Lock both rows in ascending user order so two opposing
		// transfers cannot deadlock.
		first, second := req.FromUserID, req.ToUserID
		if second < first {
			first, second = second, first
		}
		if _, err := r.GetWalletForUpdate(ctx, first, currency); err != nil {
			return err
		}
		if _, err := r.GetWalletForUpdate(ctx, second, currency); err != nil {
			return err
		}

		debit, err := debitWallet(ctx, r, FundsRequest{
			UserID:      req.FromUserID,
			Currency:    currency,
			Amount:      req.Amount,
			Description: req.Description,
			Reference:   reference,
		}, models.TransactionTypeTransfer)
		if err != nil {
			return err
		}

		credit, err := creditWallet(ctx, r, FundsRequest{
			UserID:      req.ToUserID,
			Currency:    currency,
			Amount:      req.Amount,
			Description: req.Description,
			Reference:   reference,
		}, models.TransactionTypeTransfer)
		if err != nil {
			return err
		}

		result.Debit, result.Credit = debit, credit
		return nil
	})
	if err != nil {
		if err != errors.ErrInsufficientBalance {
			s.metrics.RecordError("transfer_funds", "storage")
		}
		return nil, err
	}

	s.invalidate(ctx, req.FromUserID, currency)
	s.invalidate(ctx, req.ToUserID, currency)
	s.metrics.RecordTransaction(models.TransactionTypeTransfer, req.Amount)
	return result, nil
}

func (s *service) ConvertCurrency(ctx context.Context, req ConvertRequest) (*ConversionResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) || req.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, errors.ErrInvalidAmount
	}
	from := strings.ToUpper(req.FromCurrency)
	to := strings.ToUpper(req.ToCurrency)
	if from == to {
		return nil, errors.NewValidationError("to_currency", "cannot convert to same currency")
	}

	amountOut := RoundToMinorUnits(req.Amount.Mul(req.Rate), to)

	if err := s.repo.UpsertWallet(ctx, req.UserID, to); err != nil {
		return nil, err
	}

	reference := uuid.NewString()
	metadata := models.JSON{
		"rate":          req.Rate.String(),
		"from_currency": from,
		"to_currency":   to,
		"amount_in":     req.Amount.String(),
		"amount_out":    amountOut.String(),
	}
	result := &ConversionResult{Reference: reference, AmountOut: amountOut}

	err := s.repo.ExecuteInTransaction(ctx, func(r repositories.LedgerRepository) error {
		// Same user, two currencies; lock in currency order to stay
		// deterministic against concurrent conversions.
		firstCur, secondCur := from, to
		if secondCur < firstCur {
			firstCur, secondCur = secondCur, firstCur
		}
		if _, err := r.GetWalletForUpdate(ctx, req.UserID, firstCur); err != nil {
			return err
		}
		if _, err := r.GetWalletForUpdate(ctx, req.UserID, secondCur); err != nil {
			return err
		}

		description := fmt.Sprintf("convert %s %s to %s", req.Amount.String(), from, to)
		debit, err := debitWallet(ctx, r, FundsRequest{
			UserID:      req.UserID,
			Currency:    from,
			Amount:      req.Amount,
			Description: description,
			Reference:   reference,
			Metadata:    metadata,
		}, models.TransactionTypeConversion)
		if err != nil {
			return err
		}

		credit, err := creditWallet(ctx, r, FundsRequest{
			UserID:      req.UserID,
			Currency:    to,
			Amount:      amountOut,
			Description: description,
			Reference:   reference,
			Metadata:    metadata,
		}, models.TransactionTypeConversion)
		if err != nil {
			return err
		}

		result.Debit, result.Credit = debit, credit
		return nil
	})
	if err != nil {
		if err != errors.ErrInsufficientBalance {
			s.metrics.RecordError("convert_currency", "storage")
		}
		return nil, err
	}

	s.invalidate(ctx, req.UserID, from)
	s.invalidate(ctx, req.UserID, to)
	s.metrics.RecordTransaction(models.TransactionTypeConversion, req.Amount)
	return result, nil
}

func (s *service) GetBalances(ctx context.Context, userID uint) ([]BalanceSnapshot, error) {
	wallets, err := s.repo.GetWalletsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	snapshots := make([]BalanceSnapshot, 0, len(wallets))
	for _, w := range wallets {
		snapshots = append(snapshots, BalanceSnapshot{
			Currency:      w.Currency,
			Balance:       w.Balance,
			LockedBalance: w.LockedBalance,
			Available:     w.Available(),
		})
	}
	return snapshots, nil
}

func (s *service) GetTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

func (s *service) ReclaimStaleLocks(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.lockTimeout)
	count, err := s.repo.ReclaimStaleLocks(ctx, cutoff)
	if err != nil {
		s.metrics.RecordError("reclaim_stale_locks", "storage")
		return 0, err
	}
	if count > 0 {
		log.Printf("reclaimed %d stale wallet locks older than %s", count, s.lockTimeout)
		s.metrics.RecordLockReclaim(count)
	}
	return count, nil
}

func (s *service) invalidate(ctx context.Context, userID uint, currency string) {
	if err := s.cache.InvalidateWallet(ctx, userID, strings.ToUpper(currency)); err != nil {
		log.Printf("failed to invalidate wallet cache %d/%s: %v", userID, currency, err)
	}
}

// creditWallet applies a single credit leg inside an open repository
// transaction and journals it. The row lock plus the compare-and-swap
// on the balance keeps concurrent writers from losing updates.
func creditWallet(ctx context.Context, r repositories.LedgerRepository, req FundsRequest, txType string) (*models.Transaction, error) {
	w, err := r.GetWalletForUpdate(ctx, req.UserID, req.Currency)
	if err != nil {
		return nil, err
	}
	if !w.IsActive {
		return nil, errors.ErrWalletInactive
	}

	before := w.Balance
	after := before.Add(req.Amount)
	ok, err := r.UpdateBalance(ctx, w.ID, before, after)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("wallet %d changed underneath credit", w.ID)
	}

	txn := newJournalEntry(w, req, txType, before, after)
	if err := r.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// debitWallet is the debit counterpart; the balance check and the
// decrement happen against the same locked row. The check runs against
// the available amount so a debit can never push the balance below the
// reserved sub-balance.
func debitWallet(ctx context.Context, r repositories.LedgerRepository, req FundsRequest, txType string) (*models.Transaction, error) {
	w, err := r.GetWalletForUpdate(ctx, req.UserID, req.Currency)
	if err != nil {
		if err == repositories.ErrWalletNotFound {
			return nil, errors.ErrInsufficientBalance
		}
		return nil, err
	}
	if !w.IsActive {
		return nil, errors.ErrWalletInactive
	}
	if w.Available().LessThan(req.Amount) {
		return nil, errors.ErrInsufficientBalance
	}

	before := w.Balance
	after := before.Sub(req.Amount)
	ok, err := r.UpdateBalance(ctx, w.ID, before, after)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("wallet %d changed underneath debit", w.ID)
	}

	txn := newJournalEntry(w, req, txType, before, after)
	if err := r.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func newJournalEntry(w *models.Wallet, req FundsRequest, txType string, before, after decimal.Decimal) *models.Transaction {
	return &models.Transaction{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		WalletID:      w.ID,
		Type:          txType,
		Amount:        req.Amount,
		Currency:      req.Currency,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   req.Description,
		Reference:     req.Reference,
		Metadata:      req.Metadata,
	}
}
