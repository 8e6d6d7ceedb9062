package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/metrics"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

// Balance derives the account balance from its transaction log. It is never
// cached; pass the unit-of-work context to read inside a transaction.
func Balance(ctx context.Context, repo LedgerRepository, email string) (int, error) {
	sum, err := repo.SumTransactions(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("repo.SumTransactions -> %w", err)
	}
	return sum, nil
}

// Record inserts one immutable ledger row.
func Record(ctx context.Context, repo LedgerRepository, tx domain.Transaction) (domain.Transaction, error) {
	if !tx.HasSingleLink() {
		return domain.Transaction{}, apperr.Integrity("transaction may link a stock change or a feedback, not both")
	}
	if tx.AccountEmail == "" {
		return domain.Transaction{}, apperr.Integrity("transaction must belong to an account")
	}

	created, err := repo.InsertTransaction(ctx, tx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("repo.InsertTransaction -> %w", err)
	}

	return created, nil
}

// AuthorizeSpend reports whether the balance covers amount at the instant of
// the call. Callers spending the money must ask again inside the unit of
// work that writes the spend, after locking the account.
func AuthorizeSpend(ctx context.Context, repo LedgerRepository, email string, amount int) (bool, error) {
	balance, err := Balance(ctx, repo, email)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

type LedgerService struct {
	store    Store
	notifier Notifier
}

func NewLedgerService(store Store, notifier Notifier) *LedgerService {
	return &LedgerService{
		store:    store,
		notifier: notifier,
	}
}

func (s *LedgerService) Balance(ctx context.Context, email string) (int, error) {
	if _, err := s.store.FindAccount(ctx, email); err != nil {
		return 0, fmt.Errorf("s.store.FindAccount -> %w", err)
	}
	return Balance(ctx, s.store, email)
}

func (s *LedgerService) Transactions(ctx context.Context, email string) ([]domain.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("s.store.ListTransactions -> %w", err)
	}
	return txs, nil
}

// ManualTransaction records an administrative adjustment with no link.
func (s *LedgerService) ManualTransaction(ctx context.Context, caller domain.Account, email string, change int) (domain.Transaction, error) {
	if !caller.IsAdmin {
		return domain.Transaction{}, apperr.Permission("only administrators may adjust balances")
	}
	if change == 0 {
		return domain.Transaction{}, apperr.Validation("change must not be zero")
	}

	var (
		created domain.Transaction
		out     outbox
	)
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		if _, err := s.store.LockAccount(ctx, email); err != nil {
			return fmt.Errorf("s.store.LockAccount -> %w", err)
		}

		tx, err := Record(ctx, s.store, domain.Transaction{AccountEmail: email, Change: change})
		if err != nil {
			return err
		}
		created = tx

		out.add(email, domain.NotifyManualTransaction, map[string]any{
			"transaction_id": tx.ID,
			"change":         change,
		})
		return nil
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("LedgerService.ManualTransaction -> %w", err)
	}

	zap.L().Info("manual transaction recorded",
		zap.String("account", email), zap.Int("change", change), zap.String("admin", caller.Email))
	metrics.RecordTransaction("manual", change)
	out.flush(ctx, s.notifier)

	return created, nil
}

func (s *LedgerService) CreateAccount(ctx context.Context, caller domain.Account, account domain.Account) (domain.Account, error) {
	if !caller.IsAdmin {
		return domain.Account{}, apperr.Permission("only administrators may create accounts")
	}

	_, err := s.store.FindAccount(ctx, account.Email)
	if err == nil {
		return domain.Account{}, apperr.Conflict("account %s already exists", account.Email)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return domain.Account{}, fmt.Errorf("s.store.FindAccount -> %w", err)
	}

	created, err := s.store.CreateAccount(ctx, account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("s.store.CreateAccount -> %w", err)
	}

	return created, nil
}

func (s *LedgerService) Account(ctx context.Context, email string) (domain.Account, error) {
	account, err := s.store.FindAccount(ctx, email)
	if err != nil {
		return domain.Account{}, fmt.Errorf("s.store.FindAccount -> %w", err)
	}
	return account, nil
}
