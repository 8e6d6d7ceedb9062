// Package memory is an in-process service.Store. It enforces the same keys
// and constraints as the Postgres schema and is used by tests and local runs
// without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
	"github.com/innopoints/innopoints-api/internal/service"
)

type txKey struct{}

type reportKey struct {
	applicationID uint
	reporter      string
}

type state struct {
	nextID       uint
	accounts     map[string]domain.Account
	transactions map[uint]domain.Transaction
	products     map[uint]domain.Product
	varieties    map[uint]domain.Variety
	stockChanges map[uint]domain.StockChange
	projects     map[uint]domain.Project
	activities   map[uint]domain.Activity
	applications map[uint]domain.Application
	feedback     map[uint]domain.Feedback
	reports      map[reportKey]domain.VolunteeringReport
}

func newState() state {
	return state{
		nextID:       1,
		accounts:     make(map[string]domain.Account),
		transactions: make(map[uint]domain.Transaction),
		products:     make(map[uint]domain.Product),
		varieties:    make(map[uint]domain.Variety),
		stockChanges: make(map[uint]domain.StockChange),
		projects:     make(map[uint]domain.Project),
		activities:   make(map[uint]domain.Activity),
		applications: make(map[uint]domain.Application),
		feedback:     make(map[uint]domain.Feedback),
		reports:      make(map[reportKey]domain.VolunteeringReport),
	}
}

// clone copies every table. Stored values are replaced, never mutated in
// place, so copying the maps is enough.
func (st state) clone() state {
	return state{
		nextID:       st.nextID,
		accounts:     cloneMap(st.accounts),
		transactions: cloneMap(st.transactions),
		products:     cloneMap(st.products),
		varieties:    cloneMap(st.varieties),
		stockChanges: cloneMap(st.stockChanges),
		projects:     cloneMap(st.projects),
		activities:   cloneMap(st.activities),
		applications: cloneMap(st.applications),
		feedback:     cloneMap(st.feedback),
		reports:      cloneMap(st.reports),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store serializes units of work behind one mutex; Lock* calls are plain
// reads because the whole unit already holds it.
type Store struct {
	mu  sync.Mutex
	st  state
	now func() time.Time
}

var _ service.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		st:  newState(),
		now: time.Now,
	}
}

// Atomic runs fn with the store locked and restores the previous state when
// fn fails. Nested calls join the outer unit of work.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.st = saved
		return err
	}
	return nil
}

// lock takes the mutex unless ctx belongs to a running unit of work.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) nextIDLocked() uint {
	id := s.st.nextID
	s.st.nextID++
	return id
}

// Accounts ------------------------------------------------------------------

func (s *Store) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	defer s.lock(ctx)()

	if account.Email == "" {
		return domain.Account{}, apperr.Integrity("account e-mail is required")
	}
	if _, exists := s.st.accounts[account.Email]; exists {
		return domain.Account{}, apperr.Conflict("account %s already exists", account.Email)
	}
	account.CreatedAt = s.now().UTC()
	s.st.accounts[account.Email] = account
	return account, nil
}

func (s *Store) FindAccount(ctx context.Context, email string) (domain.Account, error) {
	defer s.lock(ctx)()

	account, ok := s.st.accounts[email]
	if !ok {
		return domain.Account{}, apperr.NotFound("account %s not found", email)
	}
	return account, nil
}

func (s *Store) LockAccount(ctx context.Context, email string) (domain.Account, error) {
	return s.FindAccount(ctx, email)
}

func (s *Store) ListAccounts(ctx context.Context, admins bool) ([]domain.Account, error) {
	defer s.lock(ctx)()

	var out []domain.Account
	for _, a := range s.st.accounts {
		if a.IsAdmin == admins {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// Ledger --------------------------------------------------------------------

func (s *Store) SumTransactions(ctx context.Context, email string) (int, error) {
	defer s.lock(ctx)()

	sum := 0
	for _, tx := range s.st.transactions {
		if tx.AccountEmail == email {
			sum += tx.Change
		}
	}
	return sum, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	defer s.lock(ctx)()

	if !tx.HasSingleLink() {
		return domain.Transaction{}, apperr.Integrity("transaction links both a stock change and a feedback")
	}
	if _, ok := s.st.accounts[tx.AccountEmail]; !ok {
		return domain.Transaction{}, apperr.Integrity("transaction account %s does not exist", tx.AccountEmail)
	}
	if tx.StockChangeID != nil {
		if _, ok := s.st.stockChanges[*tx.StockChangeID]; !ok {
			return domain.Transaction{}, apperr.Integrity("stock change %d does not exist", *tx.StockChangeID)
		}
	}
	if tx.FeedbackID != nil {
		if _, ok := s.st.feedback[*tx.FeedbackID]; !ok {
			return domain.Transaction{}, apperr.Integrity("feedback %d does not exist", *tx.FeedbackID)
		}
		for _, other := range s.st.transactions {
			if other.FeedbackID != nil && *other.FeedbackID == *tx.FeedbackID {
				return domain.Transaction{}, apperr.Conflict("feedback %d is already rewarded", *tx.FeedbackID)
			}
		}
	}

	tx.ID = s.nextIDLocked()
	tx.StockChangeID = copyID(tx.StockChangeID)
	tx.FeedbackID = copyID(tx.FeedbackID)
	tx.CreatedAt = s.now().UTC()
	s.st.transactions[tx.ID] = tx
	return tx, nil
}

func copyID(id *uint) *uint {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func (s *Store) DeleteTransaction(ctx context.Context, id uint) error {
	defer s.lock(ctx)()

	if _, ok := s.st.transactions[id]; !ok {
		return apperr.NotFound("transaction %d not found", id)
	}
	delete(s.st.transactions, id)
	return nil
}

func (s *Store) FindTransactionByStockChange(ctx context.Context, stockChangeID uint) (domain.Transaction, error) {
	defer s.lock(ctx)()

	for _, tx := range s.st.transactions {
		if tx.StockChangeID != nil && *tx.StockChangeID == stockChangeID {
			return tx, nil
		}
	}
	return domain.Transaction{}, apperr.NotFound("no transaction for stock change %d", stockChangeID)
}

func (s *Store) ListTransactions(ctx context.Context, email string) ([]domain.Transaction, error) {
	defer s.lock(ctx)()

	var out []domain.Transaction
	for _, tx := range s.st.transactions {
		if tx.AccountEmail == email {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
