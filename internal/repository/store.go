package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/innopoints/innopoints-api/internal/repository/dao"
	"github.com/innopoints/innopoints-api/internal/service"
)

type Transactor interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is the Postgres-backed persistence of the core.
type Store struct {
	*AccountRepository
	*LedgerRepository
	*InventoryRepository
	*ProjectRepository
	*ApplicationRepository

	tx Transactor
}

var _ service.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{
		AccountRepository:     NewAccountRepository(dao.NewAccountDAO(db)),
		LedgerRepository:      NewLedgerRepository(dao.NewLedgerDAO(db)),
		InventoryRepository:   NewInventoryRepository(dao.NewInventoryDAO(db)),
		ProjectRepository:     NewProjectRepository(dao.NewProjectDAO(db)),
		ApplicationRepository: NewApplicationRepository(dao.NewApplicationDAO(db)),
		tx:                    dao.NewTransactor(db),
	}
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.Atomic(ctx, fn)
}
