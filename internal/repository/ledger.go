package repository

import (
	"context"
	"fmt"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/repository/dao"
)

type LedgerDAO interface {
	Sum(ctx context.Context, email string) (int, error)
	Insert(ctx context.Context, tx dao.Transaction) (dao.Transaction, error)
	Delete(ctx context.Context, id uint) error
	FindByStockChange(ctx context.Context, stockChangeID uint) (dao.Transaction, error)
	FindByAccount(ctx context.Context, email string) ([]dao.Transaction, error)
}

type LedgerRepository struct {
	dao LedgerDAO
}

func NewLedgerRepository(dao LedgerDAO) *LedgerRepository {
	return &LedgerRepository{
		dao: dao,
	}
}

func (r *LedgerRepository) SumTransactions(ctx context.Context, email string) (int, error) {
	sum, err := r.dao.Sum(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("r.dao.Sum -> %w", err)
	}

	return sum, nil
}

func (r *LedgerRepository) InsertTransaction(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	created, err := r.dao.Insert(ctx, dao.Transaction{
		AccountEmail:  tx.AccountEmail,
		Change:        tx.Change,
		StockChangeID: tx.StockChangeID,
		FeedbackID:    tx.FeedbackID,
		CreatedAt:     tx.CreatedAt,
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *LedgerRepository) DeleteTransaction(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *LedgerRepository) FindTransactionByStockChange(ctx context.Context, stockChangeID uint) (domain.Transaction, error) {
	found, err := r.dao.FindByStockChange(ctx, stockChangeID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("r.dao.FindByStockChange -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *LedgerRepository) ListTransactions(ctx context.Context, email string) ([]domain.Transaction, error) {
	found, err := r.dao.FindByAccount(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByAccount -> %w", err)
	}

	txs := make([]domain.Transaction, len(found))
	for i, tx := range found {
		txs[i] = r.daoToDomain(tx)
	}
	return txs, nil
}

func (r *LedgerRepository) daoToDomain(tx dao.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:            tx.ID,
		AccountEmail:  tx.AccountEmail,
		Change:        tx.Change,
		StockChangeID: tx.StockChangeID,
		FeedbackID:    tx.FeedbackID,
		CreatedAt:     tx.CreatedAt,
	}
}
