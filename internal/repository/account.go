package repository

import (
	"context"
	"fmt"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/repository/dao"
)

type AccountDAO interface {
	Insert(ctx context.Context, account dao.Account) (dao.Account, error)
	FindByEmail(ctx context.Context, email string) (dao.Account, error)
	LockByEmail(ctx context.Context, email string) (dao.Account, error)
	FindByRole(ctx context.Context, admins bool) ([]dao.Account, error)
}

type AccountRepository struct {
	dao AccountDAO
}

func NewAccountRepository(dao AccountDAO) *AccountRepository {
	return &AccountRepository{
		dao: dao,
	}
}

func (r *AccountRepository) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	created, err := r.dao.Insert(ctx, dao.Account{
		Email:     account.Email,
		FullName:  account.FullName,
		Group:     account.Group,
		IsAdmin:   account.IsAdmin,
		CreatedAt: account.CreatedAt,
	})
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *AccountRepository) FindAccount(ctx context.Context, email string) (domain.Account, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *AccountRepository) LockAccount(ctx context.Context, email string) (domain.Account, error) {
	found, err := r.dao.LockByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, fmt.Errorf("r.dao.LockByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *AccountRepository) ListAccounts(ctx context.Context, admins bool) ([]domain.Account, error) {
	found, err := r.dao.FindByRole(ctx, admins)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByRole -> %w", err)
	}

	accounts := make([]domain.Account, len(found))
	for i, a := range found {
		accounts[i] = r.daoToDomain(a)
	}
	return accounts, nil
}

func (r *AccountRepository) daoToDomain(a dao.Account) domain.Account {
	return domain.Account{
		Email:     a.Email,
		FullName:  a.FullName,
		Group:     a.Group,
		IsAdmin:   a.IsAdmin,
		CreatedAt: a.CreatedAt,
	}
}
