package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Account is an SSO identity. It has no password and no stored balance.
type Account struct {
	Email    string `gorm:"primaryKey"`
	FullName string `gorm:"not null"`
	Group    string
	IsAdmin  bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null"`
}

type AccountDAO struct {
	db *gorm.DB
}

func NewAccountDAO(db *gorm.DB) *AccountDAO {
	return &AccountDAO{
		db: db,
	}
}

func (d *AccountDAO) Insert(ctx context.Context, account Account) (Account, error) {
	result := conn(ctx, d.db).Create(&account)
	if result.Error != nil {
		return Account{}, translate(result.Error, "account %s", account.Email)
	}

	return account, nil
}

func (d *AccountDAO) FindByEmail(ctx context.Context, email string) (Account, error) {
	var account Account

	result := conn(ctx, d.db).First(&account, "email = ?", email)
	if result.Error != nil {
		return Account{}, translate(result.Error, "account %s", email)
	}

	return account, nil
}

// LockByEmail reads the account with FOR UPDATE, serializing spends.
func (d *AccountDAO) LockByEmail(ctx context.Context, email string) (Account, error) {
	var account Account

	result := conn(ctx, d.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, "email = ?", email)
	if result.Error != nil {
		return Account{}, translate(result.Error, "account %s", email)
	}

	return account, nil
}

func (d *AccountDAO) FindByRole(ctx context.Context, admins bool) ([]Account, error) {
	var accounts []Account

	result := conn(ctx, d.db).Where("is_admin = ?", admins).Order("email").Find(&accounts)
	if result.Error != nil {
		return nil, translate(result.Error, "accounts")
	}

	return accounts, nil
}
