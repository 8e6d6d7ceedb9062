package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Transaction is a ledger row. The single_link check keeps it tied to at
// most one of a stock change and a feedback.
type Transaction struct {
	ID            uint         `gorm:"primaryKey"`
	AccountEmail  string       `gorm:"not null;index"`
	Account       Account      `gorm:"foreignKey:AccountEmail;references:Email"`
	Change        int          `gorm:"not null"`
	StockChangeID *uint        `gorm:"index;check:single_link,stock_change_id IS NULL OR feedback_id IS NULL"`
	StockChange   *StockChange `gorm:"foreignKey:StockChangeID"`
	FeedbackID    *uint        `gorm:"uniqueIndex"`
	Feedback      *Feedback    `gorm:"foreignKey:FeedbackID;references:ApplicationID"`

	CreatedAt time.Time `gorm:"not null"`
}

func (Transaction) TableName() string {
	return "transactions"
}

type LedgerDAO struct {
	db *gorm.DB
}

func NewLedgerDAO(db *gorm.DB) *LedgerDAO {
	return &LedgerDAO{
		db: db,
	}
}

func (d *LedgerDAO) Sum(ctx context.Context, email string) (int, error) {
	var sum int

	result := conn(ctx, d.db).Model(&Transaction{}).
		Select("COALESCE(SUM(change), 0)").
		Where("account_email = ?", email).
		Scan(&sum)
	if result.Error != nil {
		return 0, translate(result.Error, "balance of %s", email)
	}

	return sum, nil
}

func (d *LedgerDAO) Insert(ctx context.Context, tx Transaction) (Transaction, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&tx)
	if result.Error != nil {
		return Transaction{}, translate(result.Error, "transaction of %s", tx.AccountEmail)
	}

	return tx, nil
}

func (d *LedgerDAO) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, d.db).Delete(&Transaction{}, id)
	return notFoundUnlessAffected(result, "transaction %d", id)
}

func (d *LedgerDAO) FindByStockChange(ctx context.Context, stockChangeID uint) (Transaction, error) {
	var tx Transaction

	result := conn(ctx, d.db).First(&tx, "stock_change_id = ?", stockChangeID)
	if result.Error != nil {
		return Transaction{}, translate(result.Error, "transaction of stock change %d", stockChangeID)
	}

	return tx, nil
}

func (d *LedgerDAO) FindByAccount(ctx context.Context, email string) ([]Transaction, error) {
	var txs []Transaction

	result := conn(ctx, d.db).Where("account_email = ?", email).Order("id DESC").Find(&txs)
	if result.Error != nil {
		return nil, translate(result.Error, "transactions of %s", email)
	}

	return txs, nil
}
