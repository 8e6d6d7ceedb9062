package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Product struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Type        string
	Description string
	Price       int `gorm:"not null;check:price_positive,price > 0"`

	CreatedAt time.Time `gorm:"not null"`
}

// Variety is unique per (product, color, size).
type Variety struct {
	ID        uint           `gorm:"primaryKey"`
	ProductID uint           `gorm:"not null;uniqueIndex:idx_variety_identity"`
	Product   Product        `gorm:"foreignKey:ProductID"`
	Size      string         `gorm:"not null;default:'';uniqueIndex:idx_variety_identity"`
	Color     string         `gorm:"not null;default:'';uniqueIndex:idx_variety_identity"`
	Images    []VarietyImage `gorm:"foreignKey:VarietyID"`
}

type VarietyImage struct {
	VarietyID uint   `gorm:"primaryKey;autoIncrement:false"`
	ImageID   string `gorm:"primaryKey;type:uuid"`
	Position  int    `gorm:"not null"`
}

type StockChange struct {
	ID           uint    `gorm:"primaryKey"`
	VarietyID    uint    `gorm:"not null;index"`
	Variety      Variety `gorm:"foreignKey:VarietyID"`
	AccountEmail string  `gorm:"not null;index"`
	Account      Account `gorm:"foreignKey:AccountEmail;references:Email"`
	Amount       int     `gorm:"not null"`
	Status       string  `gorm:"not null;check:status_known,status IN ('pending','ready_for_pickup','carried_out','rejected')"`

	CreatedAt time.Time `gorm:"not null"`
}

type InventoryDAO struct {
	db *gorm.DB
}

func NewInventoryDAO(db *gorm.DB) *InventoryDAO {
	return &InventoryDAO{
		db: db,
	}
}

func (d *InventoryDAO) InsertProduct(ctx context.Context, product Product) (Product, error) {
	result := conn(ctx, d.db).Create(&product)
	if result.Error != nil {
		return Product{}, translate(result.Error, "product %q", product.Name)
	}

	return product, nil
}

func (d *InventoryDAO) FindProduct(ctx context.Context, id uint) (Product, error) {
	var product Product

	result := conn(ctx, d.db).First(&product, id)
	if result.Error != nil {
		return Product{}, translate(result.Error, "product %d", id)
	}

	return product, nil
}

// InsertVariety stores the variety together with its images.
func (d *InventoryDAO) InsertVariety(ctx context.Context, variety Variety) (Variety, error) {
	result := conn(ctx, d.db).Omit("Product").Create(&variety)
	if result.Error != nil {
		return Variety{}, translate(result.Error, "variety %s/%s of product %d", variety.Color, variety.Size, variety.ProductID)
	}

	return variety, nil
}

func (d *InventoryDAO) FindVariety(ctx context.Context, id uint) (Variety, error) {
	var variety Variety

	result := conn(ctx, d.db).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&variety, id)
	if result.Error != nil {
		return Variety{}, translate(result.Error, "variety %d", id)
	}

	return variety, nil
}

func (d *InventoryDAO) LockVariety(ctx context.Context, id uint) (Variety, error) {
	var variety Variety

	result := conn(ctx, d.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&variety, id)
	if result.Error != nil {
		return Variety{}, translate(result.Error, "variety %d", id)
	}

	return variety, nil
}

func (d *InventoryDAO) SumStock(ctx context.Context, varietyID uint) (int, error) {
	var sum int

	result := conn(ctx, d.db).Model(&StockChange{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("variety_id = ? AND status <> ?", varietyID, "rejected").
		Scan(&sum)
	if result.Error != nil {
		return 0, translate(result.Error, "stock of variety %d", varietyID)
	}

	return sum, nil
}

func (d *InventoryDAO) SumPurchases(ctx context.Context, varietyID uint) (int, error) {
	var sum int

	result := conn(ctx, d.db).Model(&StockChange{}).
		Select("COALESCE(-SUM(stock_changes.amount), 0)").
		Joins("JOIN accounts ON accounts.email = stock_changes.account_email").
		Where("stock_changes.variety_id = ? AND stock_changes.status <> ? AND stock_changes.amount < 0 AND NOT accounts.is_admin",
			varietyID, "rejected").
		Scan(&sum)
	if result.Error != nil {
		return 0, translate(result.Error, "purchases of variety %d", varietyID)
	}

	return sum, nil
}

func (d *InventoryDAO) InsertStockChange(ctx context.Context, change StockChange) (StockChange, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&change)
	if result.Error != nil {
		return StockChange{}, translate(result.Error, "stock change of variety %d", change.VarietyID)
	}

	return change, nil
}

func (d *InventoryDAO) FindStockChange(ctx context.Context, id uint) (StockChange, error) {
	var change StockChange

	result := conn(ctx, d.db).First(&change, id)
	if result.Error != nil {
		return StockChange{}, translate(result.Error, "stock change %d", id)
	}

	return change, nil
}

func (d *InventoryDAO) LockStockChange(ctx context.Context, id uint) (StockChange, error) {
	var change StockChange

	result := conn(ctx, d.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&change, id)
	if result.Error != nil {
		return StockChange{}, translate(result.Error, "stock change %d", id)
	}

	return change, nil
}

func (d *InventoryDAO) UpdateStockChangeStatus(ctx context.Context, id uint, status string) error {
	result := conn(ctx, d.db).Model(&StockChange{}).Where("id = ?", id).Update("status", status)
	return notFoundUnlessAffected(result, "stock change %d", id)
}
