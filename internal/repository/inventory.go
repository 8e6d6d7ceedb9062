package repository

import (
	"context"
	"fmt"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/repository/dao"
)

type InventoryDAO interface {
	InsertProduct(ctx context.Context, product dao.Product) (dao.Product, error)
	FindProduct(ctx context.Context, id uint) (dao.Product, error)
	InsertVariety(ctx context.Context, variety dao.Variety) (dao.Variety, error)
	FindVariety(ctx context.Context, id uint) (dao.Variety, error)
	LockVariety(ctx context.Context, id uint) (dao.Variety, error)
	SumStock(ctx context.Context, varietyID uint) (int, error)
	SumPurchases(ctx context.Context, varietyID uint) (int, error)
	InsertStockChange(ctx context.Context, change dao.StockChange) (dao.StockChange, error)
	FindStockChange(ctx context.Context, id uint) (dao.StockChange, error)
	LockStockChange(ctx context.Context, id uint) (dao.StockChange, error)
	UpdateStockChangeStatus(ctx context.Context, id uint, status string) error
}

type InventoryRepository struct {
	dao InventoryDAO
}

func NewInventoryRepository(dao InventoryDAO) *InventoryRepository {
	return &InventoryRepository{
		dao: dao,
	}
}

func (r *InventoryRepository) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	created, err := r.dao.InsertProduct(ctx, dao.Product{
		Name:        product.Name,
		Type:        product.Type,
		Description: product.Description,
		Price:       product.Price,
		CreatedAt:   product.CreatedAt,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("r.dao.InsertProduct -> %w", err)
	}

	return r.productDaoToDomain(created), nil
}

func (r *InventoryRepository) FindProduct(ctx context.Context, id uint) (domain.Product, error) {
	found, err := r.dao.FindProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("r.dao.FindProduct -> %w", err)
	}

	return r.productDaoToDomain(found), nil
}

func (r *InventoryRepository) CreateVariety(ctx context.Context, variety domain.Variety) (domain.Variety, error) {
	images := make([]dao.VarietyImage, len(variety.Images))
	for i, img := range variety.Images {
		images[i] = dao.VarietyImage{ImageID: img.ID, Position: img.Order}
	}

	created, err := r.dao.InsertVariety(ctx, dao.Variety{
		ProductID: variety.ProductID,
		Size:      variety.Size,
		Color:     variety.Color,
		Images:    images,
	})
	if err != nil {
		return domain.Variety{}, fmt.Errorf("r.dao.InsertVariety -> %w", err)
	}

	return r.varietyDaoToDomain(created), nil
}

func (r *InventoryRepository) FindVariety(ctx context.Context, id uint) (domain.Variety, error) {
	found, err := r.dao.FindVariety(ctx, id)
	if err != nil {
		return domain.Variety{}, fmt.Errorf("r.dao.FindVariety -> %w", err)
	}

	return r.varietyDaoToDomain(found), nil
}

func (r *InventoryRepository) LockVariety(ctx context.Context, id uint) (domain.Variety, error) {
	found, err := r.dao.LockVariety(ctx, id)
	if err != nil {
		return domain.Variety{}, fmt.Errorf("r.dao.LockVariety -> %w", err)
	}

	return r.varietyDaoToDomain(found), nil
}

func (r *InventoryRepository) SumStock(ctx context.Context, varietyID uint) (int, error) {
	sum, err := r.dao.SumStock(ctx, varietyID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.SumStock -> %w", err)
	}

	return sum, nil
}

func (r *InventoryRepository) SumPurchases(ctx context.Context, varietyID uint) (int, error) {
	sum, err := r.dao.SumPurchases(ctx, varietyID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.SumPurchases -> %w", err)
	}

	return sum, nil
}

func (r *InventoryRepository) InsertStockChange(ctx context.Context, change domain.StockChange) (domain.StockChange, error) {
	created, err := r.dao.InsertStockChange(ctx, dao.StockChange{
		VarietyID:    change.VarietyID,
		AccountEmail: change.AccountEmail,
		Amount:       change.Amount,
		Status:       string(change.Status),
		CreatedAt:    change.CreatedAt,
	})
	if err != nil {
		return domain.StockChange{}, fmt.Errorf("r.dao.InsertStockChange -> %w", err)
	}

	return r.stockChangeDaoToDomain(created), nil
}

func (r *InventoryRepository) FindStockChange(ctx context.Context, id uint) (domain.StockChange, error) {
	found, err := r.dao.FindStockChange(ctx, id)
	if err != nil {
		return domain.StockChange{}, fmt.Errorf("r.dao.FindStockChange -> %w", err)
	}

	return r.stockChangeDaoToDomain(found), nil
}

func (r *InventoryRepository) LockStockChange(ctx context.Context, id uint) (domain.StockChange, error) {
	found, err := r.dao.LockStockChange(ctx, id)
	if err != nil {
		return domain.StockChange{}, fmt.Errorf("r.dao.LockStockChange -> %w", err)
	}

	return r.stockChangeDaoToDomain(found), nil
}

func (r *InventoryRepository) UpdateStockChangeStatus(ctx context.Context, id uint, status domain.StockChangeStatus) error {
	if err := r.dao.UpdateStockChangeStatus(ctx, id, string(status)); err != nil {
		return fmt.Errorf("r.dao.UpdateStockChangeStatus -> %w", err)
	}

	return nil
}

func (r *InventoryRepository) productDaoToDomain(p dao.Product) domain.Product {
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		Description: p.Description,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
	}
}

func (r *InventoryRepository) varietyDaoToDomain(v dao.Variety) domain.Variety {
	images := make([]domain.Image, len(v.Images))
	for i, img := range v.Images {
		images[i] = domain.Image{ID: img.ImageID, Order: img.Position}
	}

	return domain.Variety{
		ID:        v.ID,
		ProductID: v.ProductID,
		Size:      v.Size,
		Color:     v.Color,
		Images:    images,
	}
}

func (r *InventoryRepository) stockChangeDaoToDomain(c dao.StockChange) domain.StockChange {
	return domain.StockChange{
		ID:           c.ID,
		VarietyID:    c.VarietyID,
		AccountEmail: c.AccountEmail,
		Amount:       c.Amount,
		Status:       domain.StockChangeStatus(c.Status),
		CreatedAt:    c.CreatedAt,
	}
}
