package memory

import (
	"context"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	defer s.lock(ctx)()

	if product.Price <= 0 {
		return domain.Product{}, apperr.Integrity("product price must be positive")
	}
	product.ID = s.nextIDLocked()
	product.CreatedAt = s.now().UTC()
	s.st.products[product.ID] = product
	return product, nil
}

func (s *Store) FindProduct(ctx context.Context, id uint) (domain.Product, error) {
	defer s.lock(ctx)()

	product, ok := s.st.products[id]
	if !ok {
		return domain.Product{}, apperr.NotFound("product %d not found", id)
	}
	return product, nil
}

func (s *Store) CreateVariety(ctx context.Context, variety domain.Variety) (domain.Variety, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.products[variety.ProductID]; !ok {
		return domain.Variety{}, apperr.Integrity("product %d does not exist", variety.ProductID)
	}
	for _, v := range s.st.varieties {
		if v.ProductID == variety.ProductID && v.Color == variety.Color && v.Size == variety.Size {
			return domain.Variety{}, apperr.Conflict("product %d already has a %s/%s variety", variety.ProductID, variety.Color, variety.Size)
		}
	}

	variety.ID = s.nextIDLocked()
	variety.Images = append([]domain.Image(nil), variety.Images...)
	s.st.varieties[variety.ID] = variety
	return variety, nil
}

func (s *Store) FindVariety(ctx context.Context, id uint) (domain.Variety, error) {
	defer s.lock(ctx)()

	variety, ok := s.st.varieties[id]
	if !ok {
		return domain.Variety{}, apperr.NotFound("variety %d not found", id)
	}
	return variety, nil
}

func (s *Store) LockVariety(ctx context.Context, id uint) (domain.Variety, error) {
	return s.FindVariety(ctx, id)
}

func (s *Store) SumStock(ctx context.Context, varietyID uint) (int, error) {
	defer s.lock(ctx)()

	sum := 0
	for _, c := range s.st.stockChanges {
		if c.VarietyID == varietyID && c.Status != domain.StockChangeRejected {
			sum += c.Amount
		}
	}
	return sum, nil
}

func (s *Store) SumPurchases(ctx context.Context, varietyID uint) (int, error) {
	defer s.lock(ctx)()

	sum := 0
	for _, c := range s.st.stockChanges {
		if c.VarietyID != varietyID || c.Status == domain.StockChangeRejected || c.Amount >= 0 {
			continue
		}
		if s.st.accounts[c.AccountEmail].IsAdmin {
			continue
		}
		sum -= c.Amount
	}
	return sum, nil
}

func (s *Store) InsertStockChange(ctx context.Context, change domain.StockChange) (domain.StockChange, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.varieties[change.VarietyID]; !ok {
		return domain.StockChange{}, apperr.Integrity("variety %d does not exist", change.VarietyID)
	}
	if _, ok := s.st.accounts[change.AccountEmail]; !ok {
		return domain.StockChange{}, apperr.Integrity("account %s does not exist", change.AccountEmail)
	}
	if !change.Status.Valid() {
		return domain.StockChange{}, apperr.Integrity("invalid stock change status %q", change.Status)
	}

	change.ID = s.nextIDLocked()
	change.CreatedAt = s.now().UTC()
	s.st.stockChanges[change.ID] = change
	return change, nil
}

func (s *Store) FindStockChange(ctx context.Context, id uint) (domain.StockChange, error) {
	defer s.lock(ctx)()

	change, ok := s.st.stockChanges[id]
	if !ok {
		return domain.StockChange{}, apperr.NotFound("stock change %d not found", id)
	}
	return change, nil
}

func (s *Store) LockStockChange(ctx context.Context, id uint) (domain.StockChange, error) {
	return s.FindStockChange(ctx, id)
}

func (s *Store) UpdateStockChangeStatus(ctx context.Context, id uint, status domain.StockChangeStatus) error {
	defer s.lock(ctx)()

	change, ok := s.st.stockChanges[id]
	if !ok {
		return apperr.NotFound("stock change %d not found", id)
	}
	if !status.Valid() {
		return apperr.Integrity("invalid stock change status %q", status)
	}
	change.Status = status
	s.st.stockChanges[id] = change
	return nil
}
