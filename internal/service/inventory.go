package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/metrics"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

// Amount derives the on-hand quantity of a variety: the sum of every
// non-rejected stock change.
func Amount(ctx context.Context, repo InventoryRepository, varietyID uint) (int, error) {
	sum, err := repo.SumStock(ctx, varietyID)
	if err != nil {
		return 0, fmt.Errorf("repo.SumStock -> %w", err)
	}
	return sum, nil
}

// Purchases derives how many items non-admin accounts bought. Statistics only.
func Purchases(ctx context.Context, repo InventoryRepository, varietyID uint) (int, error) {
	sum, err := repo.SumPurchases(ctx, varietyID)
	if err != nil {
		return 0, fmt.Errorf("repo.SumPurchases -> %w", err)
	}
	return sum, nil
}

type InventoryService struct {
	store    Store
	notifier Notifier
}

func NewInventoryService(store Store, notifier Notifier) *InventoryService {
	return &InventoryService{
		store:    store,
		notifier: notifier,
	}
}

func (s *InventoryService) CreateProduct(ctx context.Context, caller domain.Account, product domain.Product) (domain.Product, error) {
	if !caller.IsAdmin {
		return domain.Product{}, apperr.Permission("only administrators may manage the store")
	}
	if product.Name == "" {
		return domain.Product{}, apperr.Validation("product name is required")
	}
	if product.Price <= 0 {
		return domain.Product{}, apperr.Validation("product price must be positive")
	}

	created, err := s.store.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("s.store.CreateProduct -> %w", err)
	}

	customers, err := s.store.ListAccounts(ctx, false)
	if err != nil {
		zap.L().Warn("could not list accounts for new arrivals", zap.Error(err))
		return created, nil
	}

	var out outbox
	for _, c := range customers {
		out.add(c.Email, domain.NotifyNewArrivals, map[string]any{"product_id": created.ID})
	}
	out.flush(ctx, s.notifier)

	return created, nil
}

func (s *InventoryService) CreateVariety(ctx context.Context, caller domain.Account, variety domain.Variety) (domain.Variety, error) {
	if !caller.IsAdmin {
		return domain.Variety{}, apperr.Permission("only administrators may manage the store")
	}
	for i, img := range variety.Images {
		if _, err := uuid.Parse(img.ID); err != nil {
			return domain.Variety{}, apperr.Validation("image %q is not a valid file id", img.ID)
		}
		variety.Images[i].Order = i
	}

	if _, err := s.store.FindProduct(ctx, variety.ProductID); err != nil {
		return domain.Variety{}, fmt.Errorf("s.store.FindProduct -> %w", err)
	}

	created, err := s.store.CreateVariety(ctx, variety)
	if err != nil {
		return domain.Variety{}, fmt.Errorf("s.store.CreateVariety -> %w", err)
	}

	return created, nil
}

func (s *InventoryService) Variety(ctx context.Context, id uint) (domain.VarietyStock, error) {
	variety, err := s.store.FindVariety(ctx, id)
	if err != nil {
		return domain.VarietyStock{}, fmt.Errorf("s.store.FindVariety -> %w", err)
	}
	product, err := s.store.FindProduct(ctx, variety.ProductID)
	if err != nil {
		return domain.VarietyStock{}, fmt.Errorf("s.store.FindProduct -> %w", err)
	}
	amount, err := Amount(ctx, s.store, id)
	if err != nil {
		return domain.VarietyStock{}, err
	}
	purchases, err := Purchases(ctx, s.store, id)
	if err != nil {
		return domain.VarietyStock{}, err
	}

	return domain.VarietyStock{
		Variety:   variety,
		Product:   product,
		Amount:    amount,
		Purchases: purchases,
	}, nil
}

// Purchase charges the buyer and takes qty items out of stock in one unit of
// work. Balance and stock are re-derived after the rows are locked, so two
// concurrent purchases cannot both spend the same points or the same items.
func (s *InventoryService) Purchase(ctx context.Context, caller domain.Account, varietyID uint, qty int) (domain.StockChange, error) {
	if qty <= 0 {
		return domain.StockChange{}, apperr.Validation("quantity must be positive")
	}

	var (
		created domain.StockChange
		cost    int
		out     outbox
	)
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		variety, err := s.store.LockVariety(ctx, varietyID)
		if err != nil {
			return fmt.Errorf("s.store.LockVariety -> %w", err)
		}
		product, err := s.store.FindProduct(ctx, variety.ProductID)
		if err != nil {
			return fmt.Errorf("s.store.FindProduct -> %w", err)
		}
		if _, err = s.store.LockAccount(ctx, caller.Email); err != nil {
			return fmt.Errorf("s.store.LockAccount -> %w", err)
		}

		cost = product.Price * qty
		ok, err := AuthorizeSpend(ctx, s.store, caller.Email, cost)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InsufficientFunds("purchase costs %d innopoints", cost)
		}

		inStock, err := Amount(ctx, s.store, varietyID)
		if err != nil {
			return err
		}
		if inStock < qty {
			return apperr.State("only %d items of variety %d left", inStock, varietyID)
		}

		change, err := s.store.InsertStockChange(ctx, domain.StockChange{
			VarietyID:    varietyID,
			AccountEmail: caller.Email,
			Amount:       -qty,
			Status:       domain.StockChangePending,
		})
		if err != nil {
			return fmt.Errorf("s.store.InsertStockChange -> %w", err)
		}
		if _, err = Record(ctx, s.store, domain.Transaction{
			AccountEmail:  caller.Email,
			Change:        -cost,
			StockChangeID: &change.ID,
		}); err != nil {
			return err
		}
		created = change

		admins, err := adminEmails(ctx, s.store)
		if err != nil {
			return fmt.Errorf("adminEmails -> %w", err)
		}
		for _, admin := range admins {
			out.add(admin, domain.NotifyNewPurchase, map[string]any{
				"stock_change_id": change.ID,
				"variety_id":      varietyID,
				"account":         caller.Email,
			})
			if inStock == qty {
				out.add(admin, domain.NotifyOutOfStock, map[string]any{"variety_id": varietyID})
			}
		}
		return nil
	})
	if err != nil {
		return domain.StockChange{}, fmt.Errorf("InventoryService.Purchase -> %w", err)
	}

	metrics.RecordTransaction("purchase", -cost)
	metrics.RecordStockChange(string(created.Status))
	out.flush(ctx, s.notifier)

	return created, nil
}

// Restock records an arrival of qty items. Arrivals carry no transaction.
func (s *InventoryService) Restock(ctx context.Context, caller domain.Account, varietyID uint, qty int) (domain.StockChange, error) {
	if !caller.IsAdmin {
		return domain.StockChange{}, apperr.Permission("only administrators may restock")
	}
	if qty <= 0 {
		return domain.StockChange{}, apperr.Validation("quantity must be positive")
	}

	var created domain.StockChange
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		if _, err := s.store.LockVariety(ctx, varietyID); err != nil {
			return fmt.Errorf("s.store.LockVariety -> %w", err)
		}
		change, err := s.store.InsertStockChange(ctx, domain.StockChange{
			VarietyID:    varietyID,
			AccountEmail: caller.Email,
			Amount:       qty,
			Status:       domain.StockChangeCarriedOut,
		})
		if err != nil {
			return fmt.Errorf("s.store.InsertStockChange -> %w", err)
		}
		created = change
		return nil
	})
	if err != nil {
		return domain.StockChange{}, fmt.Errorf("InventoryService.Restock -> %w", err)
	}

	metrics.RecordStockChange(string(created.Status))
	return created, nil
}

// TransitionStatus moves a stock change through its fulfilment states.
//
// Rejecting deletes the linked transaction, refunding the buyer. Leaving the
// rejected state charges the buyer again with a new transaction. Every other
// move only tracks physical fulfilment.
func (s *InventoryService) TransitionStatus(ctx context.Context, caller domain.Account, id uint, status domain.StockChangeStatus) (domain.StockChange, error) {
	if !caller.IsAdmin {
		return domain.StockChange{}, apperr.Permission("only administrators may change purchase status")
	}
	if !status.Valid() {
		return domain.StockChange{}, apperr.Validation("unknown stock change status %q", status)
	}

	var (
		result  domain.StockChange
		changed bool
		refund  int
		charged int
		out     outbox
	)
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		change, err := s.store.LockStockChange(ctx, id)
		if err != nil {
			return fmt.Errorf("s.store.LockStockChange -> %w", err)
		}
		result = change
		if change.Status == status {
			return nil
		}
		if _, err = s.store.LockVariety(ctx, change.VarietyID); err != nil {
			return fmt.Errorf("s.store.LockVariety -> %w", err)
		}

		switch {
		case status == domain.StockChangeRejected:
			if err = s.checkStockAfter(ctx, change.VarietyID, -change.Amount); err != nil {
				return err
			}
			tx, err := s.store.FindTransactionByStockChange(ctx, change.ID)
			switch {
			case err == nil:
				if err = s.store.DeleteTransaction(ctx, tx.ID); err != nil {
					return fmt.Errorf("s.store.DeleteTransaction -> %w", err)
				}
				refund = -tx.Change
			case !errors.Is(err, apperr.ErrNotFound):
				return fmt.Errorf("s.store.FindTransactionByStockChange -> %w", err)
			}

		case change.Status == domain.StockChangeRejected:
			if err = s.checkStockAfter(ctx, change.VarietyID, change.Amount); err != nil {
				return err
			}
			if change.Amount < 0 {
				if charged, err = s.recharge(ctx, change); err != nil {
					return err
				}
			}
		}

		if err = s.store.UpdateStockChangeStatus(ctx, change.ID, status); err != nil {
			return fmt.Errorf("s.store.UpdateStockChangeStatus -> %w", err)
		}

		out.add(change.AccountEmail, domain.NotifyPurchaseStatusChanged, map[string]any{
			"stock_change_id": change.ID,
			"old_status":      change.Status,
			"new_status":      status,
		})
		result.Status = status
		changed = true
		return nil
	})
	if err != nil {
		return domain.StockChange{}, fmt.Errorf("InventoryService.TransitionStatus -> %w", err)
	}

	if changed {
		metrics.RecordStockChange(string(status))
		if refund != 0 {
			metrics.RecordTransaction("refund", refund)
		}
		if charged != 0 {
			metrics.RecordTransaction("purchase", charged)
		}
		out.flush(ctx, s.notifier)
	}

	return result, nil
}

// recharge re-opens a rejected purchase: the buyer pays again with a new
// transaction at the current product price.
func (s *InventoryService) recharge(ctx context.Context, change domain.StockChange) (int, error) {
	variety, err := s.store.FindVariety(ctx, change.VarietyID)
	if err != nil {
		return 0, fmt.Errorf("s.store.FindVariety -> %w", err)
	}
	product, err := s.store.FindProduct(ctx, variety.ProductID)
	if err != nil {
		return 0, fmt.Errorf("s.store.FindProduct -> %w", err)
	}
	if _, err = s.store.LockAccount(ctx, change.AccountEmail); err != nil {
		return 0, fmt.Errorf("s.store.LockAccount -> %w", err)
	}

	qty := -change.Amount
	tx, err := Record(ctx, s.store, domain.Transaction{
		AccountEmail:  change.AccountEmail,
		Change:        -product.Price * qty,
		StockChangeID: &change.ID,
	})
	if err != nil {
		return 0, err
	}

	return tx.Change, nil
}

// checkStockAfter refuses a status move that would drive the derived amount
// below zero.
func (s *InventoryService) checkStockAfter(ctx context.Context, varietyID uint, delta int) error {
	if delta >= 0 {
		return nil
	}
	amount, err := Amount(ctx, s.store, varietyID)
	if err != nil {
		return err
	}
	if amount+delta < 0 {
		return apperr.State("variety %d has only %d items in stock", varietyID, amount)
	}
	return nil
}
