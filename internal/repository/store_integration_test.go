//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
	"github.com/innopoints/innopoints-api/internal/repository"
	"github.com/innopoints/innopoints-api/internal/repository/dao"
	"github.com/innopoints/innopoints-api/internal/service"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not construct pool: %s", err)
	}
	if err = pool.Client.Ping(); err != nil {
		log.Fatalf("could not connect to docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=innopoints",
			"POSTGRES_PASSWORD=innopoints",
			"POSTGRES_DB=innopoints",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("could not start postgres: %s", err)
	}
	_ = resource.Expire(120)

	dsn := fmt.Sprintf("host=localhost port=%s user=innopoints password=innopoints dbname=innopoints sslmode=disable",
		resource.GetPort("5432/tcp"))

	pool.MaxWait = 60 * time.Second
	if err = pool.Retry(func() error {
		testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:                 logger.Default.LogMode(logger.Silent),
			SkipDefaultTransaction: true,
		})
		if err != nil {
			return err
		}
		sqlDB, err := testDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	}); err != nil {
		log.Fatalf("could not connect to postgres: %s", err)
	}

	if err = dao.InitTables(testDB); err != nil {
		log.Fatalf("could not migrate: %s", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Fatalf("could not purge postgres: %s", err)
	}
	os.Exit(code)
}

// newAccounts creates an admin and a buyer with unique e-mails.
func newAccounts(t *testing.T, store *repository.Store) (domain.Account, domain.Account) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	admin, err := store.CreateAccount(ctx, domain.Account{
		Email: fmt.Sprintf("admin%d@innopolis.ru", suffix), FullName: "Admin", IsAdmin: true,
	})
	require.NoError(t, err)
	buyer, err := store.CreateAccount(ctx, domain.Account{
		Email: fmt.Sprintf("buyer%d@innopolis.university", suffix), FullName: "Buyer",
	})
	require.NoError(t, err)
	return admin, buyer
}

func TestConcurrentPurchasesNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testDB)
	ledger := service.NewLedgerService(store, nil)
	inventory := service.NewInventoryService(store, nil)
	admin, buyer := newAccounts(t, store)

	_, err := ledger.ManualTransaction(ctx, admin, buyer.Email, 20)
	require.NoError(t, err)
	product, err := inventory.CreateProduct(ctx, admin, domain.Product{Name: "Sticker", Price: 10})
	require.NoError(t, err)
	variety, err := inventory.CreateVariety(ctx, admin, domain.Variety{ProductID: product.ID})
	require.NoError(t, err)
	_, err = inventory.Restock(ctx, admin, variety.ID, 100)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, poor int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inventory.Purchase(ctx, buyer, variety.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.KindOf(err) == apperr.KindInsufficientFunds:
				poor++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, 4, poor)

	balance, err := ledger.Balance(ctx, buyer.Email)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	amount, err := service.Amount(ctx, store, variety.ID)
	require.NoError(t, err)
	assert.Equal(t, 98, amount)
}

func TestRejectRefundsThroughDatabase(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testDB)
	ledger := service.NewLedgerService(store, nil)
	inventory := service.NewInventoryService(store, nil)
	admin, buyer := newAccounts(t, store)

	_, err := ledger.ManualTransaction(ctx, admin, buyer.Email, 50)
	require.NoError(t, err)
	product, err := inventory.CreateProduct(ctx, admin, domain.Product{Name: "Mug", Price: 30})
	require.NoError(t, err)
	variety, err := inventory.CreateVariety(ctx, admin, domain.Variety{ProductID: product.ID, Color: "white"})
	require.NoError(t, err)
	_, err = inventory.Restock(ctx, admin, variety.ID, 1)
	require.NoError(t, err)

	change, err := inventory.Purchase(ctx, buyer, variety.ID, 1)
	require.NoError(t, err)

	_, err = inventory.TransitionStatus(ctx, admin, change.ID, domain.StockChangeRejected)
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx, buyer.Email)
	require.NoError(t, err)
	assert.Equal(t, 50, balance)

	_, err = store.FindTransactionByStockChange(ctx, change.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConstraintsSurfaceAsKinds(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testDB)
	admin, buyer := newAccounts(t, store)

	_, err := store.CreateAccount(ctx, buyer)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	one := uint(1)
	_, err = store.InsertTransaction(ctx, domain.Transaction{
		AccountEmail:  admin.Email,
		Change:        1,
		StockChangeID: &one,
		FeedbackID:    &one,
	})
	assert.ErrorIs(t, err, apperr.ErrIntegrity)

	err = store.Atomic(ctx, func(ctx context.Context) error {
		if _, err := store.InsertTransaction(ctx, domain.Transaction{AccountEmail: buyer.Email, Change: 5}); err != nil {
			return err
		}
		return apperr.State("abort")
	})
	assert.ErrorIs(t, err, apperr.ErrState)

	sum, err := store.SumTransactions(ctx, buyer.Email)
	require.NoError(t, err)
	assert.Zero(t, sum)
}
