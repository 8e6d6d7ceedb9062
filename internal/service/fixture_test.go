package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/repository/memory"
	"github.com/innopoints/innopoints-api/internal/service"
)

const pointsPerHour = 100

var (
	admin     = domain.Account{Email: "admin@innopolis.ru", FullName: "Store Admin", IsAdmin: true}
	student   = domain.Account{Email: "s.student@innopolis.university", FullName: "Sam Student"}
	organizer = domain.Account{Email: "o.organizer@innopolis.university", FullName: "Olga Organizer"}
	outsider  = domain.Account{Email: "n.nobody@innopolis.university", FullName: "No Body"}
)

type recorder struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recorder) Notify(_ context.Context, recipient string, kind domain.NotificationType, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, domain.Notification{Recipient: recipient, Type: kind, Payload: payload})
}

func (r *recorder) of(kind domain.NotificationType) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Notification
	for _, n := range r.sent {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

func (r *recorder) recipients(kind domain.NotificationType) []string {
	var out []string
	for _, n := range r.of(kind) {
		out = append(out, n.Recipient)
	}
	return out
}

type fixture struct {
	ctx         context.Context
	store       *memory.Store
	notes       *recorder
	ledger      *service.LedgerService
	inventory   *service.InventoryService
	lifecycle   *service.LifecycleService
	activities  *service.ActivityService
	application *service.ApplicationService
	reward      *service.RewardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:   context.Background(),
		store: memory.New(),
		notes: &recorder{},
	}
	f.ledger = service.NewLedgerService(f.store, f.notes)
	f.inventory = service.NewInventoryService(f.store, f.notes)
	f.lifecycle = service.NewLifecycleService(f.store, f.notes, pointsPerHour)
	f.activities = service.NewActivityService(f.store, f.notes, pointsPerHour)
	f.application = service.NewApplicationService(f.store, f.notes)
	f.reward = service.NewRewardService(f.store, f.notes)

	for _, a := range []domain.Account{admin, student, organizer, outsider} {
		_, err := f.store.CreateAccount(f.ctx, a)
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) grant(t *testing.T, email string, points int) {
	t.Helper()
	_, err := f.ledger.ManualTransaction(f.ctx, admin, email, points)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, email string) int {
	t.Helper()
	b, err := f.ledger.Balance(f.ctx, email)
	require.NoError(t, err)
	return b
}

// hoodie creates a product priced at price with one variety holding the
// given carried out stock changes.
func (f *fixture) hoodie(t *testing.T, price int, changes ...int) domain.Variety {
	t.Helper()

	product, err := f.inventory.CreateProduct(f.ctx, admin, domain.Product{Name: "Innopolis hoodie", Price: price})
	require.NoError(t, err)
	variety, err := f.inventory.CreateVariety(f.ctx, admin, domain.Variety{ProductID: product.ID, Color: "black", Size: "M"})
	require.NoError(t, err)

	for _, amount := range changes {
		_, err = f.store.InsertStockChange(f.ctx, domain.StockChange{
			VarietyID:    variety.ID,
			AccountEmail: admin.Email,
			Amount:       amount,
			Status:       domain.StockChangeCarriedOut,
		})
		require.NoError(t, err)
	}
	return variety
}

func (f *fixture) amount(t *testing.T, varietyID uint) int {
	t.Helper()
	n, err := service.Amount(f.ctx, f.store, varietyID)
	require.NoError(t, err)
	return n
}

// project creates a draft project by organizer with one hourly activity.
func (f *fixture) project(t *testing.T, hours int, questions ...string) (domain.Project, domain.Activity) {
	t.Helper()

	project, err := f.lifecycle.CreateProject(f.ctx, organizer, domain.Project{Name: "Open Day"})
	require.NoError(t, err)
	activity, err := f.activities.Create(f.ctx, organizer, project.ID, domain.Activity{
		Name:              "Campus tours",
		WorkingHours:      hours,
		FeedbackQuestions: questions,
	})
	require.NoError(t, err)
	return project, activity
}

// approved publishes the project and returns an approved application of student.
func (f *fixture) approved(t *testing.T, project domain.Project, activity domain.Activity) domain.Application {
	t.Helper()

	_, err := f.lifecycle.Publish(f.ctx, organizer, project.ID)
	require.NoError(t, err)
	app, err := f.application.Apply(f.ctx, student, activity.ID, "", "")
	require.NoError(t, err)
	status := domain.ApplicationApproved
	app, err = f.application.EditApplication(f.ctx, organizer, app.ID, service.ApplicationPatch{Status: &status})
	require.NoError(t, err)
	return app
}
