package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/innopoints/innopoints-api/internal/domain"
)

// DefaultPointsPerHour is the reward rate of every hourly activity unless
// configured otherwise.
const DefaultPointsPerHour = 70

type AccountRepository interface {
	CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error)
	FindAccount(ctx context.Context, email string) (domain.Account, error)
	LockAccount(ctx context.Context, email string) (domain.Account, error)
	ListAccounts(ctx context.Context, admins bool) ([]domain.Account, error)
}

type LedgerRepository interface {
	SumTransactions(ctx context.Context, email string) (int, error)
	InsertTransaction(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id uint) error
	FindTransactionByStockChange(ctx context.Context, stockChangeID uint) (domain.Transaction, error)
	ListTransactions(ctx context.Context, email string) ([]domain.Transaction, error)
}

type InventoryRepository interface {
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	FindProduct(ctx context.Context, id uint) (domain.Product, error)
	CreateVariety(ctx context.Context, variety domain.Variety) (domain.Variety, error)
	FindVariety(ctx context.Context, id uint) (domain.Variety, error)
	LockVariety(ctx context.Context, id uint) (domain.Variety, error)
	SumStock(ctx context.Context, varietyID uint) (int, error)
	SumPurchases(ctx context.Context, varietyID uint) (int, error)
	InsertStockChange(ctx context.Context, change domain.StockChange) (domain.StockChange, error)
	FindStockChange(ctx context.Context, id uint) (domain.StockChange, error)
	LockStockChange(ctx context.Context, id uint) (domain.StockChange, error)
	UpdateStockChangeStatus(ctx context.Context, id uint, status domain.StockChangeStatus) error
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project domain.Project) (domain.Project, error)
	FindProject(ctx context.Context, id uint) (domain.Project, error)
	LockProject(ctx context.Context, id uint) (domain.Project, error)
	UpdateProjectStage(ctx context.Context, id uint, stage domain.LifetimeStage) error
	UpdateProjectReviewStatus(ctx context.Context, id uint, status domain.ReviewStatus) error
	AddModerator(ctx context.Context, projectID uint, email string) error
	ListProjectsInStage(ctx context.Context, stage domain.LifetimeStage) ([]domain.Project, error)
	DeleteProject(ctx context.Context, id uint) error
}

type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity domain.Activity) (domain.Activity, error)
	FindActivity(ctx context.Context, id uint) (domain.Activity, error)
	UpdateActivity(ctx context.Context, activity domain.Activity) error
	DeleteActivity(ctx context.Context, id uint) error
	ListActivities(ctx context.Context, projectID uint) ([]domain.Activity, error)
}

type ApplicationRepository interface {
	CreateApplication(ctx context.Context, application domain.Application) (domain.Application, error)
	FindApplication(ctx context.Context, id uint) (domain.Application, error)
	FindApplicationByApplicant(ctx context.Context, activityID uint, email string) (domain.Application, error)
	UpdateApplication(ctx context.Context, application domain.Application) error
	DeleteApplication(ctx context.Context, id uint) error
	ListApplications(ctx context.Context, activityID uint) ([]domain.Application, error)
	CountApplications(ctx context.Context, activityID uint, status domain.ApplicationStatus) (int, error)
	CountAwaitingFeedback(ctx context.Context, projectID uint) (int, error)
	SyncActualHours(ctx context.Context, activityID uint, hours int) error
	InsertFeedback(ctx context.Context, feedback domain.Feedback) (domain.Feedback, error)
	FindFeedback(ctx context.Context, applicationID uint) (domain.Feedback, error)
	DeleteFeedback(ctx context.Context, applicationID uint) error
	InsertReport(ctx context.Context, report domain.VolunteeringReport) (domain.VolunteeringReport, error)
	DeleteReports(ctx context.Context, applicationID uint) error
}

type Repository interface {
	AccountRepository
	LedgerRepository
	InventoryRepository
	ProjectRepository
	ActivityRepository
	ApplicationRepository
}

// Store is the persistence the core runs against.
//
// Atomic runs fn as one all-or-nothing unit of work. Repository calls made
// with the context handed to fn join that unit of work; Lock* calls hold
// their row until it ends.
type Store interface {
	Repository
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier delivers post-commit signals. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, recipient string, kind domain.NotificationType, payload map[string]any)
}

// outbox collects notifications inside a unit of work so that they are only
// sent once it has committed.
type outbox []domain.Notification

func (o *outbox) add(recipient string, kind domain.NotificationType, payload map[string]any) {
	*o = append(*o, domain.Notification{Recipient: recipient, Type: kind, Payload: payload})
}

func (o outbox) flush(ctx context.Context, notifier Notifier) {
	if notifier == nil {
		return
	}
	for _, n := range o {
		notifier.Notify(ctx, n.Recipient, n.Type, n.Payload)
	}
	if len(o) > 0 {
		zap.L().Debug("notifications sent", zap.Int("count", len(o)))
	}
}

func isModerator(project domain.Project, email string) bool {
	for _, m := range project.Moderators {
		if m == email {
			return true
		}
	}
	return false
}

func canModerate(project domain.Project, caller domain.Account) bool {
	return caller.IsAdmin || project.CreatorEmail == caller.Email || isModerator(project, caller.Email)
}

// adminEmails lists every administrator; used to fan out store signals.
func adminEmails(ctx context.Context, repo AccountRepository) ([]string, error) {
	admins, err := repo.ListAccounts(ctx, true)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(admins))
	for _, a := range admins {
		emails = append(emails, a.Email)
	}
	return emails, nil
}
