package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

// ApplicationPatch is a moderator's edit of an application.
type ApplicationPatch struct {
	Status      *domain.ApplicationStatus
	ActualHours *int
}

type ApplicationService struct {
	store    Store
	notifier Notifier
}

func NewApplicationService(store Store, notifier Notifier) *ApplicationService {
	return &ApplicationService{
		store:    store,
		notifier: notifier,
	}
}

func (s *ApplicationService) Application(ctx context.Context, id uint) (domain.Application, error) {
	app, err := s.store.FindApplication(ctx, id)
	if err != nil {
		return domain.Application{}, fmt.Errorf("s.store.FindApplication -> %w", err)
	}
	return app, nil
}

// Applications lists the applications of an activity for its moderators.
func (s *ApplicationService) Applications(ctx context.Context, caller domain.Account, activityID uint) ([]domain.Application, error) {
	activity, err := s.store.FindActivity(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("s.store.FindActivity -> %w", err)
	}
	project, err := s.store.FindProject(ctx, activity.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("s.store.FindProject -> %w", err)
	}
	if !canModerate(project, caller) {
		return nil, apperr.Permission("%s does not moderate project %d", caller.Email, project.ID)
	}

	apps, err := s.store.ListApplications(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("s.store.ListApplications -> %w", err)
	}
	return apps, nil
}

// Apply creates a pending application of caller. The unique constraint on
// (applicant, activity) is what rejects concurrent duplicates; the lookup
// before it only gives a clearer error.
func (s *ApplicationService) Apply(ctx context.Context, caller domain.Account, activityID uint, comment, telegram string) (domain.Application, error) {
	var created domain.Application
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		activity, err := s.store.FindActivity(ctx, activityID)
		if err != nil {
			return fmt.Errorf("s.store.FindActivity -> %w", err)
		}
		if activity.Internal {
			return apperr.Permission("activity %d does not take applications", activityID)
		}
		if activity.Draft {
			return apperr.State("activity %d is a draft", activityID)
		}

		project, err := s.store.LockProject(ctx, activity.ProjectID)
		if err != nil {
			return fmt.Errorf("s.store.LockProject -> %w", err)
		}
		if project.LifetimeStage != domain.StageOngoing {
			return apperr.State("project %d is %s; applications require ongoing", project.ID, project.LifetimeStage)
		}

		_, err = s.store.FindApplicationByApplicant(ctx, activityID, caller.Email)
		if err == nil {
			return apperr.Conflict("%s already applied to activity %d", caller.Email, activityID)
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("s.store.FindApplicationByApplicant -> %w", err)
		}

		app, err := s.store.CreateApplication(ctx, domain.Application{
			ActivityID:     activityID,
			ApplicantEmail: caller.Email,
			Comment:        comment,
			Telegram:       telegram,
			Status:         domain.ApplicationPending,
			ActualHours:    activity.WorkingHours,
		})
		if err != nil {
			return fmt.Errorf("s.store.CreateApplication -> %w", err)
		}
		created = app
		return nil
	})
	if err != nil {
		return domain.Application{}, fmt.Errorf("ApplicationService.Apply -> %w", err)
	}

	return created, nil
}

// Withdraw deletes caller's own application while the project is ongoing.
func (s *ApplicationService) Withdraw(ctx context.Context, caller domain.Account, activityID uint) error {
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		activity, err := s.store.FindActivity(ctx, activityID)
		if err != nil {
			return fmt.Errorf("s.store.FindActivity -> %w", err)
		}
		project, err := s.store.LockProject(ctx, activity.ProjectID)
		if err != nil {
			return fmt.Errorf("s.store.LockProject -> %w", err)
		}
		if project.LifetimeStage != domain.StageOngoing {
			return apperr.State("project %d is %s; withdrawal requires ongoing", project.ID, project.LifetimeStage)
		}

		app, err := s.store.FindApplicationByApplicant(ctx, activityID, caller.Email)
		if err != nil {
			return fmt.Errorf("s.store.FindApplicationByApplicant -> %w", err)
		}
		if err = s.store.DeleteReports(ctx, app.ID); err != nil {
			return fmt.Errorf("s.store.DeleteReports -> %w", err)
		}
		if err = s.store.DeleteApplication(ctx, app.ID); err != nil {
			return fmt.Errorf("s.store.DeleteApplication -> %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ApplicationService.Withdraw -> %w", err)
	}

	return nil
}

// EditApplication changes the status or the actual hours of an application.
// Status edits are allowed while the project is ongoing, or while it is
// finalizing for the internal activity.
func (s *ApplicationService) EditApplication(ctx context.Context, caller domain.Account, applicationID uint, patch ApplicationPatch) (domain.Application, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Application{}, apperr.Validation("unknown application status %q", *patch.Status)
	}
	if patch.ActualHours != nil && *patch.ActualHours < 0 {
		return domain.Application{}, apperr.Validation("actual hours must not be negative")
	}

	var (
		updated domain.Application
		out     outbox
	)
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		app, err := s.store.FindApplication(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("s.store.FindApplication -> %w", err)
		}
		activity, err := s.store.FindActivity(ctx, app.ActivityID)
		if err != nil {
			return fmt.Errorf("s.store.FindActivity -> %w", err)
		}
		project, err := s.store.LockProject(ctx, activity.ProjectID)
		if err != nil {
			return fmt.Errorf("s.store.LockProject -> %w", err)
		}
		if !canModerate(project, caller) {
			return apperr.Permission("%s does not moderate project %d", caller.Email, project.ID)
		}
		if app.HasFeedback {
			return apperr.State("application %d has already been rewarded", applicationID)
		}

		oldStatus := app.Status
		if patch.Status != nil {
			allowed := domain.StageOngoing
			if activity.Internal {
				allowed = domain.StageFinalizing
			}
			if project.LifetimeStage != allowed {
				return apperr.State("application status cannot change while project %d is %s", project.ID, project.LifetimeStage)
			}
			app.Status = *patch.Status
		}

		if patch.ActualHours != nil {
			if activity.FixedReward {
				return apperr.Validation("activity %d pays a fixed reward; hours cannot change", activity.ID)
			}
			if !project.LifetimeStage.In(domain.StageOngoing, domain.StageFinalizing) {
				return apperr.State("hours cannot change while project %d is %s", project.ID, project.LifetimeStage)
			}
			app.ActualHours = *patch.ActualHours
		}

		if err = s.store.UpdateApplication(ctx, app); err != nil {
			return fmt.Errorf("s.store.UpdateApplication -> %w", err)
		}

		if app.Status != oldStatus {
			out.add(app.ApplicantEmail, domain.NotifyApplicationStatusChanged, map[string]any{
				"application_id": app.ID,
				"activity_id":    activity.ID,
				"status":         app.Status,
			})
		}
		updated = app
		return nil
	})
	if err != nil {
		return domain.Application{}, fmt.Errorf("ApplicationService.EditApplication -> %w", err)
	}

	out.flush(ctx, s.notifier)
	return updated, nil
}

// SubmitReport stores a moderator's assessment of a volunteer. Each
// moderator reports once per application.
func (s *ApplicationService) SubmitReport(ctx context.Context, caller domain.Account, applicationID uint, rating int, content string) (domain.VolunteeringReport, error) {
	if rating < domain.MinReportRating || rating > domain.MaxReportRating {
		return domain.VolunteeringReport{}, apperr.Validation("rating must be between %d and %d", domain.MinReportRating, domain.MaxReportRating)
	}

	var created domain.VolunteeringReport
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		app, err := s.store.FindApplication(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("s.store.FindApplication -> %w", err)
		}
		activity, err := s.store.FindActivity(ctx, app.ActivityID)
		if err != nil {
			return fmt.Errorf("s.store.FindActivity -> %w", err)
		}
		project, err := s.store.FindProject(ctx, activity.ProjectID)
		if err != nil {
			return fmt.Errorf("s.store.FindProject -> %w", err)
		}
		if !canModerate(project, caller) {
			return apperr.Permission("%s does not moderate project %d", caller.Email, project.ID)
		}
		if !project.LifetimeStage.In(domain.StageOngoing, domain.StageFinalizing) {
			return apperr.State("reports are closed while project %d is %s", project.ID, project.LifetimeStage)
		}

		report, err := s.store.InsertReport(ctx, domain.VolunteeringReport{
			ApplicationID: applicationID,
			ReporterEmail: caller.Email,
			Rating:        rating,
			Content:       content,
		})
		if err != nil {
			return fmt.Errorf("s.store.InsertReport -> %w", err)
		}
		created = report
		return nil
	})
	if err != nil {
		return domain.VolunteeringReport{}, fmt.Errorf("ApplicationService.SubmitReport -> %w", err)
	}

	zap.L().Debug("report submitted", zap.Uint("application", applicationID), zap.String("reporter", caller.Email))
	return created, nil
}
