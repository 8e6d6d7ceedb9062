package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/metrics"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

type LifecycleService struct {
	store         Store
	notifier      Notifier
	pointsPerHour int
}

func NewLifecycleService(store Store, notifier Notifier, pointsPerHour int) *LifecycleService {
	if pointsPerHour <= 0 {
		pointsPerHour = DefaultPointsPerHour
	}
	return &LifecycleService{
		store:         store,
		notifier:      notifier,
		pointsPerHour: pointsPerHour,
	}
}

func (s *LifecycleService) Project(ctx context.Context, id uint) (domain.Project, error) {
	project, err := s.store.FindProject(ctx, id)
	if err != nil {
		return domain.Project{}, fmt.Errorf("s.store.FindProject -> %w", err)
	}
	return project, nil
}

// CreateProject starts a project in draft with its creator as the first
// moderator and the internal activity used for post-hoc rewards.
func (s *LifecycleService) CreateProject(ctx context.Context, caller domain.Account, project domain.Project) (domain.Project, error) {
	if project.Name == "" {
		return domain.Project{}, apperr.Validation("project name is required")
	}

	project.CreatorEmail = caller.Email
	project.LifetimeStage = domain.StageDraft
	project.ReviewStatus = domain.ReviewPending
	project.Moderators = nil

	var created domain.Project
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		p, err := s.store.CreateProject(ctx, project)
		if err != nil {
			return fmt.Errorf("s.store.CreateProject -> %w", err)
		}
		if err = s.store.AddModerator(ctx, p.ID, caller.Email); err != nil {
			return fmt.Errorf("s.store.AddModerator -> %w", err)
		}
		if _, err = s.store.CreateActivity(ctx, domain.Activity{
			ProjectID:    p.ID,
			Name:         domain.OtherActivityName,
			Internal:     true,
			WorkingHours: 1,
			RewardRate:   s.pointsPerHour,
		}); err != nil {
			return fmt.Errorf("s.store.CreateActivity -> %w", err)
		}

		p.Moderators = []string{caller.Email}
		created = p
		return nil
	})
	if err != nil {
		return domain.Project{}, fmt.Errorf("LifecycleService.CreateProject -> %w", err)
	}

	return created, nil
}

// Publish moves a draft project to ongoing and asks administrators to review it.
func (s *LifecycleService) Publish(ctx context.Context, caller domain.Account, projectID uint) (domain.Project, error) {
	return s.advance(ctx, caller, projectID, domain.StageOngoing, func(p domain.Project) bool {
		return caller.IsAdmin || p.CreatorEmail == caller.Email
	})
}

// Finalize closes applications; approved volunteers are invited to claim
// their innopoints by leaving feedback.
func (s *LifecycleService) Finalize(ctx context.Context, caller domain.Account, projectID uint) (domain.Project, error) {
	return s.advance(ctx, caller, projectID, domain.StageFinalizing, func(p domain.Project) bool {
		return canModerate(p, caller)
	})
}

func (s *LifecycleService) Close(ctx context.Context, caller domain.Account, projectID uint) (domain.Project, error) {
	return s.advance(ctx, caller, projectID, domain.StageFinished, func(p domain.Project) bool {
		return canModerate(p, caller)
	})
}

func (s *LifecycleService) advance(ctx context.Context, caller domain.Account, projectID uint, target domain.LifetimeStage, allowed func(domain.Project) bool) (domain.Project, error) {
	var (
		result domain.Project
		out    outbox
	)
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		project, err := s.store.LockProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("s.store.LockProject -> %w", err)
		}
		if !allowed(project) {
			return apperr.Permission("%s may not move project %d to %s", caller.Email, projectID, target)
		}
		if !project.LifetimeStage.CanAdvanceTo(target) {
			return apperr.State("project %d cannot move from %s to %s", projectID, project.LifetimeStage, target)
		}

		if err = s.store.UpdateProjectStage(ctx, projectID, target); err != nil {
			return fmt.Errorf("s.store.UpdateProjectStage -> %w", err)
		}

		switch target {
		case domain.StageOngoing:
			admins, err := adminEmails(ctx, s.store)
			if err != nil {
				return fmt.Errorf("adminEmails -> %w", err)
			}
			for _, admin := range admins {
				out.add(admin, domain.NotifyProjectReviewRequested, map[string]any{"project_id": projectID})
			}
		case domain.StageFinalizing:
			if err = s.inviteToClaim(ctx, projectID, &out); err != nil {
				return err
			}
		}

		project.LifetimeStage = target
		result = project
		return nil
	})
	if err != nil {
		return domain.Project{}, fmt.Errorf("LifecycleService.advance -> %w", err)
	}

	zap.L().Info("project stage changed", zap.Uint("project", projectID), zap.String("stage", string(target)))
	metrics.RecordStageTransition(string(target))
	out.flush(ctx, s.notifier)

	return result, nil
}

func (s *LifecycleService) inviteToClaim(ctx context.Context, projectID uint, out *outbox) error {
	activities, err := s.store.ListActivities(ctx, projectID)
	if err != nil {
		return fmt.Errorf("s.store.ListActivities -> %w", err)
	}
	for _, a := range activities {
		apps, err := s.store.ListApplications(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("s.store.ListApplications -> %w", err)
		}
		for _, app := range apps {
			if app.Status != domain.ApplicationApproved {
				continue
			}
			out.add(app.ApplicantEmail, domain.NotifyClaimInnopoints, map[string]any{
				"project_id":     projectID,
				"application_id": app.ID,
			})
		}
	}
	return nil
}

// Review records the administrators' verdict. It is independent of the stage.
func (s *LifecycleService) Review(ctx context.Context, caller domain.Account, projectID uint, status domain.ReviewStatus) (domain.Project, error) {
	if !caller.IsAdmin {
		return domain.Project{}, apperr.Permission("only administrators may review projects")
	}
	if !status.Valid() {
		return domain.Project{}, apperr.Validation("unknown review status %q", status)
	}

	var result domain.Project
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		project, err := s.store.LockProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("s.store.LockProject -> %w", err)
		}
		if project.LifetimeStage == domain.StageDraft {
			return apperr.State("project %d has not been published", projectID)
		}
		if err = s.store.UpdateProjectReviewStatus(ctx, projectID, status); err != nil {
			return fmt.Errorf("s.store.UpdateProjectReviewStatus -> %w", err)
		}
		project.ReviewStatus = status
		result = project
		return nil
	})
	if err != nil {
		return domain.Project{}, fmt.Errorf("LifecycleService.Review -> %w", err)
	}

	var out outbox
	out.add(result.CreatorEmail, domain.NotifyProjectReviewStatusChanged, map[string]any{
		"project_id":    projectID,
		"review_status": status,
	})
	out.flush(ctx, s.notifier)

	return result, nil
}

func (s *LifecycleService) AddModerator(ctx context.Context, caller domain.Account, projectID uint, email string) (domain.Project, error) {
	var result domain.Project
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		project, err := s.store.LockProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("s.store.LockProject -> %w", err)
		}
		if !caller.IsAdmin && project.CreatorEmail != caller.Email {
			return apperr.Permission("only the creator may appoint moderators")
		}
		if project.LifetimeStage == domain.StageFinished {
			return apperr.State("project %d is finished", projectID)
		}
		if _, err = s.store.FindAccount(ctx, email); err != nil {
			return fmt.Errorf("s.store.FindAccount -> %w", err)
		}
		if isModerator(project, email) {
			return apperr.Conflict("%s already moderates project %d", email, projectID)
		}
		if err = s.store.AddModerator(ctx, projectID, email); err != nil {
			return fmt.Errorf("s.store.AddModerator -> %w", err)
		}
		project.Moderators = append(project.Moderators, email)
		result = project
		return nil
	})
	if err != nil {
		return domain.Project{}, fmt.Errorf("LifecycleService.AddModerator -> %w", err)
	}

	var out outbox
	out.add(email, domain.NotifyAddedAsModerator, map[string]any{"project_id": projectID})
	out.flush(ctx, s.notifier)

	return result, nil
}

// DeleteProject removes a draft project together with everything it owns, in
// dependency order, as one unit of work. Projects past draft may hold rewards
// and are never deleted.
func (s *LifecycleService) DeleteProject(ctx context.Context, caller domain.Account, projectID uint) error {
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		project, err := s.store.LockProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("s.store.LockProject -> %w", err)
		}
		if !caller.IsAdmin && project.CreatorEmail != caller.Email {
			return apperr.Permission("only the creator may delete project %d", projectID)
		}
		if project.LifetimeStage != domain.StageDraft {
			return apperr.State("project %d is %s; only drafts may be deleted", projectID, project.LifetimeStage)
		}

		activities, err := s.store.ListActivities(ctx, projectID)
		if err != nil {
			return fmt.Errorf("s.store.ListActivities -> %w", err)
		}
		for _, a := range activities {
			if err = s.deleteActivityTree(ctx, a.ID); err != nil {
				return err
			}
		}

		if err = s.store.DeleteProject(ctx, projectID); err != nil {
			return fmt.Errorf("s.store.DeleteProject -> %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("LifecycleService.DeleteProject -> %w", err)
	}

	zap.L().Info("project deleted", zap.Uint("project", projectID), zap.String("by", caller.Email))
	return nil
}

// deleteActivityTree deletes reports, feedback and applications of an
// activity, then the activity itself.
func (s *LifecycleService) deleteActivityTree(ctx context.Context, activityID uint) error {
	if _, err := deleteApplications(ctx, s.store, activityID); err != nil {
		return err
	}
	if err := s.store.DeleteActivity(ctx, activityID); err != nil {
		return fmt.Errorf("s.store.DeleteActivity -> %w", err)
	}
	return nil
}

// deleteApplications removes every application of an activity and returns
// them. Applications already rewarded block the deletion.
func deleteApplications(ctx context.Context, repo ApplicationRepository, activityID uint) ([]domain.Application, error) {
	apps, err := repo.ListApplications(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("repo.ListApplications -> %w", err)
	}
	for _, app := range apps {
		if app.HasFeedback {
			return nil, apperr.State("application %d already holds a reward", app.ID)
		}
		if err = repo.DeleteReports(ctx, app.ID); err != nil {
			return nil, fmt.Errorf("repo.DeleteReports -> %w", err)
		}
		if err = repo.DeleteApplication(ctx, app.ID); err != nil {
			return nil, fmt.Errorf("repo.DeleteApplication -> %w", err)
		}
	}
	return apps, nil
}
