package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

// ActivityPatch holds the fields a moderator may change; nil means unchanged.
type ActivityPatch struct {
	Name              *string
	Description       *string
	Draft             *bool
	FixedReward       *bool
	WorkingHours      *int
	RewardRate        *int
	PeopleRequired    *int
	FeedbackQuestions []string
}

type ActivityService struct {
	store         Store
	notifier      Notifier
	pointsPerHour int
}

func NewActivityService(store Store, notifier Notifier, pointsPerHour int) *ActivityService {
	if pointsPerHour <= 0 {
		pointsPerHour = DefaultPointsPerHour
	}
	return &ActivityService{
		store:         store,
		notifier:      notifier,
		pointsPerHour: pointsPerHour,
	}
}

// normalizeReward enforces that an activity either pays a fixed reward for
// one unit of work or pays the global hourly rate.
func normalizeReward(a *domain.Activity, pointsPerHour int) error {
	if a.FixedReward {
		if a.WorkingHours == 0 {
			a.WorkingHours = 1
		}
		if a.WorkingHours != 1 {
			return apperr.Validation("fixed reward activities have exactly one working hour")
		}
		if a.RewardRate <= 0 {
			return apperr.Validation("fixed reward must be positive")
		}
		return nil
	}

	if a.RewardRate == 0 {
		a.RewardRate = pointsPerHour
	}
	if a.RewardRate != pointsPerHour {
		return apperr.Validation("hourly activities are paid %d points per hour", pointsPerHour)
	}
	if a.WorkingHours < 0 {
		return apperr.Validation("working hours must not be negative")
	}
	return nil
}

// editableProject locks the project and checks that caller may change its
// activities in the current stage.
func editableProject(ctx context.Context, repo ProjectRepository, caller domain.Account, projectID uint) (domain.Project, error) {
	project, err := repo.LockProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("repo.LockProject -> %w", err)
	}
	if !canModerate(project, caller) {
		return domain.Project{}, apperr.Permission("%s does not moderate project %d", caller.Email, projectID)
	}
	if !project.LifetimeStage.In(domain.StageDraft, domain.StageOngoing) {
		return domain.Project{}, apperr.State("activities of project %d are frozen in stage %s", projectID, project.LifetimeStage)
	}
	return project, nil
}

func (s *ActivityService) Create(ctx context.Context, caller domain.Account, projectID uint, activity domain.Activity) (domain.Activity, error) {
	if activity.Name == "" {
		return domain.Activity{}, apperr.Validation("activity name is required")
	}
	if activity.Name == domain.OtherActivityName {
		return domain.Activity{}, apperr.Validation("activity name %q is reserved", domain.OtherActivityName)
	}
	if activity.PeopleRequired != nil && *activity.PeopleRequired < 0 {
		return domain.Activity{}, apperr.Validation("people required must not be negative")
	}
	if err := normalizeReward(&activity, s.pointsPerHour); err != nil {
		return domain.Activity{}, err
	}
	activity.ProjectID = projectID
	activity.Internal = false

	var created domain.Activity
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		if _, err := editableProject(ctx, s.store, caller, projectID); err != nil {
			return err
		}
		a, err := s.store.CreateActivity(ctx, activity)
		if err != nil {
			return fmt.Errorf("s.store.CreateActivity -> %w", err)
		}
		created = a
		return nil
	})
	if err != nil {
		return domain.Activity{}, fmt.Errorf("ActivityService.Create -> %w", err)
	}

	return created, nil
}

// Patch applies the changed fields. Changing working hours moves the actual
// hours of every non-rejected application along with it.
func (s *ActivityService) Patch(ctx context.Context, caller domain.Account, activityID uint, patch ActivityPatch) (domain.Activity, error) {
	var updated domain.Activity
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		activity, err := s.store.FindActivity(ctx, activityID)
		if err != nil {
			return fmt.Errorf("s.store.FindActivity -> %w", err)
		}
		if activity.Internal {
			return apperr.Permission("activity %d is managed by the system", activityID)
		}
		if _, err = editableProject(ctx, s.store, caller, activity.ProjectID); err != nil {
			return err
		}

		oldHours := activity.WorkingHours
		if err = applyActivityPatch(&activity, patch, s.pointsPerHour); err != nil {
			return err
		}

		if err = s.store.UpdateActivity(ctx, activity); err != nil {
			return fmt.Errorf("s.store.UpdateActivity -> %w", err)
		}
		if activity.WorkingHours != oldHours {
			if err = s.store.SyncActualHours(ctx, activity.ID, activity.WorkingHours); err != nil {
				return fmt.Errorf("s.store.SyncActualHours -> %w", err)
			}
		}

		updated = activity
		return nil
	})
	if err != nil {
		return domain.Activity{}, fmt.Errorf("ActivityService.Patch -> %w", err)
	}

	return updated, nil
}

func applyActivityPatch(a *domain.Activity, p ActivityPatch, pointsPerHour int) error {
	if p.Name != nil {
		if *p.Name == "" || *p.Name == domain.OtherActivityName {
			return apperr.Validation("invalid activity name %q", *p.Name)
		}
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Draft != nil {
		a.Draft = *p.Draft
	}
	if p.FixedReward != nil && *p.FixedReward != a.FixedReward {
		a.FixedReward = *p.FixedReward
		// the other mode's values do not carry over
		if a.FixedReward {
			a.WorkingHours = 1
			a.RewardRate = 0
		} else {
			a.RewardRate = pointsPerHour
		}
	}
	if p.WorkingHours != nil {
		a.WorkingHours = *p.WorkingHours
	}
	if p.RewardRate != nil {
		a.RewardRate = *p.RewardRate
	}
	if p.PeopleRequired != nil {
		if *p.PeopleRequired < 0 {
			a.PeopleRequired = nil
		} else {
			n := *p.PeopleRequired
			a.PeopleRequired = &n
		}
	}
	if p.FeedbackQuestions != nil {
		a.FeedbackQuestions = p.FeedbackQuestions
	}
	return normalizeReward(a, pointsPerHour)
}

// Delete removes the activity and its applications. Applicants are told
// their application is gone.
func (s *ActivityService) Delete(ctx context.Context, caller domain.Account, activityID uint) error {
	var out outbox
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		activity, err := s.store.FindActivity(ctx, activityID)
		if err != nil {
			return fmt.Errorf("s.store.FindActivity -> %w", err)
		}
		if activity.Internal {
			return apperr.Permission("activity %d is managed by the system", activityID)
		}
		if _, err = editableProject(ctx, s.store, caller, activity.ProjectID); err != nil {
			return err
		}

		removed, err := deleteApplications(ctx, s.store, activityID)
		if err != nil {
			return err
		}
		if err = s.store.DeleteActivity(ctx, activityID); err != nil {
			return fmt.Errorf("s.store.DeleteActivity -> %w", err)
		}

		for _, app := range removed {
			out.add(app.ApplicantEmail, domain.NotifyService, map[string]any{
				"message":     fmt.Sprintf("the activity %q was deleted along with your application", activity.Name),
				"activity_id": activityID,
				"project_id":  activity.ProjectID,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ActivityService.Delete -> %w", err)
	}

	zap.L().Info("activity deleted", zap.Uint("activity", activityID), zap.Int("applications", len(out)))
	out.flush(ctx, s.notifier)
	return nil
}

func (s *ActivityService) Activity(ctx context.Context, id uint) (domain.Activity, error) {
	activity, err := s.store.FindActivity(ctx, id)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("s.store.FindActivity -> %w", err)
	}
	return activity, nil
}

// Activities lists the user-facing activities of a project.
func (s *ActivityService) Activities(ctx context.Context, projectID uint) ([]domain.Activity, error) {
	if _, err := s.store.FindProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("s.store.FindProject -> %w", err)
	}

	all, err := s.store.ListActivities(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("s.store.ListActivities -> %w", err)
	}

	activities := make([]domain.Activity, 0, len(all))
	for _, a := range all {
		if a.Internal {
			continue
		}
		activities = append(activities, a)
	}
	return activities, nil
}

// VacantSpots is informational; applying does not consult it.
func (s *ActivityService) VacantSpots(ctx context.Context, activityID uint) (int, error) {
	activity, err := s.store.FindActivity(ctx, activityID)
	if err != nil {
		return 0, fmt.Errorf("s.store.FindActivity -> %w", err)
	}
	approved, err := s.store.CountApplications(ctx, activityID, domain.ApplicationApproved)
	if err != nil {
		return 0, fmt.Errorf("s.store.CountApplications -> %w", err)
	}
	return activity.VacantSpots(approved), nil
}
