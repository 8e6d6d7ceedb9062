package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/metrics"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

type RewardService struct {
	store    Store
	notifier Notifier
}

func NewRewardService(store Store, notifier Notifier) *RewardService {
	return &RewardService{
		store:    store,
		notifier: notifier,
	}
}

// LeaveFeedback stores the volunteer's answers and pays the reward for the
// application in one unit of work. The reward row is written even when it is
// zero; it marks the application as settled.
func (s *RewardService) LeaveFeedback(ctx context.Context, caller domain.Account, applicationID uint, answers []string) (domain.Feedback, domain.Transaction, error) {
	var (
		feedback  domain.Feedback
		reward    domain.Transaction
		projectID uint
	)
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		app, err := s.store.FindApplication(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("s.store.FindApplication -> %w", err)
		}
		if app.ApplicantEmail != caller.Email {
			return apperr.Permission("application %d belongs to another volunteer", applicationID)
		}
		if app.Status != domain.ApplicationApproved {
			return apperr.State("application %d is %s, not approved", applicationID, app.Status)
		}
		if app.HasFeedback {
			return apperr.Conflict("feedback for application %d already exists", applicationID)
		}

		activity, err := s.store.FindActivity(ctx, app.ActivityID)
		if err != nil {
			return fmt.Errorf("s.store.FindActivity -> %w", err)
		}
		project, err := s.store.FindProject(ctx, activity.ProjectID)
		if err != nil {
			return fmt.Errorf("s.store.FindProject -> %w", err)
		}
		if project.LifetimeStage != domain.StageFinalizing {
			return apperr.State("project %d is %s; feedback is collected while finalizing", project.ID, project.LifetimeStage)
		}
		if len(answers) != len(activity.FeedbackQuestions) {
			return apperr.Validation("expected %d answers, got %d", len(activity.FeedbackQuestions), len(answers))
		}

		if _, err = s.store.LockAccount(ctx, app.ApplicantEmail); err != nil {
			return fmt.Errorf("s.store.LockAccount -> %w", err)
		}

		feedback, err = s.store.InsertFeedback(ctx, domain.Feedback{
			ApplicationID: applicationID,
			Answers:       answers,
		})
		if err != nil {
			return fmt.Errorf("s.store.InsertFeedback -> %w", err)
		}

		link := applicationID
		reward, err = Record(ctx, s.store, domain.Transaction{
			AccountEmail: app.ApplicantEmail,
			Change:       app.ActualHours * activity.RewardRate,
			FeedbackID:   &link,
		})
		if err != nil {
			return err
		}

		projectID = project.ID
		return nil
	})
	if err != nil {
		return domain.Feedback{}, domain.Transaction{}, fmt.Errorf("RewardService.LeaveFeedback -> %w", err)
	}

	zap.L().Info("reward issued",
		zap.Uint("application", applicationID), zap.String("account", caller.Email), zap.Int("change", reward.Change))
	metrics.RecordTransaction("reward", reward.Change)
	s.announceAllFeedbackIn(ctx, projectID)

	return feedback, reward, nil
}

// announceAllFeedbackIn tells the project staff once no approved volunteer
// is left without feedback. It runs after commit; failures are only logged.
func (s *RewardService) announceAllFeedbackIn(ctx context.Context, projectID uint) {
	awaiting, err := s.store.CountAwaitingFeedback(ctx, projectID)
	if err != nil {
		zap.L().Warn("s.store.CountAwaitingFeedback", zap.Uint("project", projectID), zap.Error(err))
		return
	}
	if awaiting > 0 {
		return
	}

	project, err := s.store.FindProject(ctx, projectID)
	if err != nil {
		zap.L().Warn("s.store.FindProject", zap.Uint("project", projectID), zap.Error(err))
		return
	}

	var out outbox
	seen := make(map[string]bool, len(project.Moderators)+1)
	for _, email := range append([]string{project.CreatorEmail}, project.Moderators...) {
		if seen[email] {
			continue
		}
		seen[email] = true
		out.add(email, domain.NotifyAllFeedbackIn, map[string]any{"project_id": projectID})
	}
	out.flush(ctx, s.notifier)
}

// RemindUnclaimed reminds every approved volunteer of a finalizing project
// who has not left feedback yet. It returns the number of reminders sent.
func (s *RewardService) RemindUnclaimed(ctx context.Context) (int, error) {
	projects, err := s.store.ListProjectsInStage(ctx, domain.StageFinalizing)
	if err != nil {
		return 0, fmt.Errorf("s.store.ListProjectsInStage -> %w", err)
	}

	var out outbox
	for _, project := range projects {
		activities, err := s.store.ListActivities(ctx, project.ID)
		if err != nil {
			return 0, fmt.Errorf("s.store.ListActivities -> %w", err)
		}
		for _, a := range activities {
			apps, err := s.store.ListApplications(ctx, a.ID)
			if err != nil {
				return 0, fmt.Errorf("s.store.ListApplications -> %w", err)
			}
			for _, app := range apps {
				if app.Status != domain.ApplicationApproved || app.HasFeedback {
					continue
				}
				out.add(app.ApplicantEmail, domain.NotifyClaimInnopoints, map[string]any{
					"project_id":     project.ID,
					"application_id": app.ID,
					"reminder":       true,
				})
			}
		}
	}
	out.flush(ctx, s.notifier)

	return len(out), nil
}

func (s *RewardService) Feedback(ctx context.Context, caller domain.Account, applicationID uint) (domain.Feedback, error) {
	app, err := s.store.FindApplication(ctx, applicationID)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("s.store.FindApplication -> %w", err)
	}
	if app.ApplicantEmail != caller.Email && !caller.IsAdmin {
		activity, err := s.store.FindActivity(ctx, app.ActivityID)
		if err != nil {
			return domain.Feedback{}, fmt.Errorf("s.store.FindActivity -> %w", err)
		}
		project, err := s.store.FindProject(ctx, activity.ProjectID)
		if err != nil {
			return domain.Feedback{}, fmt.Errorf("s.store.FindProject -> %w", err)
		}
		if !canModerate(project, caller) {
			return domain.Feedback{}, apperr.Permission("feedback of application %d is not visible to %s", applicationID, caller.Email)
		}
	}

	feedback, err := s.store.FindFeedback(ctx, applicationID)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("s.store.FindFeedback -> %w", err)
	}
	return feedback, nil
}

// AddOtherVolunteer records help given outside the regular activities as an
// approved application on the project's internal activity. The volunteer
// then claims the reward through LeaveFeedback like everyone else.
func (s *RewardService) AddOtherVolunteer(ctx context.Context, caller domain.Account, projectID uint, email string, hours int) (domain.Application, error) {
	if hours <= 0 {
		return domain.Application{}, apperr.Validation("hours must be positive")
	}

	var created domain.Application
	err := s.store.Atomic(ctx, func(ctx context.Context) error {
		project, err := s.store.LockProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("s.store.LockProject -> %w", err)
		}
		if !canModerate(project, caller) {
			return apperr.Permission("%s does not moderate project %d", caller.Email, projectID)
		}
		if project.LifetimeStage != domain.StageFinalizing {
			return apperr.State("project %d is %s; other volunteers are added while finalizing", projectID, project.LifetimeStage)
		}
		if _, err = s.store.FindAccount(ctx, email); err != nil {
			return fmt.Errorf("s.store.FindAccount -> %w", err)
		}

		other, err := internalActivity(ctx, s.store, projectID)
		if err != nil {
			return err
		}

		_, err = s.store.FindApplicationByApplicant(ctx, other.ID, email)
		if err == nil {
			return apperr.Conflict("%s is already recorded as another volunteer of project %d", email, projectID)
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("s.store.FindApplicationByApplicant -> %w", err)
		}

		created, err = s.store.CreateApplication(ctx, domain.Application{
			ActivityID:     other.ID,
			ApplicantEmail: email,
			Status:         domain.ApplicationApproved,
			ActualHours:    hours,
		})
		if err != nil {
			return fmt.Errorf("s.store.CreateApplication -> %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Application{}, fmt.Errorf("RewardService.AddOtherVolunteer -> %w", err)
	}

	var out outbox
	out.add(email, domain.NotifyClaimInnopoints, map[string]any{
		"project_id":     projectID,
		"application_id": created.ID,
	})
	out.flush(ctx, s.notifier)

	return created, nil
}

func internalActivity(ctx context.Context, repo ActivityRepository, projectID uint) (domain.Activity, error) {
	activities, err := repo.ListActivities(ctx, projectID)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("repo.ListActivities -> %w", err)
	}
	for _, a := range activities {
		if a.Internal {
			return a, nil
		}
	}
	return domain.Activity{}, apperr.Integrity("project %d has no internal activity", projectID)
}
