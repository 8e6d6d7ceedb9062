package memory

import (
	"context"
	"sort"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

func (s *Store) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.accounts[project.CreatorEmail]; !ok {
		return domain.Project{}, apperr.Integrity("creator %s does not exist", project.CreatorEmail)
	}
	project.ID = s.nextIDLocked()
	project.Moderators = nil
	project.CreatedAt = s.now().UTC()
	s.st.projects[project.ID] = project
	return project, nil
}

func (s *Store) FindProject(ctx context.Context, id uint) (domain.Project, error) {
	defer s.lock(ctx)()

	project, ok := s.st.projects[id]
	if !ok {
		return domain.Project{}, apperr.NotFound("project %d not found", id)
	}
	return project, nil
}

func (s *Store) LockProject(ctx context.Context, id uint) (domain.Project, error) {
	return s.FindProject(ctx, id)
}

func (s *Store) UpdateProjectStage(ctx context.Context, id uint, stage domain.LifetimeStage) error {
	defer s.lock(ctx)()

	project, ok := s.st.projects[id]
	if !ok {
		return apperr.NotFound("project %d not found", id)
	}
	project.LifetimeStage = stage
	s.st.projects[id] = project
	return nil
}

func (s *Store) UpdateProjectReviewStatus(ctx context.Context, id uint, status domain.ReviewStatus) error {
	defer s.lock(ctx)()

	project, ok := s.st.projects[id]
	if !ok {
		return apperr.NotFound("project %d not found", id)
	}
	project.ReviewStatus = status
	s.st.projects[id] = project
	return nil
}

func (s *Store) AddModerator(ctx context.Context, projectID uint, email string) error {
	defer s.lock(ctx)()

	project, ok := s.st.projects[projectID]
	if !ok {
		return apperr.NotFound("project %d not found", projectID)
	}
	if _, ok = s.st.accounts[email]; !ok {
		return apperr.Integrity("account %s does not exist", email)
	}
	for _, m := range project.Moderators {
		if m == email {
			return apperr.Conflict("%s already moderates project %d", email, projectID)
		}
	}
	project.Moderators = append(append([]string(nil), project.Moderators...), email)
	s.st.projects[projectID] = project
	return nil
}

func (s *Store) ListProjectsInStage(ctx context.Context, stage domain.LifetimeStage) ([]domain.Project, error) {
	defer s.lock(ctx)()

	var out []domain.Project
	for _, p := range s.st.projects {
		if p.LifetimeStage == stage {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteProject refuses while activities remain, like the foreign key does.
func (s *Store) DeleteProject(ctx context.Context, id uint) error {
	defer s.lock(ctx)()

	if _, ok := s.st.projects[id]; !ok {
		return apperr.NotFound("project %d not found", id)
	}
	for _, a := range s.st.activities {
		if a.ProjectID == id {
			return apperr.Integrity("project %d still has activities", id)
		}
	}
	delete(s.st.projects, id)
	return nil
}

// Activities ----------------------------------------------------------------

func (s *Store) CreateActivity(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	defer s.lock(ctx)()

	if _, ok := s.st.projects[activity.ProjectID]; !ok {
		return domain.Activity{}, apperr.Integrity("project %d does not exist", activity.ProjectID)
	}
	activity.ID = s.nextIDLocked()
	activity.FeedbackQuestions = append([]string(nil), activity.FeedbackQuestions...)
	activity.CreatedAt = s.now().UTC()
	s.st.activities[activity.ID] = activity
	return activity, nil
}

func (s *Store) FindActivity(ctx context.Context, id uint) (domain.Activity, error) {
	defer s.lock(ctx)()

	activity, ok := s.st.activities[id]
	if !ok {
		return domain.Activity{}, apperr.NotFound("activity %d not found", id)
	}
	return activity, nil
}

func (s *Store) UpdateActivity(ctx context.Context, activity domain.Activity) error {
	defer s.lock(ctx)()

	old, ok := s.st.activities[activity.ID]
	if !ok {
		return apperr.NotFound("activity %d not found", activity.ID)
	}
	activity.ProjectID = old.ProjectID
	activity.CreatedAt = old.CreatedAt
	activity.FeedbackQuestions = append([]string(nil), activity.FeedbackQuestions...)
	s.st.activities[activity.ID] = activity
	return nil
}

func (s *Store) DeleteActivity(ctx context.Context, id uint) error {
	defer s.lock(ctx)()

	if _, ok := s.st.activities[id]; !ok {
		return apperr.NotFound("activity %d not found", id)
	}
	for _, app := range s.st.applications {
		if app.ActivityID == id {
			return apperr.Integrity("activity %d still has applications", id)
		}
	}
	delete(s.st.activities, id)
	return nil
}

func (s *Store) ListActivities(ctx context.Context, projectID uint) ([]domain.Activity, error) {
	defer s.lock(ctx)()

	var out []domain.Activity
	for _, a := range s.st.activities {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
