package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/repository/dao"
)

type ProjectDAO interface {
	Insert(ctx context.Context, project dao.Project) (dao.Project, error)
	FindByID(ctx context.Context, id uint) (dao.Project, error)
	LockByID(ctx context.Context, id uint) (dao.Project, error)
	UpdateColumn(ctx context.Context, id uint, column string, value string) error
	InsertModerator(ctx context.Context, projectID uint, email string) error
	FindByStage(ctx context.Context, stage string) ([]dao.Project, error)
	Delete(ctx context.Context, id uint) error
	InsertActivity(ctx context.Context, activity dao.Activity) (dao.Activity, error)
	FindActivity(ctx context.Context, id uint) (dao.Activity, error)
	UpdateActivity(ctx context.Context, activity dao.Activity) error
	DeleteActivity(ctx context.Context, id uint) error
	FindActivities(ctx context.Context, projectID uint) ([]dao.Activity, error)
}

// ProjectRepository covers projects and their activities.
type ProjectRepository struct {
	dao ProjectDAO
}

func NewProjectRepository(dao ProjectDAO) *ProjectRepository {
	return &ProjectRepository{
		dao: dao,
	}
}

func (r *ProjectRepository) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	created, err := r.dao.Insert(ctx, dao.Project{
		Name:          project.Name,
		Organizer:     project.Organizer,
		CreatorEmail:  project.CreatorEmail,
		LifetimeStage: string(project.LifetimeStage),
		ReviewStatus:  string(project.ReviewStatus),
		CreatedAt:     project.CreatedAt,
	})
	if err != nil {
		return domain.Project{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.projectDaoToDomain(created), nil
}

func (r *ProjectRepository) FindProject(ctx context.Context, id uint) (domain.Project, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Project{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.projectDaoToDomain(found), nil
}

func (r *ProjectRepository) LockProject(ctx context.Context, id uint) (domain.Project, error) {
	found, err := r.dao.LockByID(ctx, id)
	if err != nil {
		return domain.Project{}, fmt.Errorf("r.dao.LockByID -> %w", err)
	}

	return r.projectDaoToDomain(found), nil
}

func (r *ProjectRepository) UpdateProjectStage(ctx context.Context, id uint, stage domain.LifetimeStage) error {
	if err := r.dao.UpdateColumn(ctx, id, "lifetime_stage", string(stage)); err != nil {
		return fmt.Errorf("r.dao.UpdateColumn -> %w", err)
	}

	return nil
}

func (r *ProjectRepository) UpdateProjectReviewStatus(ctx context.Context, id uint, status domain.ReviewStatus) error {
	if err := r.dao.UpdateColumn(ctx, id, "review_status", string(status)); err != nil {
		return fmt.Errorf("r.dao.UpdateColumn -> %w", err)
	}

	return nil
}

func (r *ProjectRepository) AddModerator(ctx context.Context, projectID uint, email string) error {
	if err := r.dao.InsertModerator(ctx, projectID, email); err != nil {
		return fmt.Errorf("r.dao.InsertModerator -> %w", err)
	}

	return nil
}

func (r *ProjectRepository) ListProjectsInStage(ctx context.Context, stage domain.LifetimeStage) ([]domain.Project, error) {
	found, err := r.dao.FindByStage(ctx, string(stage))
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByStage -> %w", err)
	}

	projects := make([]domain.Project, len(found))
	for i, p := range found {
		projects[i] = r.projectDaoToDomain(p)
	}
	return projects, nil
}

func (r *ProjectRepository) DeleteProject(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *ProjectRepository) CreateActivity(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	a, err := r.activityDomainToDao(activity)
	if err != nil {
		return domain.Activity{}, err
	}

	created, err := r.dao.InsertActivity(ctx, a)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("r.dao.InsertActivity -> %w", err)
	}

	return r.activityDaoToDomain(created)
}

func (r *ProjectRepository) FindActivity(ctx context.Context, id uint) (domain.Activity, error) {
	found, err := r.dao.FindActivity(ctx, id)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("r.dao.FindActivity -> %w", err)
	}

	return r.activityDaoToDomain(found)
}

func (r *ProjectRepository) UpdateActivity(ctx context.Context, activity domain.Activity) error {
	a, err := r.activityDomainToDao(activity)
	if err != nil {
		return err
	}

	if err = r.dao.UpdateActivity(ctx, a); err != nil {
		return fmt.Errorf("r.dao.UpdateActivity -> %w", err)
	}

	return nil
}

func (r *ProjectRepository) DeleteActivity(ctx context.Context, id uint) error {
	if err := r.dao.DeleteActivity(ctx, id); err != nil {
		return fmt.Errorf("r.dao.DeleteActivity -> %w", err)
	}

	return nil
}

func (r *ProjectRepository) ListActivities(ctx context.Context, projectID uint) ([]domain.Activity, error) {
	found, err := r.dao.FindActivities(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindActivities -> %w", err)
	}

	activities := make([]domain.Activity, len(found))
	for i, a := range found {
		if activities[i], err = r.activityDaoToDomain(a); err != nil {
			return nil, err
		}
	}
	return activities, nil
}

func (r *ProjectRepository) projectDaoToDomain(p dao.Project) domain.Project {
	moderators := make([]string, 0, len(p.Moderators))
	for _, m := range p.Moderators {
		moderators = append(moderators, m.AccountEmail)
	}

	return domain.Project{
		ID:            p.ID,
		Name:          p.Name,
		Organizer:     p.Organizer,
		CreatorEmail:  p.CreatorEmail,
		LifetimeStage: domain.LifetimeStage(p.LifetimeStage),
		ReviewStatus:  domain.ReviewStatus(p.ReviewStatus),
		Moderators:    moderators,
		CreatedAt:     p.CreatedAt,
	}
}

func (r *ProjectRepository) activityDomainToDao(a domain.Activity) (dao.Activity, error) {
	questions, err := encodeStrings(a.FeedbackQuestions)
	if err != nil {
		return dao.Activity{}, fmt.Errorf("encodeStrings -> %w", err)
	}

	return dao.Activity{
		ID:                a.ID,
		ProjectID:         a.ProjectID,
		Name:              a.Name,
		Description:       a.Description,
		Draft:             a.Draft,
		Internal:          a.Internal,
		FixedReward:       a.FixedReward,
		WorkingHours:      a.WorkingHours,
		RewardRate:        a.RewardRate,
		PeopleRequired:    a.PeopleRequired,
		FeedbackQuestions: questions,
		CreatedAt:         a.CreatedAt,
	}, nil
}

func (r *ProjectRepository) activityDaoToDomain(a dao.Activity) (domain.Activity, error) {
	questions, err := decodeStrings(a.FeedbackQuestions)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("decodeStrings -> %w", err)
	}

	return domain.Activity{
		ID:                a.ID,
		ProjectID:         a.ProjectID,
		Name:              a.Name,
		Description:       a.Description,
		Draft:             a.Draft,
		Internal:          a.Internal,
		FixedReward:       a.FixedReward,
		WorkingHours:      a.WorkingHours,
		RewardRate:        a.RewardRate,
		PeopleRequired:    a.PeopleRequired,
		FeedbackQuestions: questions,
		CreatedAt:         a.CreatedAt,
	}, nil
}

// encodeStrings stores a nil list as an empty JSON array.
func encodeStrings(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func decodeStrings(raw datatypes.JSON) ([]string, error) {
	values := []string{}
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}
