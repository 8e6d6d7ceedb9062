package repository

import (
	"context"
	"fmt"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/repository/dao"
)

type ApplicationDAO interface {
	Insert(ctx context.Context, app dao.Application) (dao.Application, error)
	FindByID(ctx context.Context, id uint) (dao.Application, error)
	FindByApplicant(ctx context.Context, activityID uint, email string) (dao.Application, error)
	Update(ctx context.Context, app dao.Application) error
	Delete(ctx context.Context, id uint) error
	FindByActivity(ctx context.Context, activityID uint) ([]dao.Application, error)
	Count(ctx context.Context, activityID uint, status string) (int, error)
	CountAwaitingFeedback(ctx context.Context, projectID uint) (int, error)
	SyncActualHours(ctx context.Context, activityID uint, hours int) error
	InsertFeedback(ctx context.Context, feedback dao.Feedback) (dao.Feedback, error)
	FindFeedback(ctx context.Context, applicationID uint) (dao.Feedback, error)
	DeleteFeedback(ctx context.Context, applicationID uint) error
	InsertReport(ctx context.Context, report dao.Report) (dao.Report, error)
	DeleteReports(ctx context.Context, applicationID uint) error
}

// ApplicationRepository covers applications with their feedback and
// volunteering reports.
type ApplicationRepository struct {
	dao ApplicationDAO
}

func NewApplicationRepository(dao ApplicationDAO) *ApplicationRepository {
	return &ApplicationRepository{
		dao: dao,
	}
}

func (r *ApplicationRepository) CreateApplication(ctx context.Context, app domain.Application) (domain.Application, error) {
	created, err := r.dao.Insert(ctx, r.applicationDomainToDao(app))
	if err != nil {
		return domain.Application{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.applicationDaoToDomain(created), nil
}

func (r *ApplicationRepository) FindApplication(ctx context.Context, id uint) (domain.Application, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Application{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.applicationDaoToDomain(found), nil
}

func (r *ApplicationRepository) FindApplicationByApplicant(ctx context.Context, activityID uint, email string) (domain.Application, error) {
	found, err := r.dao.FindByApplicant(ctx, activityID, email)
	if err != nil {
		return domain.Application{}, fmt.Errorf("r.dao.FindByApplicant -> %w", err)
	}

	return r.applicationDaoToDomain(found), nil
}

func (r *ApplicationRepository) UpdateApplication(ctx context.Context, app domain.Application) error {
	if err := r.dao.Update(ctx, r.applicationDomainToDao(app)); err != nil {
		return fmt.Errorf("r.dao.Update -> %w", err)
	}

	return nil
}

func (r *ApplicationRepository) DeleteApplication(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *ApplicationRepository) ListApplications(ctx context.Context, activityID uint) ([]domain.Application, error) {
	found, err := r.dao.FindByActivity(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByActivity -> %w", err)
	}

	apps := make([]domain.Application, len(found))
	for i, app := range found {
		apps[i] = r.applicationDaoToDomain(app)
	}
	return apps, nil
}

func (r *ApplicationRepository) CountApplications(ctx context.Context, activityID uint, status domain.ApplicationStatus) (int, error) {
	n, err := r.dao.Count(ctx, activityID, string(status))
	if err != nil {
		return 0, fmt.Errorf("r.dao.Count -> %w", err)
	}

	return n, nil
}

func (r *ApplicationRepository) CountAwaitingFeedback(ctx context.Context, projectID uint) (int, error) {
	n, err := r.dao.CountAwaitingFeedback(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountAwaitingFeedback -> %w", err)
	}

	return n, nil
}

func (r *ApplicationRepository) SyncActualHours(ctx context.Context, activityID uint, hours int) error {
	if err := r.dao.SyncActualHours(ctx, activityID, hours); err != nil {
		return fmt.Errorf("r.dao.SyncActualHours -> %w", err)
	}

	return nil
}

func (r *ApplicationRepository) InsertFeedback(ctx context.Context, feedback domain.Feedback) (domain.Feedback, error) {
	answers, err := encodeStrings(feedback.Answers)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("encodeStrings -> %w", err)
	}

	created, err := r.dao.InsertFeedback(ctx, dao.Feedback{
		ApplicationID: feedback.ApplicationID,
		Answers:       answers,
		CreatedAt:     feedback.CreatedAt,
	})
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("r.dao.InsertFeedback -> %w", err)
	}

	return r.feedbackDaoToDomain(created)
}

func (r *ApplicationRepository) FindFeedback(ctx context.Context, applicationID uint) (domain.Feedback, error) {
	found, err := r.dao.FindFeedback(ctx, applicationID)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("r.dao.FindFeedback -> %w", err)
	}

	return r.feedbackDaoToDomain(found)
}

func (r *ApplicationRepository) DeleteFeedback(ctx context.Context, applicationID uint) error {
	if err := r.dao.DeleteFeedback(ctx, applicationID); err != nil {
		return fmt.Errorf("r.dao.DeleteFeedback -> %w", err)
	}

	return nil
}

func (r *ApplicationRepository) InsertReport(ctx context.Context, report domain.VolunteeringReport) (domain.VolunteeringReport, error) {
	created, err := r.dao.InsertReport(ctx, dao.Report{
		ApplicationID: report.ApplicationID,
		ReporterEmail: report.ReporterEmail,
		Rating:        report.Rating,
		Content:       report.Content,
		CreatedAt:     report.CreatedAt,
	})
	if err != nil {
		return domain.VolunteeringReport{}, fmt.Errorf("r.dao.InsertReport -> %w", err)
	}

	return domain.VolunteeringReport{
		ApplicationID: created.ApplicationID,
		ReporterEmail: created.ReporterEmail,
		Rating:        created.Rating,
		Content:       created.Content,
		CreatedAt:     created.CreatedAt,
	}, nil
}

func (r *ApplicationRepository) DeleteReports(ctx context.Context, applicationID uint) error {
	if err := r.dao.DeleteReports(ctx, applicationID); err != nil {
		return fmt.Errorf("r.dao.DeleteReports -> %w", err)
	}

	return nil
}

func (r *ApplicationRepository) applicationDomainToDao(app domain.Application) dao.Application {
	return dao.Application{
		ID:             app.ID,
		ActivityID:     app.ActivityID,
		ApplicantEmail: app.ApplicantEmail,
		Comment:        app.Comment,
		Telegram:       app.Telegram,
		Status:         string(app.Status),
		ActualHours:    app.ActualHours,
		CreatedAt:      app.CreatedAt,
	}
}

func (r *ApplicationRepository) applicationDaoToDomain(app dao.Application) domain.Application {
	return domain.Application{
		ID:             app.ID,
		ActivityID:     app.ActivityID,
		ApplicantEmail: app.ApplicantEmail,
		Comment:        app.Comment,
		Telegram:       app.Telegram,
		Status:         domain.ApplicationStatus(app.Status),
		ActualHours:    app.ActualHours,
		HasFeedback:    app.Feedback != nil,
		CreatedAt:      app.CreatedAt,
	}
}

func (r *ApplicationRepository) feedbackDaoToDomain(f dao.Feedback) (domain.Feedback, error) {
	answers, err := decodeStrings(f.Answers)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("decodeStrings -> %w", err)
	}

	return domain.Feedback{
		ApplicationID: f.ApplicationID,
		Answers:       answers,
		CreatedAt:     f.CreatedAt,
	}, nil
}
