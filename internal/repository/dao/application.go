package dao

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Application is unique per (activity, applicant).
type Application struct {
	ID             uint     `gorm:"primaryKey"`
	ActivityID     uint     `gorm:"not null;uniqueIndex:idx_application_applicant"`
	Activity       Activity `gorm:"foreignKey:ActivityID"`
	ApplicantEmail string   `gorm:"not null;uniqueIndex:idx_application_applicant"`
	Applicant      Account  `gorm:"foreignKey:ApplicantEmail;references:Email"`
	Comment        string
	Telegram       string
	Status         string    `gorm:"not null;check:application_status_known,status IN ('pending','approved','rejected')"`
	ActualHours    int       `gorm:"not null;default:0"`
	Feedback       *Feedback `gorm:"foreignKey:ApplicationID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Feedback is keyed by its application, so there is at most one.
type Feedback struct {
	ApplicationID uint `gorm:"primaryKey;autoIncrement:false"`
	Answers       datatypes.JSON

	CreatedAt time.Time `gorm:"not null"`
}

func (Feedback) TableName() string {
	return "feedback"
}

// Report is one moderator's assessment of one application.
type Report struct {
	ApplicationID uint        `gorm:"primaryKey;autoIncrement:false"`
	Application   Application `gorm:"foreignKey:ApplicationID"`
	ReporterEmail string      `gorm:"primaryKey"`
	Reporter      Account     `gorm:"foreignKey:ReporterEmail;references:Email"`
	Rating        int         `gorm:"not null;check:rating_range,rating BETWEEN 1 AND 5"`
	Content       string

	CreatedAt time.Time `gorm:"not null"`
}

func (Report) TableName() string {
	return "volunteering_reports"
}

type ApplicationDAO struct {
	db *gorm.DB
}

func NewApplicationDAO(db *gorm.DB) *ApplicationDAO {
	return &ApplicationDAO{
		db: db,
	}
}

func (d *ApplicationDAO) Insert(ctx context.Context, app Application) (Application, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&app)
	if result.Error != nil {
		return Application{}, translate(result.Error, "application of %s to activity %d", app.ApplicantEmail, app.ActivityID)
	}

	return app, nil
}

func (d *ApplicationDAO) FindByID(ctx context.Context, id uint) (Application, error) {
	var app Application

	result := conn(ctx, d.db).Preload("Feedback").First(&app, id)
	if result.Error != nil {
		return Application{}, translate(result.Error, "application %d", id)
	}

	return app, nil
}

func (d *ApplicationDAO) FindByApplicant(ctx context.Context, activityID uint, email string) (Application, error) {
	var app Application

	result := conn(ctx, d.db).Preload("Feedback").
		First(&app, "activity_id = ? AND applicant_email = ?", activityID, email)
	if result.Error != nil {
		return Application{}, translate(result.Error, "application of %s to activity %d", email, activityID)
	}

	return app, nil
}

func (d *ApplicationDAO) Update(ctx context.Context, app Application) error {
	result := conn(ctx, d.db).Model(&Application{ID: app.ID}).
		Select("status", "actual_hours", "comment", "telegram").
		Updates(&app)
	return notFoundUnlessAffected(result, "application %d", app.ID)
}

func (d *ApplicationDAO) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, d.db).Delete(&Application{}, id)
	return notFoundUnlessAffected(result, "application %d", id)
}

func (d *ApplicationDAO) FindByActivity(ctx context.Context, activityID uint) ([]Application, error) {
	var apps []Application

	result := conn(ctx, d.db).Preload("Feedback").Where("activity_id = ?", activityID).Order("id").Find(&apps)
	if result.Error != nil {
		return nil, translate(result.Error, "applications of activity %d", activityID)
	}

	return apps, nil
}

func (d *ApplicationDAO) Count(ctx context.Context, activityID uint, status string) (int, error) {
	var n int64

	result := conn(ctx, d.db).Model(&Application{}).Where("activity_id = ? AND status = ?", activityID, status).Count(&n)
	if result.Error != nil {
		return 0, translate(result.Error, "applications of activity %d", activityID)
	}

	return int(n), nil
}

// CountAwaitingFeedback counts approved applications of the project that
// have no feedback yet.
func (d *ApplicationDAO) CountAwaitingFeedback(ctx context.Context, projectID uint) (int, error) {
	var n int64

	result := conn(ctx, d.db).Model(&Application{}).
		Joins("JOIN activities ON activities.id = applications.activity_id").
		Joins("LEFT JOIN feedback ON feedback.application_id = applications.id").
		Where("activities.project_id = ? AND applications.status = ? AND feedback.application_id IS NULL", projectID, "approved").
		Count(&n)
	if result.Error != nil {
		return 0, translate(result.Error, "feedback of project %d", projectID)
	}

	return int(n), nil
}

func (d *ApplicationDAO) SyncActualHours(ctx context.Context, activityID uint, hours int) error {
	result := conn(ctx, d.db).Model(&Application{}).
		Where("activity_id = ? AND status <> ?", activityID, "rejected").
		Update("actual_hours", hours)
	if result.Error != nil {
		return translate(result.Error, "applications of activity %d", activityID)
	}
	return nil
}

func (d *ApplicationDAO) InsertFeedback(ctx context.Context, feedback Feedback) (Feedback, error) {
	result := conn(ctx, d.db).Create(&feedback)
	if result.Error != nil {
		return Feedback{}, translate(result.Error, "feedback for application %d", feedback.ApplicationID)
	}

	return feedback, nil
}

func (d *ApplicationDAO) FindFeedback(ctx context.Context, applicationID uint) (Feedback, error) {
	var feedback Feedback

	result := conn(ctx, d.db).First(&feedback, "application_id = ?", applicationID)
	if result.Error != nil {
		return Feedback{}, translate(result.Error, "feedback for application %d", applicationID)
	}

	return feedback, nil
}

func (d *ApplicationDAO) DeleteFeedback(ctx context.Context, applicationID uint) error {
	result := conn(ctx, d.db).Where("application_id = ?", applicationID).Delete(&Feedback{})
	return notFoundUnlessAffected(result, "feedback for application %d", applicationID)
}

func (d *ApplicationDAO) InsertReport(ctx context.Context, report Report) (Report, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&report)
	if result.Error != nil {
		return Report{}, translate(result.Error, "report of %s on application %d", report.ReporterEmail, report.ApplicationID)
	}

	return report, nil
}

func (d *ApplicationDAO) DeleteReports(ctx context.Context, applicationID uint) error {
	result := conn(ctx, d.db).Where("application_id = ?", applicationID).Delete(&Report{})
	if result.Error != nil {
		return translate(result.Error, "reports on application %d", applicationID)
	}
	return nil
}
