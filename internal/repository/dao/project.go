package dao

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Project struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Organizer     string
	CreatorEmail  string             `gorm:"not null;index"`
	Creator       Account            `gorm:"foreignKey:CreatorEmail;references:Email"`
	LifetimeStage string             `gorm:"not null;index;check:stage_known,lifetime_stage IN ('draft','ongoing','finalizing','finished')"`
	ReviewStatus  string             `gorm:"not null"`
	Moderators    []ProjectModerator `gorm:"foreignKey:ProjectID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ProjectModerator replaces a many-to-many backref: moderation is looked up
// from the project side only.
type ProjectModerator struct {
	ProjectID    uint    `gorm:"primaryKey;autoIncrement:false"`
	AccountEmail string  `gorm:"primaryKey"`
	Account      Account `gorm:"foreignKey:AccountEmail;references:Email"`
}

type Activity struct {
	ID                uint    `gorm:"primaryKey"`
	ProjectID         uint    `gorm:"not null;index"`
	Project           Project `gorm:"foreignKey:ProjectID"`
	Name              string  `gorm:"not null"`
	Description       string
	Draft             bool `gorm:"not null;default:false"`
	Internal          bool `gorm:"not null;default:false"`
	FixedReward       bool `gorm:"not null;default:false;check:reward_mode,NOT fixed_reward OR working_hours = 1"`
	WorkingHours      int  `gorm:"not null"`
	RewardRate        int  `gorm:"not null"`
	PeopleRequired    *int
	FeedbackQuestions datatypes.JSON

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ProjectDAO struct {
	db *gorm.DB
}

func NewProjectDAO(db *gorm.DB) *ProjectDAO {
	return &ProjectDAO{
		db: db,
	}
}

func (d *ProjectDAO) Insert(ctx context.Context, project Project) (Project, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&project)
	if result.Error != nil {
		return Project{}, translate(result.Error, "project %q", project.Name)
	}

	return project, nil
}

func (d *ProjectDAO) FindByID(ctx context.Context, id uint) (Project, error) {
	var project Project

	result := conn(ctx, d.db).Preload("Moderators").First(&project, id)
	if result.Error != nil {
		return Project{}, translate(result.Error, "project %d", id)
	}

	return project, nil
}

// LockByID locks the project row; moderators are loaded by a second plain
// query since FOR UPDATE does not apply to preloads.
func (d *ProjectDAO) LockByID(ctx context.Context, id uint) (Project, error) {
	var project Project

	db := conn(ctx, d.db)
	result := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&project, id)
	if result.Error != nil {
		return Project{}, translate(result.Error, "project %d", id)
	}
	if err := db.Where("project_id = ?", id).Order("account_email").Find(&project.Moderators).Error; err != nil {
		return Project{}, translate(err, "moderators of project %d", id)
	}

	return project, nil
}

func (d *ProjectDAO) UpdateColumn(ctx context.Context, id uint, column string, value string) error {
	result := conn(ctx, d.db).Model(&Project{}).Where("id = ?", id).Update(column, value)
	return notFoundUnlessAffected(result, "project %d", id)
}

func (d *ProjectDAO) InsertModerator(ctx context.Context, projectID uint, email string) error {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&ProjectModerator{ProjectID: projectID, AccountEmail: email})
	if result.Error != nil {
		return translate(result.Error, "moderator %s of project %d", email, projectID)
	}
	return nil
}

func (d *ProjectDAO) FindByStage(ctx context.Context, stage string) ([]Project, error) {
	var projects []Project

	result := conn(ctx, d.db).Preload("Moderators").Where("lifetime_stage = ?", stage).Order("id").Find(&projects)
	if result.Error != nil {
		return nil, translate(result.Error, "projects in %s", stage)
	}

	return projects, nil
}

// Delete removes the moderator rows and the project. Activities must be gone.
func (d *ProjectDAO) Delete(ctx context.Context, id uint) error {
	db := conn(ctx, d.db)
	if err := db.Where("project_id = ?", id).Delete(&ProjectModerator{}).Error; err != nil {
		return translate(err, "moderators of project %d", id)
	}
	result := db.Delete(&Project{}, id)
	return notFoundUnlessAffected(result, "project %d", id)
}

func (d *ProjectDAO) InsertActivity(ctx context.Context, activity Activity) (Activity, error) {
	result := conn(ctx, d.db).Omit(clause.Associations).Create(&activity)
	if result.Error != nil {
		return Activity{}, translate(result.Error, "activity %q", activity.Name)
	}

	return activity, nil
}

func (d *ProjectDAO) FindActivity(ctx context.Context, id uint) (Activity, error) {
	var activity Activity

	result := conn(ctx, d.db).First(&activity, id)
	if result.Error != nil {
		return Activity{}, translate(result.Error, "activity %d", id)
	}

	return activity, nil
}

func (d *ProjectDAO) UpdateActivity(ctx context.Context, activity Activity) error {
	result := conn(ctx, d.db).Model(&Activity{ID: activity.ID}).
		Select("name", "description", "draft", "fixed_reward", "working_hours", "reward_rate", "people_required", "feedback_questions").
		Updates(&activity)
	return notFoundUnlessAffected(result, "activity %d", activity.ID)
}

func (d *ProjectDAO) DeleteActivity(ctx context.Context, id uint) error {
	result := conn(ctx, d.db).Delete(&Activity{}, id)
	return notFoundUnlessAffected(result, "activity %d", id)
}

func (d *ProjectDAO) FindActivities(ctx context.Context, projectID uint) ([]Activity, error) {
	var activities []Activity

	result := conn(ctx, d.db).Where("project_id = ?", projectID).Order("id").Find(&activities)
	if result.Error != nil {
		return nil, translate(result.Error, "activities of project %d", projectID)
	}

	return activities, nil
}
