package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/service"
)

type CreateProjectRequest struct {
	Name      string `json:"name"`
	Organizer string `json:"organizer"`
}

func (req *CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&req.Organizer, validation.Length(0, 128)),
	)
}

type ReviewRequest struct {
	Status string `json:"review_status"`
}

func (req *ReviewRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In("pending", "approved", "rejected")),
	)
}

type ActivityRequest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Draft             bool     `json:"draft"`
	FixedReward       bool     `json:"fixed_reward"`
	WorkingHours      int      `json:"working_hours"`
	RewardRate        int      `json:"reward_rate"`
	PeopleRequired    *int     `json:"people_required"`
	FeedbackQuestions []string `json:"feedback_questions"`
}

func (req *ActivityRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&req.WorkingHours, validation.Min(0)),
		validation.Field(&req.RewardRate, validation.Min(0)),
		validation.Field(&req.PeopleRequired, validation.Min(0)),
	)
}

func (req *ActivityRequest) Activity() domain.Activity {
	return domain.Activity{
		Name:              req.Name,
		Description:       req.Description,
		Draft:             req.Draft,
		FixedReward:       req.FixedReward,
		WorkingHours:      req.WorkingHours,
		RewardRate:        req.RewardRate,
		PeopleRequired:    req.PeopleRequired,
		FeedbackQuestions: req.FeedbackQuestions,
	}
}

type ActivityPatchRequest struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	Draft             *bool    `json:"draft"`
	FixedReward       *bool    `json:"fixed_reward"`
	WorkingHours      *int     `json:"working_hours"`
	RewardRate        *int     `json:"reward_rate"`
	PeopleRequired    *int     `json:"people_required"`
	FeedbackQuestions []string `json:"feedback_questions"`
}

func (req *ActivityPatchRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 128)),
		validation.Field(&req.WorkingHours, validation.Min(0)),
		validation.Field(&req.RewardRate, validation.Min(0)),
		validation.Field(&req.PeopleRequired, validation.Min(0)),
	)
}

func (req *ActivityPatchRequest) Patch() service.ActivityPatch {
	return service.ActivityPatch{
		Name:              req.Name,
		Description:       req.Description,
		Draft:             req.Draft,
		FixedReward:       req.FixedReward,
		WorkingHours:      req.WorkingHours,
		RewardRate:        req.RewardRate,
		PeopleRequired:    req.PeopleRequired,
		FeedbackQuestions: req.FeedbackQuestions,
	}
}

type ApplyRequest struct {
	Comment  string `json:"comment"`
	Telegram string `json:"telegram_username"`
}

func (req *ApplyRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Comment, validation.Length(0, 1024)),
		validation.Field(&req.Telegram, validation.Length(0, 32)),
	)
}

type ApplicationPatchRequest struct {
	Status      *string `json:"status"`
	ActualHours *int    `json:"actual_hours"`
}

func (req *ApplicationPatchRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.NilOrNotEmpty, validation.In("pending", "approved", "rejected")),
		validation.Field(&req.ActualHours, validation.Min(0)),
	)
}

func (req *ApplicationPatchRequest) Patch() service.ApplicationPatch {
	var patch service.ApplicationPatch
	if req.Status != nil {
		status := domain.ApplicationStatus(*req.Status)
		patch.Status = &status
	}
	patch.ActualHours = req.ActualHours
	return patch
}

type FeedbackRequest struct {
	Answers []string `json:"answers"`
}

type ReportRequest struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

func (req *ReportRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Rating, validation.Required, validation.Min(domain.MinReportRating), validation.Max(domain.MaxReportRating)),
		validation.Field(&req.Content, validation.Length(0, 4096)),
	)
}

type OtherVolunteerRequest struct {
	Email string `json:"email"`
	Hours int    `json:"hours"`
}

func (req *OtherVolunteerRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, validation.By(validEmail)),
		validation.Field(&req.Hours, validation.Required, validation.Min(1)),
	)
}
