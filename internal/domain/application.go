package domain

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	return s == ApplicationPending || s == ApplicationApproved || s == ApplicationRejected
}

type Application struct {
	ID             uint              `json:"id"`
	ActivityID     uint              `json:"activity_id"`
	ApplicantEmail string            `json:"applicant_email"`
	Comment        string            `json:"comment,omitempty"`
	Telegram       string            `json:"telegram_username,omitempty"`
	Status         ApplicationStatus `json:"status"`
	ActualHours    int               `json:"actual_hours"`
	HasFeedback    bool              `json:"has_feedback"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Feedback is keyed by its application. The reward transaction links back to
// it through Transaction.FeedbackID.
type Feedback struct {
	ApplicationID uint      `json:"application_id"`
	Answers       []string  `json:"answers"`
	CreatedAt     time.Time `json:"created_at"`
}

type VolunteeringReport struct {
	ApplicationID uint      `json:"application_id"`
	ReporterEmail string    `json:"reporter_email"`
	Rating        int       `json:"rating"`
	Content       string    `json:"content,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	MinReportRating = 1
	MaxReportRating = 5
)
