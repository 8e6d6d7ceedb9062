package domain

import "time"

// OtherActivityName is the name of the internal activity every project gets
// for rewarding help recorded after the fact.
const OtherActivityName = "Other"

type Activity struct {
	ID                uint      `json:"id"`
	ProjectID         uint      `json:"project_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Draft             bool      `json:"draft"`
	Internal          bool      `json:"internal"`
	FixedReward       bool      `json:"fixed_reward"`
	WorkingHours      int       `json:"working_hours"`
	RewardRate        int       `json:"reward_rate"`
	PeopleRequired    *int      `json:"people_required,omitempty"`
	FeedbackQuestions []string  `json:"feedback_questions"`
	CreatedAt         time.Time `json:"created_at"`
}

// VacantSpots is people_required minus approved applications, or -1 when the
// activity takes any number of volunteers.
func (a Activity) VacantSpots(approved int) int {
	if a.PeopleRequired == nil {
		return -1
	}
	return *a.PeopleRequired - approved
}
