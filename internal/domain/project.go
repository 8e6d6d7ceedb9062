package domain

import (
	"fmt"
	"time"
)

// LifetimeStage is the ordered workflow position of a project.
type LifetimeStage string

const (
	StageDraft      LifetimeStage = "draft"
	StageOngoing    LifetimeStage = "ongoing"
	StageFinalizing LifetimeStage = "finalizing"
	StageFinished   LifetimeStage = "finished"
)

var stageOrder = map[LifetimeStage]int{
	StageDraft:      0,
	StageOngoing:    1,
	StageFinalizing: 2,
	StageFinished:   3,
}

func (s LifetimeStage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

// Compare returns -1, 0 or 1 when s is before, equal to or after other.
func (s LifetimeStage) Compare(other LifetimeStage) int {
	a, b := stageOrder[s], stageOrder[other]
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Next returns the only stage s may advance to. Finished has no successor.
func (s LifetimeStage) Next() (LifetimeStage, bool) {
	switch s {
	case StageDraft:
		return StageOngoing, true
	case StageOngoing:
		return StageFinalizing, true
	case StageFinalizing:
		return StageFinished, true
	}
	return "", false
}

// CanAdvanceTo holds only for a single forward step.
func (s LifetimeStage) CanAdvanceTo(target LifetimeStage) bool {
	next, ok := s.Next()
	return ok && next == target
}

func (s LifetimeStage) In(stages ...LifetimeStage) bool {
	for _, st := range stages {
		if s == st {
			return true
		}
	}
	return false
}

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

func (r ReviewStatus) Valid() bool {
	return r == ReviewPending || r == ReviewApproved || r == ReviewRejected
}

type Project struct {
	ID            uint          `json:"id"`
	Name          string        `json:"name"`
	Organizer     string        `json:"organizer,omitempty"`
	CreatorEmail  string        `json:"creator_email"`
	LifetimeStage LifetimeStage `json:"lifetime_stage"`
	ReviewStatus  ReviewStatus  `json:"review_status"`
	Moderators    []string      `json:"moderators"`
	CreatedAt     time.Time     `json:"created_at"`
}

func (p Project) String() string {
	return fmt.Sprintf("project %d (%s)", p.ID, p.LifetimeStage)
}
