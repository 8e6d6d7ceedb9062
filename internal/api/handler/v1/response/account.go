package response

import "github.com/innopoints/innopoints-api/internal/domain"

type BalanceResponse struct {
	Email   string `json:"email"`
	Balance int    `json:"balance"`
}

type AccountResponse struct {
	domain.Account
	Balance int `json:"balance"`
}

type FeedbackResponse struct {
	Feedback    domain.Feedback    `json:"feedback"`
	Transaction domain.Transaction `json:"transaction"`
}

type ActivityResponse struct {
	domain.Activity
	VacantSpots int `json:"vacant_spots"`
}
