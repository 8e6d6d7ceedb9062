package domain

import "time"

// Account is identified by its e-mail. The balance is never stored on it;
// see service.Balance.
type Account struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Group     string    `json:"group,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
