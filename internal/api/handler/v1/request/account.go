package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
)

// emailPattern rejects consecutive and leading dots in the local part,
// which the SSO provider never issues.
const emailPattern = `^(?!\.)(?!.*\.\.)[A-Za-z0-9._%+-]+@(?!-)[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`

var (
	emailExp        = regexp2.MustCompile(emailPattern, regexp2.None)
	errInvalidEmail = errors.New("must be a valid e-mail address")
	errZeroChange   = errors.New("must not be zero")
)

func validEmail(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	ok, err := emailExp.MatchString(s)
	if err != nil || !ok {
		return errInvalidEmail
	}
	return nil
}

type CreateAccountRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Group    string `json:"group"`
	IsAdmin  bool   `json:"is_admin"`
}

func (req *CreateAccountRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, validation.By(validEmail)),
		validation.Field(&req.FullName, validation.Required, validation.Length(1, 128)),
		validation.Field(&req.Group, validation.Length(0, 64)),
	)
}

type ManualTransactionRequest struct {
	Change int `json:"change"`
}

func (req *ManualTransactionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Change, validation.By(func(value interface{}) error {
			if value.(int) == 0 {
				return errZeroChange
			}
			return nil
		})),
	)
}

type ModeratorRequest struct {
	Email string `json:"email"`
}

func (req *ModeratorRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, validation.By(validEmail)),
	)
}
