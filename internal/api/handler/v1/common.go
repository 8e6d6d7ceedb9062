package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/innopoints/innopoints-api/internal/api/handler/v1/response"
	"github.com/innopoints/innopoints-api/internal/api/middleware"
	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

type AccountFinder interface {
	Account(ctx context.Context, email string) (domain.Account, error)
}

var errUnknownAccount = errors.New("the token does not belong to a registered account")

// currentAccount resolves the authenticated e-mail to its account.
func currentAccount(ctx *gin.Context, accounts AccountFinder) (domain.Account, *response.Err) {
	email := ctx.GetString(middleware.EmailKey)
	if email == "" {
		return domain.Account{}, response.ErrUnauthorized(errUnknownAccount)
	}

	account, err := accounts.Account(ctx.Request.Context(), email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return domain.Account{}, response.ErrUnauthorized(errUnknownAccount)
		}
		return domain.Account{}, response.ErrInternalServerError(fmt.Errorf("accounts.Account -> %w", err))
	}

	return account, nil
}

func paramID(ctx *gin.Context, name string) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("%s must be a positive integer", name))
	}

	return uint(id), nil
}

// bindJSON decodes the body into req and validates it.
func bindJSON(ctx *gin.Context, req interface{ Validate() error }) *response.Err {
	if err := ctx.ShouldBindJSON(req); err != nil {
		return response.ErrBadRequest(err)
	}
	if err := req.Validate(); err != nil {
		return response.ErrBadRequest(err)
	}

	return nil
}

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
