package response

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/innopoints/innopoints-api/internal/pkg/apperr"
)

// Err is the body of every error response.
type Err struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	Message        string `json:"message,omitempty"`
}

func (e *Err) Error() string {
	if e.Err == nil {
		return e.StatusText
	}
	return e.Err.Error()
}

// RenderErr writes err and aborts the chain. Server errors are logged with
// the request id, their cause is not exposed.
func RenderErr(ctx *gin.Context, err *Err) {
	if err.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("request_id", requestid.Get(ctx)),
			zap.String("path", ctx.FullPath()),
			zap.Error(err.Err),
		)
	}
	ctx.AbortWithStatusJSON(err.HTTPStatusCode, err)
}

func newErr(status int, err error) *Err {
	e := &Err{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
	}
	if err != nil && status < http.StatusInternalServerError {
		e.Message = err.Error()
	}
	return e
}

func ErrBadRequest(err error) *Err {
	return newErr(http.StatusBadRequest, err)
}

func ErrUnauthorized(err error) *Err {
	return newErr(http.StatusUnauthorized, err)
}

func ErrPermissionDenied(err error) *Err {
	return newErr(http.StatusForbidden, err)
}

func ErrNotFound(err error) *Err {
	return newErr(http.StatusNotFound, err)
}

func ErrInternalServerError(err error) *Err {
	return newErr(http.StatusInternalServerError, err)
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:        http.StatusBadRequest,
	apperr.KindPermission:        http.StatusForbidden,
	apperr.KindState:             http.StatusConflict,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindInsufficientFunds: http.StatusPaymentRequired,
	apperr.KindIntegrity:         http.StatusInternalServerError,
	apperr.KindNotFound:          http.StatusNotFound,
}

// FromError picks the status for a service error by its kind. The message
// shown is the one of the classified error, not the wrapping chain.
func FromError(err error) *Err {
	status, ok := kindStatus[apperr.KindOf(err)]
	if !ok {
		return ErrInternalServerError(err)
	}

	e := newErr(status, err)
	var classified *apperr.Error
	if errors.As(err, &classified) && status < http.StatusInternalServerError {
		e.Message = classified.Message
	}
	return e
}
