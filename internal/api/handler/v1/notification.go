package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/innopoints/innopoints-api/internal/api/handler/v1/response"
)

type NotificationStream interface {
	Serve(w http.ResponseWriter, r *http.Request, email string) error
}

type NotificationHandler struct {
	stream   NotificationStream
	accounts AccountFinder
}

func NewNotificationHandler(stream NotificationStream, accounts AccountFinder) *NotificationHandler {
	return &NotificationHandler{
		stream:   stream,
		accounts: accounts,
	}
}

// HandleNotifications godoc
// @Summary      Stream the caller's notifications over a websocket
// @Description  Browsers pass the bearer token in the token query parameter.
// @Tags         notifications
// @Param        token  query  string  false  "Bearer token"
// @Success      101
// @Failure      401  {object}  response.Err
// @Router       /notifications/ws [get]
// @Security     BearerAuth
func (h *NotificationHandler) HandleNotifications(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	// The upgrader has already answered the request when Serve fails.
	if err := h.stream.Serve(ctx.Writer, ctx.Request, caller.Email); err != nil {
		ctx.Abort()
	}
}
