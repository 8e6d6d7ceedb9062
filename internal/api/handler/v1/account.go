package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/innopoints/innopoints-api/internal/api/handler/v1/request"
	"github.com/innopoints/innopoints-api/internal/api/handler/v1/response"
	"github.com/innopoints/innopoints-api/internal/domain"
)

type LedgerService interface {
	AccountFinder
	Balance(ctx context.Context, email string) (int, error)
	Transactions(ctx context.Context, email string) ([]domain.Transaction, error)
	ManualTransaction(ctx context.Context, caller domain.Account, email string, change int) (domain.Transaction, error)
	CreateAccount(ctx context.Context, caller domain.Account, account domain.Account) (domain.Account, error)
}

type AccountHandler struct {
	svc LedgerService
}

func NewAccountHandler(svc LedgerService) *AccountHandler {
	return &AccountHandler{
		svc: svc,
	}
}

// HandleGetAccount godoc
// @Summary      Get the caller's account
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  response.AccountResponse
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /account [get]
// @Security     BearerAuth
func (h *AccountHandler) HandleGetAccount(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	balance, err := h.svc.Balance(ctx.Request.Context(), caller.Email)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.AccountResponse{Account: caller, Balance: balance})
}

// HandleGetBalance godoc
// @Summary      Get the caller's balance
// @Description  The balance is the sum of every transaction of the account.
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  response.BalanceResponse
// @Failure      401  {object}  response.Err
// @Router       /account/balance [get]
// @Security     BearerAuth
func (h *AccountHandler) HandleGetBalance(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	balance, err := h.svc.Balance(ctx.Request.Context(), caller.Email)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.BalanceResponse{Email: caller.Email, Balance: balance})
}

// HandleGetTransactions godoc
// @Summary      List the caller's transactions, newest first
// @Tags         accounts
// @Produce      json
// @Success      200  {array}   domain.Transaction
// @Failure      401  {object}  response.Err
// @Router       /account/transactions [get]
// @Security     BearerAuth
func (h *AccountHandler) HandleGetTransactions(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	txs, err := h.svc.Transactions(ctx.Request.Context(), caller.Email)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, txs)
}

// HandleCreateAccount godoc
// @Summary      Register an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateAccountRequest  true  "request body"
// @Success      201      {object}  domain.Account
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /accounts [post]
// @Security     BearerAuth
func (h *AccountHandler) HandleCreateAccount(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateAccountRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	account, err := h.svc.CreateAccount(ctx.Request.Context(), caller, domain.Account{
		Email:    req.Email,
		FullName: req.FullName,
		Group:    req.Group,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, account)
}

// HandleManualTransaction godoc
// @Summary      Adjust an account balance
// @Description  Records a transaction linked to neither a purchase nor a feedback.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        email    path      string                            true  "Account e-mail"
// @Param        request  body      request.ManualTransactionRequest  true  "request body"
// @Success      201      {object}  domain.Transaction
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /accounts/{email}/transactions [post]
// @Security     BearerAuth
func (h *AccountHandler) HandleManualTransaction(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ManualTransactionRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tx, err := h.svc.ManualTransaction(ctx.Request.Context(), caller, ctx.Param("email"), req.Change)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, tx)
}
