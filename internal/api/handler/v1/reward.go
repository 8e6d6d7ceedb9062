package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/innopoints/innopoints-api/internal/api/handler/v1/request"
	"github.com/innopoints/innopoints-api/internal/api/handler/v1/response"
	"github.com/innopoints/innopoints-api/internal/domain"
)

type RewardService interface {
	LeaveFeedback(ctx context.Context, caller domain.Account, applicationID uint, answers []string) (domain.Feedback, domain.Transaction, error)
	Feedback(ctx context.Context, caller domain.Account, applicationID uint) (domain.Feedback, error)
	AddOtherVolunteer(ctx context.Context, caller domain.Account, projectID uint, email string, hours int) (domain.Application, error)
}

type RewardHandler struct {
	svc      RewardService
	accounts AccountFinder
}

func NewRewardHandler(svc RewardService, accounts AccountFinder) *RewardHandler {
	return &RewardHandler{
		svc:      svc,
		accounts: accounts,
	}
}

// HandleLeaveFeedback godoc
// @Summary      Leave feedback and claim the reward
// @Description  Available once the project is finalizing. Pays the application's reward.
// @Tags         rewards
// @Accept       json
// @Produce      json
// @Param        applicationID  path      int                      true  "Application ID"
// @Param        request        body      request.FeedbackRequest  true  "request body"
// @Success      201            {object}  response.FeedbackResponse
// @Failure      400            {object}  response.Err
// @Failure      403            {object}  response.Err
// @Failure      409            {object}  response.Err
// @Router       /applications/{applicationID}/feedback [post]
// @Security     BearerAuth
func (h *RewardHandler) HandleLeaveFeedback(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	applicationID, respErr := paramID(ctx, "applicationID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	feedback, tx, err := h.svc.LeaveFeedback(ctx.Request.Context(), caller, applicationID, req.Answers)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, response.FeedbackResponse{Feedback: feedback, Transaction: tx})
}

// HandleGetFeedback godoc
// @Summary      Read the feedback of an application
// @Tags         rewards
// @Produce      json
// @Param        applicationID  path      int  true  "Application ID"
// @Success      200            {object}  domain.Feedback
// @Failure      403            {object}  response.Err
// @Failure      404            {object}  response.Err
// @Router       /applications/{applicationID}/feedback [get]
// @Security     BearerAuth
func (h *RewardHandler) HandleGetFeedback(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	applicationID, respErr := paramID(ctx, "applicationID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	feedback, err := h.svc.Feedback(ctx.Request.Context(), caller, applicationID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, feedback)
}

// HandleAddOtherVolunteer godoc
// @Summary      Reward a volunteer outside the regular activities
// @Description  Records an approved application on the project's internal activity.
// @Tags         rewards
// @Accept       json
// @Produce      json
// @Param        projectID  path      int                            true  "Project ID"
// @Param        request    body      request.OtherVolunteerRequest  true  "request body"
// @Success      201        {object}  domain.Application
// @Failure      400        {object}  response.Err
// @Failure      403        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /projects/{projectID}/other_volunteers [post]
// @Security     BearerAuth
func (h *RewardHandler) HandleAddOtherVolunteer(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	projectID, respErr := paramID(ctx, "projectID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.OtherVolunteerRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	app, err := h.svc.AddOtherVolunteer(ctx.Request.Context(), caller, projectID, req.Email, req.Hours)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, app)
}
