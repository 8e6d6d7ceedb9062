package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/innopoints/innopoints-api/internal/api/handler/v1/request"
	"github.com/innopoints/innopoints-api/internal/api/handler/v1/response"
	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/service"
)

type ActivityService interface {
	Activity(ctx context.Context, id uint) (domain.Activity, error)
	Activities(ctx context.Context, projectID uint) ([]domain.Activity, error)
	VacantSpots(ctx context.Context, activityID uint) (int, error)
	Create(ctx context.Context, caller domain.Account, projectID uint, activity domain.Activity) (domain.Activity, error)
	Patch(ctx context.Context, caller domain.Account, activityID uint, patch service.ActivityPatch) (domain.Activity, error)
	Delete(ctx context.Context, caller domain.Account, activityID uint) error
}

type ApplicationService interface {
	Applications(ctx context.Context, caller domain.Account, activityID uint) ([]domain.Application, error)
	Apply(ctx context.Context, caller domain.Account, activityID uint, comment, telegram string) (domain.Application, error)
	Withdraw(ctx context.Context, caller domain.Account, activityID uint) error
	EditApplication(ctx context.Context, caller domain.Account, applicationID uint, patch service.ApplicationPatch) (domain.Application, error)
	SubmitReport(ctx context.Context, caller domain.Account, applicationID uint, rating int, content string) (domain.VolunteeringReport, error)
}

type ActivityHandler struct {
	activities   ActivityService
	applications ApplicationService
	accounts     AccountFinder
}

func NewActivityHandler(activities ActivityService, applications ApplicationService, accounts AccountFinder) *ActivityHandler {
	return &ActivityHandler{
		activities:   activities,
		applications: applications,
		accounts:     accounts,
	}
}

var errActivityNotInProject = errors.New("activity does not belong to this project")

// activityInPath resolves :activityID and checks it belongs to :projectID.
func (h *ActivityHandler) activityInPath(ctx *gin.Context) (domain.Activity, *response.Err) {
	projectID, respErr := paramID(ctx, "projectID")
	if respErr != nil {
		return domain.Activity{}, respErr
	}
	activityID, respErr := paramID(ctx, "activityID")
	if respErr != nil {
		return domain.Activity{}, respErr
	}

	activity, err := h.activities.Activity(ctx.Request.Context(), activityID)
	if err != nil {
		return domain.Activity{}, response.FromError(err)
	}
	if activity.ProjectID != projectID {
		return domain.Activity{}, response.ErrNotFound(errActivityNotInProject)
	}

	return activity, nil
}

// HandleListActivities godoc
// @Summary      List the activities of a project
// @Description  Internal activities are left out.
// @Tags         activities
// @Produce      json
// @Param        projectID  path      int  true  "Project ID"
// @Success      200        {array}   response.ActivityResponse
// @Failure      404        {object}  response.Err
// @Router       /projects/{projectID}/activities [get]
// @Security     BearerAuth
func (h *ActivityHandler) HandleListActivities(ctx *gin.Context) {
	projectID, respErr := paramID(ctx, "projectID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activities, err := h.activities.Activities(ctx.Request.Context(), projectID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	res := make([]response.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		vacant, err := h.activities.VacantSpots(ctx.Request.Context(), a.ID)
		if err != nil {
			response.RenderErr(ctx, response.FromError(err))
			return
		}
		res = append(res, response.ActivityResponse{Activity: a, VacantSpots: vacant})
	}

	ctx.JSON(http.StatusOK, res)
}

// HandleCreateActivity godoc
// @Summary      Add an activity to a project
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        projectID  path      int                      true  "Project ID"
// @Param        request    body      request.ActivityRequest  true  "request body"
// @Success      201        {object}  domain.Activity
// @Failure      400        {object}  response.Err
// @Failure      403        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /projects/{projectID}/activities [post]
// @Security     BearerAuth
func (h *ActivityHandler) HandleCreateActivity(ctx *gin.Context) {
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

	var req request.ActivityRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activity, err := h.activities.Create(ctx.Request.Context(), caller, projectID, req.Activity())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, activity)
}

// HandlePatchActivity godoc
// @Summary      Edit an activity
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        projectID   path      int                           true  "Project ID"
// @Param        activityID  path      int                           true  "Activity ID"
// @Param        request     body      request.ActivityPatchRequest  true  "request body"
// @Success      200         {object}  domain.Activity
// @Failure      400         {object}  response.Err
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Router       /projects/{projectID}/activities/{activityID} [patch]
// @Security     BearerAuth
func (h *ActivityHandler) HandlePatchActivity(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activity, respErr := h.activityInPath(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ActivityPatchRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activity, err := h.activities.Patch(ctx.Request.Context(), caller, activity.ID, req.Patch())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, activity)
}

// HandleDeleteActivity godoc
// @Summary      Delete an activity with its applications
// @Tags         activities
// @Param        projectID   path  int  true  "Project ID"
// @Param        activityID  path  int  true  "Activity ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /projects/{projectID}/activities/{activityID} [delete]
// @Security     BearerAuth
func (h *ActivityHandler) HandleDeleteActivity(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activity, respErr := h.activityInPath(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.activities.Delete(ctx.Request.Context(), caller, activity.ID); err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListApplications godoc
// @Summary      List the applications to an activity
// @Tags         applications
// @Produce      json
// @Param        projectID   path      int  true  "Project ID"
// @Param        activityID  path      int  true  "Activity ID"
// @Success      200         {array}   domain.Application
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Router       /projects/{projectID}/activities/{activityID}/applications [get]
// @Security     BearerAuth
func (h *ActivityHandler) HandleListApplications(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activity, respErr := h.activityInPath(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	apps, err := h.applications.Applications(ctx.Request.Context(), caller, activity.ID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, apps)
}

// HandleApply godoc
// @Summary      Apply for an activity
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        projectID   path      int                   true  "Project ID"
// @Param        activityID  path      int                   true  "Activity ID"
// @Param        request     body      request.ApplyRequest  true  "request body"
// @Success      201         {object}  domain.Application
// @Failure      400         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Router       /projects/{projectID}/activities/{activityID}/applications [post]
// @Security     BearerAuth
func (h *ActivityHandler) HandleApply(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activity, respErr := h.activityInPath(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ApplyRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	app, err := h.applications.Apply(ctx.Request.Context(), caller, activity.ID, req.Comment, req.Telegram)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, app)
}

// HandleWithdraw godoc
// @Summary      Withdraw the caller's application
// @Tags         applications
// @Param        projectID   path  int  true  "Project ID"
// @Param        activityID  path  int  true  "Activity ID"
// @Success      204
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /projects/{projectID}/activities/{activityID}/applications [delete]
// @Security     BearerAuth
func (h *ActivityHandler) HandleWithdraw(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activity, respErr := h.activityInPath(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.applications.Withdraw(ctx.Request.Context(), caller, activity.ID); err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleEditApplication godoc
// @Summary      Change the status or hours of an application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        applicationID  path      int                              true  "Application ID"
// @Param        request        body      request.ApplicationPatchRequest  true  "request body"
// @Success      200            {object}  domain.Application
// @Failure      400            {object}  response.Err
// @Failure      403            {object}  response.Err
// @Failure      409            {object}  response.Err
// @Router       /applications/{applicationID} [patch]
// @Security     BearerAuth
func (h *ActivityHandler) HandleEditApplication(ctx *gin.Context) {
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

	var req request.ApplicationPatchRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	app, err := h.applications.EditApplication(ctx.Request.Context(), caller, applicationID, req.Patch())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, app)
}

// HandleSubmitReport godoc
// @Summary      Report on a volunteer's work
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        applicationID  path      int                    true  "Application ID"
// @Param        request        body      request.ReportRequest  true  "request body"
// @Success      201            {object}  domain.VolunteeringReport
// @Failure      400            {object}  response.Err
// @Failure      403            {object}  response.Err
// @Failure      409            {object}  response.Err
// @Router       /applications/{applicationID}/reports [post]
// @Security     BearerAuth
func (h *ActivityHandler) HandleSubmitReport(ctx *gin.Context) {
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

	var req request.ReportRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	report, err := h.applications.SubmitReport(ctx.Request.Context(), caller, applicationID, req.Rating, req.Content)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, report)
}
