package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/innopoints/innopoints-api/internal/api/handler/v1/request"
	"github.com/innopoints/innopoints-api/internal/api/handler/v1/response"
	"github.com/innopoints/innopoints-api/internal/domain"
)

type LifecycleService interface {
	Project(ctx context.Context, id uint) (domain.Project, error)
	CreateProject(ctx context.Context, caller domain.Account, project domain.Project) (domain.Project, error)
	Publish(ctx context.Context, caller domain.Account, projectID uint) (domain.Project, error)
	Finalize(ctx context.Context, caller domain.Account, projectID uint) (domain.Project, error)
	Close(ctx context.Context, caller domain.Account, projectID uint) (domain.Project, error)
	Review(ctx context.Context, caller domain.Account, projectID uint, status domain.ReviewStatus) (domain.Project, error)
	AddModerator(ctx context.Context, caller domain.Account, projectID uint, email string) (domain.Project, error)
	DeleteProject(ctx context.Context, caller domain.Account, projectID uint) error
}

type ProjectHandler struct {
	svc      LifecycleService
	accounts AccountFinder
}

func NewProjectHandler(svc LifecycleService, accounts AccountFinder) *ProjectHandler {
	return &ProjectHandler{
		svc:      svc,
		accounts: accounts,
	}
}

// HandleGetProject godoc
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Param        projectID  path      int  true  "Project ID"
// @Success      200        {object}  domain.Project
// @Failure      404        {object}  response.Err
// @Router       /projects/{projectID} [get]
// @Security     BearerAuth
func (h *ProjectHandler) HandleGetProject(ctx *gin.Context) {
	projectID, respErr := paramID(ctx, "projectID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	project, err := h.svc.Project(ctx.Request.Context(), projectID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, project)
}

// HandleCreateProject godoc
// @Summary      Create a draft project
// @Description  The creator becomes its first moderator.
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateProjectRequest  true  "request body"
// @Success      201      {object}  domain.Project
// @Failure      400      {object}  response.Err
// @Router       /projects [post]
// @Security     BearerAuth
func (h *ProjectHandler) HandleCreateProject(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateProjectRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	project, err := h.svc.CreateProject(ctx.Request.Context(), caller, domain.Project{
		Name:      req.Name,
		Organizer: req.Organizer,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

// HandlePublish godoc
// @Summary      Move a draft project to ongoing
// @Tags         projects
// @Produce      json
// @Param        projectID  path      int  true  "Project ID"
// @Success      200        {object}  domain.Project
// @Failure      403        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /projects/{projectID}/publish [post]
// @Security     BearerAuth
func (h *ProjectHandler) HandlePublish(ctx *gin.Context) {
	h.handleAdvance(ctx, h.svc.Publish)
}

// HandleFinalize godoc
// @Summary      Move an ongoing project to finalizing
// @Description  Volunteers with approved applications are invited to claim their points.
// @Tags         projects
// @Produce      json
// @Param        projectID  path      int  true  "Project ID"
// @Success      200        {object}  domain.Project
// @Failure      403        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /projects/{projectID}/finalize [post]
// @Security     BearerAuth
func (h *ProjectHandler) HandleFinalize(ctx *gin.Context) {
	h.handleAdvance(ctx, h.svc.Finalize)
}

// HandleClose godoc
// @Summary      Move a finalizing project to finished
// @Tags         projects
// @Produce      json
// @Param        projectID  path      int  true  "Project ID"
// @Success      200        {object}  domain.Project
// @Failure      403        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /projects/{projectID}/close [post]
// @Security     BearerAuth
func (h *ProjectHandler) HandleClose(ctx *gin.Context) {
	h.handleAdvance(ctx, h.svc.Close)
}

func (h *ProjectHandler) handleAdvance(ctx *gin.Context, advance func(context.Context, domain.Account, uint) (domain.Project, error)) {
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

	project, err := advance(ctx.Request.Context(), caller, projectID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, project)
}

// HandleReview godoc
// @Summary      Set the review status of a finalizing project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        projectID  path      int                    true  "Project ID"
// @Param        request    body      request.ReviewRequest  true  "request body"
// @Success      200        {object}  domain.Project
// @Failure      400        {object}  response.Err
// @Failure      403        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /projects/{projectID}/review_status [patch]
// @Security     BearerAuth
func (h *ProjectHandler) HandleReview(ctx *gin.Context) {
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

	var req request.ReviewRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	project, err := h.svc.Review(ctx.Request.Context(), caller, projectID, domain.ReviewStatus(req.Status))
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, project)
}

// HandleAddModerator godoc
// @Summary      Add a moderator to a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        projectID  path      int                       true  "Project ID"
// @Param        request    body      request.ModeratorRequest  true  "request body"
// @Success      200        {object}  domain.Project
// @Failure      400        {object}  response.Err
// @Failure      403        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /projects/{projectID}/moderators [post]
// @Security     BearerAuth
func (h *ProjectHandler) HandleAddModerator(ctx *gin.Context) {
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

	var req request.ModeratorRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	project, err := h.svc.AddModerator(ctx.Request.Context(), caller, projectID, req.Email)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, project)
}

// HandleDeleteProject godoc
// @Summary      Delete a project with its activities and applications
// @Tags         projects
// @Param        projectID  path  int  true  "Project ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /projects/{projectID} [delete]
// @Security     BearerAuth
func (h *ProjectHandler) HandleDeleteProject(ctx *gin.Context) {
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

	if err := h.svc.DeleteProject(ctx.Request.Context(), caller, projectID); err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
