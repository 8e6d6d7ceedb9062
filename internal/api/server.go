package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/innopoints/innopoints-api/docs"
	v1 "github.com/innopoints/innopoints-api/internal/api/handler/v1"
	"github.com/innopoints/innopoints-api/internal/api/middleware"
	"github.com/innopoints/innopoints-api/internal/config"
	"github.com/innopoints/innopoints-api/internal/metrics"
	"github.com/innopoints/innopoints-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

type handlers struct {
	account      *v1.AccountHandler
	store        *v1.StoreHandler
	project      *v1.ProjectHandler
	activity     *v1.ActivityHandler
	reward       *v1.RewardHandler
	notification *v1.NotificationHandler
}

// NewServer wires every service onto store. Notifications go to notifier;
// stream serves the websocket feed.
func NewServer(conf *config.AppConfig, store service.Store, notifier service.Notifier, stream v1.NotificationStream) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers(store, notifier, stream))

	return s
}

func (s *Server) initHandlers(store service.Store, notifier service.Notifier, stream v1.NotificationStream) handlers {
	pointsPerHour := s.Config.Innopoints.PointsPerHour

	ledger := service.NewLedgerService(store, notifier)
	inventory := service.NewInventoryService(store, notifier)
	lifecycle := service.NewLifecycleService(store, notifier, pointsPerHour)
	activities := service.NewActivityService(store, notifier, pointsPerHour)
	applications := service.NewApplicationService(store, notifier)
	reward := service.NewRewardService(store, notifier)

	return handlers{
		account:      v1.NewAccountHandler(ledger),
		store:        v1.NewStoreHandler(inventory, ledger),
		project:      v1.NewProjectHandler(lifecycle, ledger),
		activity:     v1.NewActivityHandler(activities, applications, ledger),
		reward:       v1.NewRewardHandler(reward, ledger),
		notification: v1.NewNotificationHandler(stream, ledger),
	}
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(metrics.Middleware())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	api := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		api.GET("/account", h.account.HandleGetAccount)
		api.GET("/account/balance", h.account.HandleGetBalance)
		api.GET("/account/transactions", h.account.HandleGetTransactions)
		api.POST("/accounts", h.account.HandleCreateAccount)
		api.POST("/accounts/:email/transactions", h.account.HandleManualTransaction)
	}

	{
		api.POST("/products", h.store.HandleCreateProduct)
		api.POST("/products/:productID/varieties", h.store.HandleCreateVariety)
		api.GET("/varieties/:varietyID", h.store.HandleGetVariety)
		api.POST("/varieties/:varietyID/purchase", h.store.HandlePurchase)
		api.POST("/varieties/:varietyID/restock", h.store.HandleRestock)
		api.PATCH("/stock_changes/:stockChangeID/status", h.store.HandleStockChangeStatus)
	}

	{
		api.POST("/projects", h.project.HandleCreateProject)
		api.GET("/projects/:projectID", h.project.HandleGetProject)
		api.DELETE("/projects/:projectID", h.project.HandleDeleteProject)
		api.POST("/projects/:projectID/publish", h.project.HandlePublish)
		api.POST("/projects/:projectID/finalize", h.project.HandleFinalize)
		api.POST("/projects/:projectID/close", h.project.HandleClose)
		api.PATCH("/projects/:projectID/review_status", h.project.HandleReview)
		api.POST("/projects/:projectID/moderators", h.project.HandleAddModerator)
		api.POST("/projects/:projectID/other_volunteers", h.reward.HandleAddOtherVolunteer)
	}

	{
		api.GET("/projects/:projectID/activities", h.activity.HandleListActivities)
		api.POST("/projects/:projectID/activities", h.activity.HandleCreateActivity)
		api.PATCH("/projects/:projectID/activities/:activityID", h.activity.HandlePatchActivity)
		api.DELETE("/projects/:projectID/activities/:activityID", h.activity.HandleDeleteActivity)
		api.GET("/projects/:projectID/activities/:activityID/applications", h.activity.HandleListApplications)
		api.POST("/projects/:projectID/activities/:activityID/applications", h.activity.HandleApply)
		api.DELETE("/projects/:projectID/activities/:activityID/applications", h.activity.HandleWithdraw)
		api.PATCH("/applications/:applicationID", h.activity.HandleEditApplication)
		api.POST("/applications/:applicationID/reports", h.activity.HandleSubmitReport)
		api.POST("/applications/:applicationID/feedback", h.reward.HandleLeaveFeedback)
		api.GET("/applications/:applicationID/feedback", h.reward.HandleGetFeedback)
	}

	api.GET("/notifications/ws", h.notification.HandleNotifications)

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
