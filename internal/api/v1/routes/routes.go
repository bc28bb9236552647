package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"videosplit/internal/api/middleware"
	"videosplit/internal/api/v1/handlers"
	"videosplit/internal/api/v1/services"
	"videosplit/internal/app/billing"
	"videosplit/internal/app/ratelimit"
	"videosplit/internal/app/repository"
	"videosplit/internal/app/splitter"
	"videosplit/internal/app/transfer"
	"videosplit/internal/config"
)

// ServiceContainer holds everything the v1 handlers need.
type ServiceContainer struct {
	Accounts     repository.AccountDAO
	Orchestrator *splitter.Orchestrator
	Negotiator   *transfer.Negotiator
	Limiter      *ratelimit.Limiter
	Billing      *billing.Processor
	JobService   services.JobService
	UsageService services.UsageService
	Config       *config.Config
	Logger       *slog.Logger
}

// RegisterRoutes registers all v1 API routes.
//
// Download and job-status routes authenticate by job id alone: the uuid is
// the capability, which keeps shared download links working without a key.
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	jobHandler := handlers.NewJobHandler(container.JobService)

	// Capability-token routes, no API key needed.
	router.GET("/jobs/:job_id", jobHandler.Get)
	router.GET("/jobs/:job_id/segments", jobHandler.DownloadInfo)
	router.GET("/jobs/:job_id/archive", jobHandler.DownloadAll)
	router.GET("/download/:job_id/:filename", jobHandler.DownloadSegment)
	router.DELETE("/jobs/:job_id", jobHandler.Delete)

	// Authenticated routes.
	auth := router.Group("")
	auth.Use(middleware.APIKeyAuth(container.Accounts, container.Logger))

	splitHandler := handlers.NewSplitHandler(container.Orchestrator, container.Config)
	auth.POST("/split",
		middleware.RateLimit(container.Limiter, ratelimit.OpSplit),
		splitHandler.Split)

	// Process kicks off an encode, so it shares the split budget; init is a
	// cheap metadata call and only counts against the general API budget.
	uploadHandler := handlers.NewUploadHandler(container.Negotiator, container.Orchestrator)
	auth.POST("/upload/init",
		middleware.RateLimit(container.Limiter, ratelimit.OpAPI),
		uploadHandler.Init)
	auth.POST("/upload/:job_id/process",
		middleware.RateLimit(container.Limiter, ratelimit.OpSplit),
		uploadHandler.Process)

	usageHandler := handlers.NewUsageHandler(container.UsageService)
	usage := auth.Group("/usage")
	usage.Use(middleware.RateLimit(container.Limiter, ratelimit.OpAPI))
	{
		usage.GET("", usageHandler.Summary)
		usage.GET("/recent", usageHandler.Recent)
	}

	auth.GET("/jobs",
		middleware.RateLimit(container.Limiter, ratelimit.OpAPI),
		jobHandler.List)

	// Billing webhook, mounted behind the internal network boundary.
	billingHandler := handlers.NewBillingHandler(container.Billing)
	router.POST("/billing/plan-changed", billingHandler.PlanChanged)
}
