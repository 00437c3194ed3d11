package api

import (
	"togglehub/internal/metrics"
	"togglehub/internal/middleware"
	"togglehub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Health  *HealthHandler
	Auth    *AuthHandler
	Check   *CheckHandler
	Feature *FeatureHandler
	Project *ProjectHandler
	Company *CompanyHandler
	User    *UserHandler
	Report  *ReportHandler
	History *HistoryHandler
	Audit   *AuditHandler
}

func RegisterRoutes(h Handlers, projects repository.ProjectInterface, rdb *redis.Client, requestsPerSecond int, devMode bool) *gin.Engine {
	r := gin.New()

	// Global Middleware
	r.Use(
		middleware.CorsMiddleware(),
		middleware.RequestID(),
		middleware.GinZapLogger(),
		middleware.GinZapRecovery(),
		middleware.HttpMiddleware(),
		middleware.TraceMiddleware(),
	)
	r.SetTrustedProxies(nil)

	// Public Routes
	r.GET("/health", h.Health.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth Routes (Public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	// Auth Routes (Protected)
	authProtected := r.Group("/v1/auth")
	authProtected.Use(middleware.JWTMiddleware(devMode))
	{
		authProtected.GET("/me", h.Auth.GetProfile)
		authProtected.POST("/logout", h.Auth.Logout)
	}

	// Evaluation Route (Protected by Project API Key)
	check := r.Group("/v1/check")
	check.Use(middleware.APIKeyMiddleware(projects), middleware.RateLimitMiddleware(rdb, requestsPerSecond))
	{
		check.POST("/:feature_key", h.Check.Check)
	}

	// Control Plane (Protected by JWT)
	protected := r.Group("/v1")
	protected.Use(middleware.JWTMiddleware(devMode))

	// Rate Limiter for Write Operations
	writeLimiter := middleware.RateLimitMiddleware(rdb, requestsPerSecond)

	{
		protected.POST("/features", writeLimiter, h.Feature.CreateFeature)
		protected.GET("/features", h.Feature.ListFeatures)
		protected.GET("/features/:id", h.Feature.GetFeature)
		protected.PUT("/features/:id", writeLimiter, h.Feature.UpdateFeature)
		protected.DELETE("/features/:id", writeLimiter, h.Feature.DeleteFeature)
		protected.GET("/features/:id/history", h.History.ListFeatureHistory)

		protected.POST("/projects", writeLimiter, h.Project.CreateProject)
		protected.GET("/projects", h.Project.ListProjects)
		protected.GET("/projects/:id", h.Project.GetProject)

		protected.GET("/change-history", h.History.ListHistory)
		protected.GET("/reports/usage", h.Report.UsageReport)
	}

	// Admin Routes (role gated)
	admin := r.Group("/v1")
	admin.Use(middleware.JWTMiddleware(devMode), middleware.AdminOnly())
	{
		admin.POST("/companies", h.Company.CreateCompany)
		admin.GET("/companies", h.Company.ListCompanies)
		admin.GET("/companies/:id", h.Company.GetCompany)
		admin.PUT("/companies/:id", h.Company.UpdateCompany)

		admin.POST("/users", h.User.RegisterUser)
		admin.GET("/users", h.User.ListUsers)
		admin.POST("/users/assign-company", h.User.AssignCompany)

		admin.GET("/audit", h.Audit.ListAuditLogs)
		admin.GET("/audit/:entity/:id", h.Audit.ListEntityAuditLogs)
	}

	return r
}
