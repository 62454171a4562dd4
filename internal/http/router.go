package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/nigmanand/portfolio-api/internal/auth"
	"github.com/nigmanand/portfolio-api/internal/cache"
	"github.com/nigmanand/portfolio-api/internal/config"
	"github.com/nigmanand/portfolio-api/internal/domain/content"
	"github.com/nigmanand/portfolio-api/internal/domain/user"
	"github.com/nigmanand/portfolio-api/internal/http/handlers"
	"github.com/nigmanand/portfolio-api/internal/http/middlewares"
	"github.com/nigmanand/portfolio-api/internal/observability"
	"github.com/nigmanand/portfolio-api/internal/repo/postgres"
)

// Deps carries everything the router needs; main builds it once.
type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Pool     *pgxpool.Pool
	Redis    *cache.Client
	Prom     *observability.Prom
	Recorder handlers.AuditRecorder
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("portfolio-api"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(d.Pool)
	contentRepo := postgres.NewContentRepo(d.Pool, d.Prom)
	profilesRepo := postgres.NewProfilesRepo(d.Pool)
	auditRepo := postgres.NewAuditRepo(d.Pool)

	jwtManager := auth.NewManager(d.Cfg.JWTSecret, d.Cfg.JWTExpiresIn)
	authMw := middlewares.NewAuthMiddleware(jwtManager, usersRepo)

	limiter := middlewares.NewRateLimiter(d.Cfg.RateLimitMax, d.Cfg.RateLimitWindow)
	rateLimit := limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	// wire up handlers

	healthHandler := handlers.NewHealthHandler(d.Pool, pinger(d.Redis))
	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, d.Recorder, d.Cfg)
	projectsHandler := handlers.NewProjectsHandler(contentRepo, d.Recorder)
	profileHandler := handlers.NewProfileHandler(profilesRepo, d.Recorder)
	auditHandler := handlers.NewAuditHandler(auditRepo)

	skillsHandler := handlers.NewContentHandler[content.SkillAttrs](content.KindSkill, contentRepo, d.Recorder)
	experiencesHandler := handlers.NewContentHandler[content.ExperienceAttrs](content.KindExperience, contentRepo, d.Recorder)
	educationHandler := handlers.NewContentHandler[content.EducationAttrs](content.KindEducation, contentRepo, d.Recorder)
	certificationsHandler := handlers.NewContentHandler[content.CertificationAttrs](content.KindCertification, contentRepo, d.Recorder)

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)

	api := r.Group("/api/v1")
	api.Use(rateLimit)

	// auth

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", authMw.RequireAuth(), authHandler.Me)
		authGroup.POST("/logout", authMw.RequireAuth(), authHandler.Logout)
		authGroup.POST("/refresh", authMw.RequireAuth(), authHandler.Refresh)
	}

	adminOnly := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{authMw.RequireAuth(), authMw.RequireRole(user.RoleAdmin), h}
	}

	// ordered content collections share the same route shape

	collections := []struct {
		path    string
		handler interface {
			List(*gin.Context)
			Create(*gin.Context)
			Update(*gin.Context)
			Delete(*gin.Context)
		}
	}{
		{"/skills", skillsHandler},
		{"/experiences", experiencesHandler},
		{"/education", educationHandler},
		{"/certifications", certificationsHandler},
	}

	for _, col := range collections {
		g := api.Group(col.path)
		g.GET("", authMw.OptionalAuth(), col.handler.List)
		g.POST("", adminOnly(col.handler.Create)...)
		g.PATCH("/:id", adminOnly(col.handler.Update)...)
		g.DELETE("/:id", adminOnly(col.handler.Delete)...)
	}

	// projects carry slugs and pagination on top of the shared shape

	projects := api.Group("/projects")
	{
		projects.GET("", authMw.OptionalAuth(), projectsHandler.List)
		projects.GET("/:slug", authMw.OptionalAuth(), projectsHandler.GetBySlug)
		projects.POST("", adminOnly(projectsHandler.Create)...)
		projects.PATCH("/:id", adminOnly(projectsHandler.Update)...)
		projects.DELETE("/:id", adminOnly(projectsHandler.Delete)...)
	}

	// profile is a singleton

	profile := api.Group("/profile")
	{
		profile.GET("", authMw.OptionalAuth(), profileHandler.Get)
		profile.PATCH("", adminOnly(profileHandler.Upsert)...)
	}

	// audit log read side, admins only

	api.GET("/audit", adminOnly(auditHandler.List)...)

	return r
}

// pinger avoids handing a typed-nil interface to the health handler.
func pinger(c *cache.Client) handlers.Pinger {
	if c == nil {
		return nil
	}

	return c
}
