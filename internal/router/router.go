// Package router assembles the HTTP route table.
package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/complaint-desk/api/swagger"
	"github.com/noah-isme/complaint-desk/internal/handler"
	"github.com/noah-isme/complaint-desk/internal/middleware"
	"github.com/noah-isme/complaint-desk/internal/service"
	"github.com/noah-isme/complaint-desk/pkg/config"
	"github.com/noah-isme/complaint-desk/pkg/logger"
	corsmiddleware "github.com/noah-isme/complaint-desk/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/complaint-desk/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth       *handler.AuthHandler
	Complaints *handler.ComplaintHandler
	Users      *handler.UserHandler
	Export     *handler.ExportHandler
	Stream     *handler.StreamHandler
	Metrics    *handler.MetricsHandler
}

// Options carries everything the route table depends on.
type Options struct {
	Config       *config.Config
	Logger       *zap.Logger
	Resolver     middleware.CallerResolver
	Metrics      *service.MetricsService
	SessionStore sessions.Store
	Handlers     Handlers
}

// NewSessionStore builds the signed cookie store holding the caller's user id.
func NewSessionStore(cfg config.SessionConfig) sessions.Store {
	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// New builds the gin engine with middleware and every route.
func New(opts Options) *gin.Engine {
	cfg := opts.Config
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SessionStore == nil {
		opts.SessionStore = NewSessionStore(cfg.Session)
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger,
		logger.WithSkipPaths("/metrics", prefix+"/health", prefix+"/ready"),
		logger.WithFields(middleware.LogFields),
	))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	h := opts.Handlers
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)
	api.GET("/health", h.Metrics.Health)
	api.GET("/ready", h.Metrics.Ready)

	api.Use(sessions.Sessions(cfg.Session.Name, opts.SessionStore))
	api.Use(middleware.LoadUser(opts.Resolver))

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)
	auth.POST("/token", middleware.RequireUser(), h.Auth.Token)

	complaints := api.Group("/complaints", middleware.RequireUser())
	complaints.GET("", h.Complaints.List)
	complaints.POST("", h.Complaints.Create)
	complaints.POST("/:id/close", h.Complaints.Close)
	complaints.GET("/:id/messages", h.Complaints.ListMessages)
	complaints.POST("/:id/messages", h.Complaints.PostMessage)
	complaints.GET("/:id/messages/stream", h.Stream.Messages)

	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.GET("/users", h.Users.List)
	admin.POST("/users/:id/role", h.Users.SetRole)
	admin.GET("/complaints/export", h.Export.Complaints)

	return r
}
