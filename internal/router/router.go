package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jwalitptl/clinic-api/docs"
	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	"github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

const apiPrefix = "/api/v1"

// Handler is implemented by every module that registers into the shared
// route groups.
type Handler interface {
	RegisterRoutes(handler.RouteGroups)
}

// PublicHandler registers routes that need no authentication.
type PublicHandler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	Release    bool
	Server     config.ServerConfig
	CORS       middleware.CORSConfig
	RateLimit  *middleware.RateLimiterConfig
	StaticRoot string
}

// FromConfig derives the router settings from the application config.
func FromConfig(cfg *config.Config) Config {
	rc := Config{
		Release:    cfg.IsProduction(),
		Server:     cfg.Server,
		CORS:       middleware.CORSFromConfig(cfg.CORS),
		StaticRoot: cfg.StaticRoot,
	}
	if cfg.RateLimit.Enabled {
		rl := middleware.RateLimiterFromConfig(cfg.RateLimit)
		rc.RateLimit = &rl
	}
	return rc
}

type Router struct {
	engine   *gin.Engine
	config   Config
	auth     *middleware.AuthMiddleware
	authH    PublicHandler
	health   *health.Handler
	metrics  *prometheus.Handler
	handlers []Handler
}

func NewRouter(
	config Config,
	auth *middleware.AuthMiddleware,
	authH PublicHandler,
	healthH *health.Handler,
	metrics *prometheus.Handler,
	handlers ...Handler,
) (*Router, error) {
	if config.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validator.Register(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httputil.Failure("not found"))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, httputil.Failure("method not allowed"))
	})

	r := &Router{
		engine:   engine,
		config:   config,
		auth:     auth,
		authH:    authH,
		health:   healthH,
		metrics:  metrics,
		handlers: handlers,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		metrics.Middleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORS),
	)
	if config.RateLimit != nil {
		engine.Use(middleware.NewRateLimiter(*config.RateLimit).RateLimit())
	}

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if config.Server.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = config.Server.MaxBodyBytes
	}
	timeout := middleware.DefaultTimeoutConfig()
	if config.Server.RequestTimeout > 0 {
		timeout.Duration = config.Server.RequestTimeout
	}
	engine.Use(
		middleware.SizeLimit(sizeLimit),
		middleware.Timeout(timeout),
		middleware.Cache(middleware.DefaultCacheConfig()),
		middleware.Compress(middleware.DefaultCompressConfig()),
		middleware.AuditContext(),
	)

	return r, nil
}

func (r *Router) Setup() {
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if r.config.StaticRoot != "" {
		r.engine.Static("/static", r.config.StaticRoot)
	}

	api := r.engine.Group(apiPrefix)
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.health.RegisterRoutes(api, r.metrics.Handler())
	r.authH.RegisterRoutes(api)

	authenticated := r.auth.Authenticate()
	groups := handler.RouteGroups{
		Public:    api,
		Protected: api.Group("", authenticated),
		Admin:     api.Group("/admin", authenticated, r.auth.RequireAdmin()),
		Customer:  api.Group("", authenticated, r.auth.RequireRole(model.RoleCustomer)),
		Operator:  api.Group("", authenticated, r.auth.RequireRole(model.RoleStaff)),
	}
	for _, h := range r.handlers {
		h.RegisterRoutes(groups)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
