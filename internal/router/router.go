package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/appointment-api/internal/handler/health"
	"github.com/jwalitptl/appointment-api/internal/handler/prometheus"
	"github.com/jwalitptl/appointment-api/internal/middleware"
	"github.com/jwalitptl/appointment-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	// RateLimit is nil when per-client limiting is off.
	RateLimit    *middleware.RateLimiterConfig
	CORSConfig   middleware.CORSConfig
	MaxBodyBytes int64
	ExposeErrors bool
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	health   *health.Handler
	metricsH *prometheus.Handler
	handlers []Handler
}

func NewRouter(
	config RouterConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
	auth *middleware.AuthMiddleware,
	healthH *health.Handler,
	metricsH *prometheus.Handler,
	handlers ...Handler,
) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		health:   healthH,
		metricsH: metricsH,
		handlers: handlers,
	}

	engine.Use(
		middleware.RequestID(logger),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorExposure(config.ExposeErrors),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimit != nil {
		engine.Use(middleware.NewRateLimiter(*config.RateLimit).RateLimit())
	}
	if config.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(config.MaxBodyBytes))
	}

	return r
}

// Setup mounts probes and metrics unauthenticated and everything else under
// /api/v1 behind bearer authentication.
func (r *Router) Setup() {
	if r.health != nil {
		r.health.RegisterRoutes(r.engine)
	}
	if r.metricsH != nil {
		r.metricsH.RegisterRoutes(r.engine)
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})
	api.Use(r.auth.Authenticate())

	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
