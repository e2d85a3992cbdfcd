package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saudemente/clinic-api/internal/handler/health"
	"github.com/saudemente/clinic-api/internal/handler/prometheus"
	"github.com/saudemente/clinic-api/internal/middleware"
	"github.com/saudemente/clinic-api/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CacheTTL       time.Duration
}

func DefaultConfig() Config {
	return Config{
		RateLimitRPS:   50,
		RateLimitBurst: 100,
		CacheTTL:       30 * time.Second,
	}
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	authH    Handler
	doctorH  Handler
	teamH    Handler
	patientH Handler
	authzH   Handler
	sessionH Handler
	billingH Handler
	healthH  *health.Handler
	promH    *prometheus.Handler
	cache    *middleware.ResponseCache
}

func New(
	auth *middleware.AuthMiddleware,
	authH Handler,
	doctorH Handler,
	teamH Handler,
	patientH Handler,
	authzH Handler,
	sessionH Handler,
	billingH Handler,
	healthH *health.Handler,
	promH *prometheus.Handler,
	cache *middleware.ResponseCache,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		authH:    authH,
		doctorH:  doctorH,
		teamH:    teamH,
		patientH: patientH,
		authzH:   authzH,
		sessionH: sessionH,
		billingH: billingH,
		healthH:  healthH,
		promH:    promH,
		cache:    cache,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		promH.Middleware(),
		middleware.CORS(),
	)

	rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.healthH.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", r.promH.Handler())

	api := r.engine.Group("/api/v1")

	// Public routes
	r.authH.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.doctorH.RegisterRoutes(protected)
	r.teamH.RegisterRoutes(protected)
	r.patientH.RegisterRoutes(protected)
	r.authzH.RegisterRoutes(protected)
	r.sessionH.RegisterRoutes(protected)

	// Billing reads are admin-only and cached briefly.
	billing := protected.Group("")
	billing.Use(
		r.auth.RequireRole(model.UserRoleAdmin),
		r.cache.Cache(),
	)
	r.billingH.RegisterRoutes(billing)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
