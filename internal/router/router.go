package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/mailpilot/campaign-api/internal/handler"
	"github.com/mailpilot/campaign-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
}

type Router struct {
	engine    *gin.Engine
	auth      *middleware.AuthMiddleware
	authH     Handler
	settingsH Handler
	contactH  Handler
	templateH Handler
	h         *handler.Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH Handler,
	settingsH Handler,
	contactH Handler,
	templateH Handler,
	h *handler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return &Router{
		engine:    engine,
		auth:      auth,
		authH:     authH,
		settingsH: settingsH,
		contactH:  contactH,
		templateH: templateH,
		h:         h,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/health", r.h.HealthCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	// public
	r.authH.RegisterRoutes(api)

	// authenticated tenant surface
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.settingsH.RegisterRoutes(protected)
	r.contactH.RegisterRoutes(protected)
	r.templateH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
