package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/scribe-api/internal/handler/health"
	"github.com/jwalitptl/scribe-api/internal/middleware"
)

// Handler registers its routes on the versioned API group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	db     *sqlx.DB

	appointmentH Handler
	recordingH   Handler
	transcriptH  Handler
	templateH    Handler
	noteH        Handler
	auditH       Handler
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	db *sqlx.DB,
	appointmentH Handler,
	recordingH Handler,
	transcriptH Handler,
	templateH Handler,
	noteH Handler,
	auditH Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return &Router{
		engine:       engine,
		auth:         auth,
		db:           db,
		appointmentH: appointmentH,
		recordingH:   recordingH,
		transcriptH:  transcriptH,
		templateH:    templateH,
		noteH:        noteH,
		auditH:       auditH,
	}
}

func (r *Router) Setup() {
	health.NewHandler(r.db).RegisterRoutes(r.engine)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.appointmentH.RegisterRoutes(protected)
	r.recordingH.RegisterRoutes(protected)
	r.transcriptH.RegisterRoutes(protected)
	r.templateH.RegisterRoutes(protected)
	r.noteH.RegisterRoutes(protected)
	r.auditH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
