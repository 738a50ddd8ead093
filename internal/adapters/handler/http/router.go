package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/comitanigiacomo/kanso-habits/internal/metrics"
)

const (
	defaultRateLimit  = 100
	defaultRateWindow = time.Minute
)

// RouterDependencies carries everything NewRouter mounts. DB and Redis are
// optional; the health check reports them as disabled when nil.
type RouterDependencies struct {
	AuthHandler    *AuthHandler
	HabitHandler   *HabitHandler
	StatsHandler   *StatsHandler
	FeedHandler    *FeedHandler
	ProfileHandler *ProfileHandler
	TokenService   *services.TokenService
	DB             *sqlx.DB
	Redis          *redis.Client
	Metrics        *metrics.Metrics
	Logger         *logrus.Logger
	RateLimit      int
	RateWindow     time.Duration
	StartTime      time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(deps.Logger))

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	if deps.Redis != nil {
		limit, window := deps.RateLimit, deps.RateWindow
		if limit <= 0 {
			limit = defaultRateLimit
		}
		if window <= 0 {
			window = defaultRateWindow
		}
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, limit, window))
	}

	router.GET("/health", healthHandler(deps))
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	apiV1 := router.Group("/api/v1")

	deps.AuthHandler.RegisterRoutes(apiV1)
	if deps.FeedHandler != nil {
		deps.FeedHandler.RegisterRoutes(apiV1)
	}

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	{
		deps.HabitHandler.RegisterRoutes(protected)
		deps.StatsHandler.RegisterRoutes(protected)
		if deps.ProfileHandler != nil {
			deps.ProfileHandler.RegisterRoutes(protected)
		}
	}

	return router
}

func healthHandler(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "disabled"
		if deps.DB != nil {
			dbStatus = "connected"
			if err := deps.DB.PingContext(c.Request.Context()); err != nil {
				dbStatus = "unreachable"
			}
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if err := deps.Redis.Ping(c.Request.Context()).Err(); err != nil {
				redisStatus = "unreachable"
			}
		}

		statusCode := http.StatusOK
		status := "ok"
		if dbStatus == "unreachable" || redisStatus == "unreachable" {
			statusCode = http.StatusServiceUnavailable
			status = "degraded"
		}

		c.JSON(statusCode, gin.H{
			"status":   status,
			"database": dbStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	}
}
