package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/comitanigiacomo/devlog-engine/docs"
	"github.com/comitanigiacomo/devlog-engine/internal/adapters/handler/http/middleware"
)

type RouterDependencies struct {
	AuthHandler    *AuthHandler
	UserHandler    *UserHandler
	WorkLogHandler *WorkLogHandler
	TeamHandler    *TeamHandler
	StatsHandler   *StatsHandler
	WSHandler      *WSHandler
	Tokens         middleware.TokenValidator

	// DB and Redis are optional; nil means the dependency is disabled.
	DB    *sqlx.DB
	Redis *redis.Client

	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
	StartTime      time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.CORS(deps.AllowedOrigins))

	if deps.Redis != nil && deps.RateLimit > 0 {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, deps.RateLimit, deps.RateWindow))
	}

	router.GET("/health", healthHandler(deps))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if deps.WSHandler != nil {
		router.GET("/ws", middleware.WebSocketAuthMiddleware(deps.Tokens), deps.WSHandler.Connect)
	}

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Tokens))

	deps.AuthHandler.RegisterRoutes(apiV1, protected)
	deps.UserHandler.RegisterRoutes(apiV1, protected)
	deps.WorkLogHandler.RegisterRoutes(protected)
	deps.TeamHandler.RegisterRoutes(protected)
	deps.StatsHandler.RegisterRoutes(protected)

	return router
}

func healthHandler(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		dbStatus := "disabled"
		if deps.DB != nil {
			dbStatus = "connected"
			if err := deps.DB.PingContext(ctx); err != nil {
				dbStatus = "unreachable"
			}
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				redisStatus = "unreachable"
			}
		}

		statusCode := 200
		status := "ok"
		if dbStatus == "unreachable" || redisStatus == "unreachable" {
			statusCode = 503
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
