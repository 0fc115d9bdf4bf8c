package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lambda-http-adapter/internal/middleware"
)

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Logger               logrus.FieldLogger
	DeploymentMode       string
	SlowRequestThreshold time.Duration
}

// NewRouter builds the gin engine served both by the Lambda adapter and by
// the local server.
func NewRouter(config *RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler(config.Logger))
	router.Use(middleware.StructuredLogger(config.Logger))
	router.Use(middleware.PerformanceMonitor(config.Logger, config.SlowRequestThreshold))

	SetupRoutes(router, config)
	return router
}

// SetupRoutes configures all routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	echoHandler := NewEchoHandler()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "healthy",
			"service":         "lambda-http-adapter",
			"deployment_mode": config.DeploymentMode,
		})
	})

	router.Any("/echo", echoHandler.Echo)
	router.GET("/stream", echoHandler.Stream)
	router.GET("/event", echoHandler.Event)
}
