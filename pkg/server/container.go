package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"lambda-http-adapter/internal/config"
	"lambda-http-adapter/internal/handlers"
	"lambda-http-adapter/internal/logging"
	"lambda-http-adapter/pkg/lambda"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      logrus.FieldLogger
	Registry    *prometheus.Registry
	Metrics     *lambda.Metrics
	Router      *gin.Engine // nil when the service is built lazily
	Service     lambda.Service[*lambda.StreamResponse]
	FaultPolicy lambda.FaultPolicy
	EventSource lambda.EventSource
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	policy, err := lambda.ParseFaultPolicy(cfg.Adapter.FaultPolicy)
	if err != nil {
		return nil, err
	}
	source, err := lambda.ParseEventSource(cfg.Adapter.EventSource)
	if err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	serverless := config.GetServerlessConfig()
	logger := logging.WithServerless(logging.Setup(cfg.Log), serverless)

	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	metrics := lambda.NewMetrics(registry)
	if err := metrics.Register(); err != nil {
		return nil, fmt.Errorf("failed to register adapter metrics: %w", err)
	}

	routerConfig := &handlers.RouterConfig{
		Logger:               logger,
		DeploymentMode:       config.GetDeploymentMode(),
		SlowRequestThreshold: cfg.Adapter.SlowRequestThreshold,
	}

	var router *gin.Engine
	var service lambda.Service[*lambda.StreamResponse]
	if cfg.Adapter.LazyInit {
		service = lambda.Lazy(func(ctx context.Context) (lambda.Service[*lambda.StreamResponse], error) {
			logger.Info("Building router on first invocation")
			return lambda.NewHandlerService(handlers.NewRouter(routerConfig)), nil
		})
	} else {
		router = handlers.NewRouter(routerConfig)
		service = lambda.NewHandlerService(router)
	}
	if cfg.Adapter.RateLimitRPS > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.Adapter.RateLimitRPS), cfg.Adapter.RateLimitBurst)
		service = lambda.RateLimit(service, limiter)
	}

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Registry:    registry,
		Metrics:     metrics,
		Router:      router,
		Service:     service,
		FaultPolicy: policy,
		EventSource: source,
	}, nil
}

// AdapterOptions returns the adapter options derived from configuration
func (c *Container) AdapterOptions() []lambda.AdapterOption {
	return []lambda.AdapterOption{
		lambda.WithFaultPolicy(c.FaultPolicy),
		lambda.WithLogger(c.Logger),
		lambda.WithMetrics(c.Metrics),
	}
}

// NewHandler builds the Lambda handler for the container's service
func (c *Container) NewHandler() *lambda.Handler[*lambda.StreamResponse] {
	return lambda.NewHandler(lambda.NewAdapter(c.Service, c.AdapterOptions()...), c.EventSource)
}
