package main

import (
	"log"

	"lambda-http-adapter/internal/config"
	"lambda-http-adapter/pkg/lambda"
	"lambda-http-adapter/pkg/server"
)

func main() {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := server.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	container.Logger.WithField("fault_policy", container.FaultPolicy.String()).Info("Starting Lambda runtime")

	if err := lambda.Run(container.Service,
		lambda.WithEventSource(container.EventSource),
		lambda.WithAdapterOptions(container.AdapterOptions()...),
	); err != nil {
		container.Logger.WithError(err).Fatal("Lambda runtime exited")
	}
}
