// Package logging configures logrus from application config.
package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"lambda-http-adapter/internal/config"
)

// Setup builds a logger for cfg. Unknown levels fall back to info.
func Setup(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	return logger
}

// WithServerless adds the Lambda function identity to every entry
func WithServerless(logger *logrus.Logger, sc *config.ServerlessConfig) logrus.FieldLogger {
	if !sc.IsLambda {
		return logger
	}
	return logger.WithFields(logrus.Fields{
		"function_name":    sc.FunctionName,
		"function_version": sc.Version,
		"region":           sc.Region,
	})
}
