package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `validate:"required"`
	Port        string `validate:"required,numeric"`
	Log         LogConfig
	Adapter     AdapterConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `validate:"oneof=json text"`
}

// AdapterConfig holds the Lambda adapter configuration
type AdapterConfig struct {
	FaultPolicy          string        `validate:"oneof=abort respond"`
	EventSource          string        `validate:"oneof=auto apigw-v1 apigw-v2 alb"`
	RateLimitRPS         float64       `validate:"gte=0"`
	RateLimitBurst       int           `validate:"min=1"`
	SlowRequestThreshold time.Duration `validate:"gte=0"`
	LazyInit             bool
}

var validate = validator.New()

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("FAULT_POLICY", "respond")
	v.SetDefault("EVENT_SOURCE", "auto")
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 1)
	v.SetDefault("SLOW_REQUEST_THRESHOLD", "1s")
	v.SetDefault("LAZY_INIT", false)

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Adapter: AdapterConfig{
			FaultPolicy:          v.GetString("FAULT_POLICY"),
			EventSource:          v.GetString("EVENT_SOURCE"),
			RateLimitRPS:         v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst:       v.GetInt("RATE_LIMIT_BURST"),
			SlowRequestThreshold: v.GetDuration("SLOW_REQUEST_THRESHOLD"),
			LazyInit:             v.GetBool("LAZY_INIT"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
