// Package cli holds the bootstrap shared by the faturamento binaries.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"faturamento/internal/config"
	applog "faturamento/internal/log"
	"faturamento/internal/projection"
	"faturamento/internal/services"
)

// ConfigFileEnv names the optional YAML overlay.
const ConfigFileEnv = "CONFIG_FILE"

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the environment, layered over CONFIG_FILE when set, and
// validates the result.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// SetupLogger builds the process logger and installs it as the slog default.
// A non-empty format overrides the configured one.
func SetupLogger(cfg *config.Config, component, format string) *applog.Logger {
	if format == "" {
		format = cfg.LogFormat
	}
	logger := applog.New(applog.Config{
		Level:     cfg.SlogLevel(),
		Format:    format,
		Component: component,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)
	return logger
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// BillingConfig maps the projection settings onto the billing service.
func BillingConfig(cfg *config.Config, logger *applog.Logger) services.BillingConfig {
	p := cfg.Projection
	return services.BillingConfig{
		Engine: projection.EngineConfig{
			Limits:    p.Limits(),
			ChunkSize: p.ChunkSize,
			MemoTTL:   p.MemoTTL,
			Logger:    logger.WithComponent(applog.ComponentProjection).Slog(),
		},
		PageSizeWide:   p.PageSize(projection.LayoutWide),
		PageSizeNarrow: p.PageSize(projection.LayoutNarrow),
	}
}
