package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
)

// Config carries process-level settings, loaded from the environment.
type Config struct {
	Environment string
	HTTPAddr    string
	DatabaseDSN string

	Tracing TracingConfig

	Provision ProvisionConfig

	Bootstrap BootstrapConfig

	WebhookRateLimit  int
	WebhookRateWindow time.Duration
}

// TracingConfig controls the OTLP exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// ProvisionConfig controls the pending-allocation retry worker.
type ProvisionConfig struct {
	Enabled      bool
	BatchSize    int
	PollInterval time.Duration
}

// BootstrapConfig controls startup seeding.
type BootstrapConfig struct {
	EnsureAdminUser bool
	AdminEmail      string
	AdminPassword   string
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment with development defaults.
func Load() Config {
	return Config{
		Environment: envString("PORTAL_ENV", "development"),
		HTTPAddr:    envString("PORTAL_HTTP_ADDR", ":8080"),
		DatabaseDSN: envString("PORTAL_DATABASE_DSN", "file:portal.db?_pragma=busy_timeout(5000)"),
		Tracing: TracingConfig{
			Enabled:          envBool("PORTAL_TRACING_ENABLED", false),
			ExporterEndpoint: envString("PORTAL_OTLP_ENDPOINT", ""),
			ExporterProtocol: envString("PORTAL_OTLP_PROTOCOL", "grpc"),
			SamplingRatio:    envFloat("PORTAL_TRACING_SAMPLING_RATIO", 0.1),
		},
		Provision: ProvisionConfig{
			Enabled:      envBool("PORTAL_PROVISION_WORKER_ENABLED", true),
			BatchSize:    envInt("PORTAL_PROVISION_BATCH_SIZE", 25),
			PollInterval: envDuration("PORTAL_PROVISION_POLL_INTERVAL", 30*time.Second),
		},
		Bootstrap: BootstrapConfig{
			EnsureAdminUser: envBool("PORTAL_BOOTSTRAP_ADMIN", true),
			AdminEmail:      envString("PORTAL_BOOTSTRAP_ADMIN_EMAIL", "admin@karyalay.local"),
			AdminPassword:   envString("PORTAL_BOOTSTRAP_ADMIN_PASSWORD", "admin"),
		},
		WebhookRateLimit:  envInt("PORTAL_WEBHOOK_RATE_LIMIT", 60),
		WebhookRateWindow: envDuration("PORTAL_WEBHOOK_RATE_WINDOW", time.Minute),
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
