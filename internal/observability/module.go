// Package observability wires logging, tracing and metrics into the fx app.
package observability

import (
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/config"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/observability/metrics"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/observability/tracing"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/version"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

const serviceName = "karyalay-portal"

var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Tracing.Enabled,
			ServiceName:      serviceName,
			ServiceVersion:   version.Version,
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
			ExporterProtocol: cfg.Tracing.ExporterProtocol,
			SamplingRatio:    cfg.Tracing.SamplingRatio,
		}
	}),
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{
			ServiceName: serviceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(tracing.NewProvider),
	fx.Provide(metrics.NewMeterProvider),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(metrics.Pool),
	// Force tracer construction even though nothing injects it directly.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
