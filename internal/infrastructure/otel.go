package infrastructure

import (
	"context"
	"fmt"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// OTelProviders bundles the meter and tracer handed to instrumented
// components, plus the Prometheus registry backing the metric exporter.
type OTelProviders struct {
	Meter    metric.Meter
	Tracer   trace.Tracer
	Registry *promclient.Registry

	meterProvider *sdkmetric.MeterProvider
	traceProvider *sdktrace.TracerProvider
}

// InitOTelProviders builds the OpenTelemetry providers. Traces go to a
// stdout exporter only in development; metrics are exposed through a
// Prometheus registry either way.
func InitOTelProviders(serviceName string, development bool) (*OTelProviders, error) {
	registry := promclient.NewRegistry()
	promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(promExporter))
	otel.SetMeterProvider(meterProvider)

	var traceProvider *sdktrace.TracerProvider
	if development {
		traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		traceProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
	} else {
		traceProvider = sdktrace.NewTracerProvider()
	}
	otel.SetTracerProvider(traceProvider)

	return &OTelProviders{
		Meter:         meterProvider.Meter(serviceName),
		Tracer:        traceProvider.Tracer(serviceName),
		Registry:      registry,
		meterProvider: meterProvider,
		traceProvider: traceProvider,
	}, nil
}

// Shutdown flushes and stops the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) {
	if p.traceProvider != nil {
		_ = p.traceProvider.Shutdown(ctx)
	}
	if p.meterProvider != nil {
		_ = p.meterProvider.Shutdown(ctx)
	}
}
