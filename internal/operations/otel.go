package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"mriocli/internal/infrastructure"
)

const TracerName = "mriocli.operation"

// RunTracer provides OpenTelemetry instrumentation for runs.
type RunTracer struct {
	tracer       trace.Tracer
	stepDuration metric.Float64Histogram
	stepsTotal   metric.Int64Counter
	tableCells   metric.Int64Gauge
}

// NewRunTracer creates a run tracer from the shared providers.
func NewRunTracer(providers *infrastructure.OTelProviders) (*RunTracer, error) {
	stepDuration, err := providers.Meter.Float64Histogram("mriocli.step.duration",
		metric.WithDescription("Step execution duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create step duration histogram: %w", err)
	}
	stepsTotal, err := providers.Meter.Int64Counter("mriocli.step.executions",
		metric.WithDescription("Step executions by status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create step counter: %w", err)
	}
	tableCells, err := providers.Meter.Int64Gauge("mriocli.table.cells",
		metric.WithDescription("Cells of the working table"))
	if err != nil {
		return nil, fmt.Errorf("failed to create table gauge: %w", err)
	}
	return &RunTracer{
		tracer:       providers.Tracer,
		stepDuration: stepDuration,
		stepsTotal:   stepsTotal,
		tableCells:   tableCells,
	}, nil
}

// TraceStep creates a span for one step execution.
func (t *RunTracer) TraceStep(ctx context.Context, operationID, stepID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("operation.step.%s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stepID),
		))
}

// RecordStepCompletion records a step's outcome on its span and metrics.
func (t *RunTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	span.SetAttributes(
		attribute.String("step.status", status),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
	)
	t.stepDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("step_id", stepID)))
	t.stepsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("step_id", stepID),
			attribute.String("status", status)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "step execution failed")
		return
	}
	span.SetStatus(codes.Ok, "step completed successfully")
}

// RecordTableSize records the working table's current cell count.
func (t *RunTracer) RecordTableSize(ctx context.Context, n int) {
	t.tableCells.Record(ctx, int64(n)*int64(n))
}
