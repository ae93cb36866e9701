package operations

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mriocli/internal/config"
)

// Manager drives a run's steps in order, recording their state.
type Manager struct {
	steps  []Step
	states map[string]*StepState
	logger *slog.Logger
	tracer *RunTracer
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTracer attaches OpenTelemetry instrumentation to the run.
func WithTracer(t *RunTracer) ManagerOption {
	return func(m *Manager) { m.tracer = t }
}

// WithSteps replaces the default pipeline.
func WithSteps(steps []Step) ManagerOption {
	return func(m *Manager) { m.steps = steps }
}

// NewManager creates a manager with the default pipeline.
func NewManager(logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		steps:  DefaultSteps(),
		states: make(map[string]*StepState),
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, step := range m.steps {
		m.states[step.ID()] = NewStepState(step.ID(), step.Name())
	}
	return m
}

// StepState returns the recorded state of a step.
func (m *Manager) StepState(id string) *StepState {
	return m.states[id]
}

// Run executes the pipeline against fresh state built from the settings
// and returns the final state.
func (m *Manager) Run(ctx context.Context, settings *config.Settings, cfg *config.Config) (*OperationState, error) {
	state := &OperationState{
		ID:       uuid.NewString(),
		Settings: settings,
		Config:   cfg,
		Logger:   m.logger,
	}
	m.logger.Info("starting run",
		slog.String("operation_id", state.ID),
		slog.Int("steps", len(m.steps)))

	for _, step := range m.steps {
		if err := m.runStep(ctx, step, state); err != nil {
			return state, err
		}
	}
	return state, nil
}

func (m *Manager) runStep(ctx context.Context, step Step, state *OperationState) error {
	stepState := m.states[step.ID()]
	if err := step.Validate(state); err != nil {
		stepState.Fail(err)
		return err
	}

	stepState.Start()
	m.logger.Info("step started",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()))

	start := time.Now()
	if m.tracer != nil {
		stepCtx, span := m.tracer.TraceStep(ctx, state.ID, step.ID())
		err := step.Execute(stepCtx, state)
		m.tracer.RecordStepCompletion(stepCtx, span, step.ID(), time.Since(start), err)
		span.End()
		return m.finishStep(step, stepState, state, err, start)
	}

	err := step.Execute(ctx, state)
	return m.finishStep(step, stepState, state, err, start)
}

func (m *Manager) finishStep(step Step, stepState *StepState, state *OperationState, err error, start time.Time) error {
	if err != nil {
		stepState.Fail(err)
		m.logger.Error("step failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return err
	}
	stepState.Complete()
	m.logger.Info("step completed",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()),
		slog.Duration("duration", time.Since(start)))
	return nil
}
