// Package operations structures a disaggregation run as a short
// pipeline of steps: load the base table, refine it, export the result.
// Each step reports its state and duration, and the manager drives them
// in order, with optional tracing.
package operations

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mriocli/internal/config"
	"mriocli/internal/mrio"
)

// OperationState carries everything a run accumulates while its steps
// execute.
type OperationState struct {
	ID       string
	Settings *config.Settings
	Config   *config.Config
	Logger   *slog.Logger

	Base    *mrio.Table
	Refined *mrio.Table
}

// Step represents a single step of the run.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() string

	// Name returns the human-readable name for this step.
	Name() string

	// Execute runs the step with the given context and run state.
	Execute(ctx context.Context, state *OperationState) error

	// Validate checks if the step can be executed with the current state.
	Validate(state *OperationState) error
}

// StepStatus represents the current status of a step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// StepState represents the runtime state of a step.
type StepState struct {
	mu        sync.RWMutex
	ID        string
	Name      string
	Status    StepStatus
	StartTime *time.Time
	EndTime   *time.Time
	Message   string
	Err       error
}

// NewStepState creates a new step state with default values.
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:     id,
		Name:   name,
		Status: StepStatusPending,
	}
}

// Start marks the step as active and sets the start time.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the step as completed and sets the end time.
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the step as failed with the given error.
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Err = err
}

// Duration returns the duration of the step execution.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// BaseStep provides common functionality for Step implementations.
type BaseStep struct {
	id   string
	name string
}

// NewBaseStep creates a new base step.
func NewBaseStep(id, name string) BaseStep {
	return BaseStep{id: id, name: name}
}

// ID returns the step ID.
func (b *BaseStep) ID() string { return b.id }

// Name returns the step name.
func (b *BaseStep) Name() string { return b.name }

// Validate provides a default validation that always passes.
func (b *BaseStep) Validate(state *OperationState) error { return nil }
