package operations

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ProgressTracker tracks progress for long-running steps. Log emission
// is rate limited so tight loops do not flood the output.
type ProgressTracker struct {
	Step      string
	Total     int
	Current   int
	StartTime time.Time
	Message   string
	mu        sync.Mutex
	limiter   *rate.Limiter
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker(step string, total int) *ProgressTracker {
	return &ProgressTracker{
		Step:      step,
		Total:     total,
		StartTime: time.Now(),
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Update updates the current progress.
func (p *ProgressTracker) Update(current int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Current = current
	p.Message = message
}

// Increment increments the current progress by 1.
func (p *ProgressTracker) Increment(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Current++
	p.Message = message
}

// GetProgress returns the current progress state.
func (p *ProgressTracker) GetProgress() (current, total int, percentage float64, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	percentage = 0
	if p.Total > 0 {
		percentage = float64(p.Current) / float64(p.Total) * 100
	}
	return p.Current, p.Total, percentage, p.Message
}

// MaybeLog emits a progress line if the rate limiter allows one.
func (p *ProgressTracker) MaybeLog(logger *slog.Logger) {
	if !p.limiter.Allow() {
		return
	}
	current, total, percentage, message := p.GetProgress()
	logger.Info("progress",
		slog.String("step", p.Step),
		slog.Int("current", current),
		slog.Int("total", total),
		slog.Float64("percent", percentage),
		slog.String("message", message))
}

// GetETA calculates the estimated time remaining.
func (p *ProgressTracker) GetETA() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Current == 0 || p.Total == 0 {
		return "calculating..."
	}
	elapsed := time.Since(p.StartTime)
	perItem := elapsed.Seconds() / float64(p.Current)
	remaining := perItem * float64(p.Total-p.Current)
	switch {
	case remaining < 60:
		return fmt.Sprintf("%.0f seconds", remaining)
	case remaining < 3600:
		return fmt.Sprintf("%.1f minutes", remaining/60)
	default:
		return fmt.Sprintf("%.1f hours", remaining/3600)
	}
}

// IsComplete returns true if the step is complete.
func (p *ProgressTracker) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.Current >= p.Total
}
