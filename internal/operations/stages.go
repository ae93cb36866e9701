package operations

import (
	"context"
	"log/slog"

	"mriocli/internal/dataprocessing"
	"mriocli/internal/disagg"
	"mriocli/internal/errors"
	"mriocli/internal/exporter"
	"mriocli/internal/files"
	"mriocli/internal/proxy"
)

// LoadStep reads the base table from its configured source.
type LoadStep struct {
	BaseStep
}

// NewLoadStep creates the load step.
func NewLoadStep() *LoadStep {
	return &LoadStep{BaseStep: NewBaseStep("load", "Load base table")}
}

// Validate checks that the settings name a base table and that every
// referenced input file exists.
func (s *LoadStep) Validate(state *OperationState) error {
	if state.Settings == nil {
		return errors.New(errors.KindConfig, "MISSING_SETTINGS", "no settings loaded")
	}
	return files.CheckInputs(state.Settings)
}

// Execute loads the base table into the run state.
func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	table, err := dataprocessing.Load(state.Settings.Basetable)
	if err != nil {
		return err
	}
	state.Base = table
	return nil
}

// RefineStep applies splits and runs the proxy loop.
type RefineStep struct {
	BaseStep
	progress *ProgressTracker
}

// NewRefineStep creates the refine step.
func NewRefineStep() *RefineStep {
	return &RefineStep{BaseStep: NewBaseStep("refine", "Refine table")}
}

// Validate checks the base table is in place.
func (s *RefineStep) Validate(state *OperationState) error {
	if state.Base == nil {
		return errors.New(errors.KindConfig, "MISSING_BASETABLE", "base table not loaded")
	}
	return nil
}

// Execute splits the working table, loads the proxies against the split
// index set and runs the refinement loop.
func (s *RefineStep) Execute(ctx context.Context, state *OperationState) error {
	workers := 0
	if state.Config != nil {
		workers = state.Config.Workers
	}
	d := disagg.New(state.Base,
		disagg.WithWorkers(workers),
		disagg.WithLogger(state.Logger))

	if err := d.ApplySplits(state.Settings.Subs); err != nil {
		return err
	}

	// Proxy axes address sub members, so loading must happen after the
	// splits have grown the index set.
	proxies := make([]*proxy.Data, 0, len(state.Settings.Proxies))
	for _, spec := range state.Settings.Proxies {
		p, err := proxy.Load(spec, d.Table().IndexSet())
		if err != nil {
			return err
		}
		proxies = append(proxies, p)
	}

	s.progress = NewProgressTracker(s.ID(), len(proxies))
	refined, err := d.Refine(ctx, proxies)
	if err != nil {
		return err
	}
	s.progress.Update(len(proxies), "refinement finished")
	state.Refined = refined
	return nil
}

// ExportStep writes the refined table to the configured sink.
type ExportStep struct {
	BaseStep
}

// NewExportStep creates the export step.
func NewExportStep() *ExportStep {
	return &ExportStep{BaseStep: NewBaseStep("export", "Write refined table")}
}

// Validate checks the refined table is in place.
func (s *ExportStep) Validate(state *OperationState) error {
	if state.Refined == nil {
		return errors.New(errors.KindConfig, "MISSING_RESULT", "refined table not computed")
	}
	return nil
}

// Execute writes the refined table.
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	if err := exporter.Write(state.Refined, state.Settings.Output); err != nil {
		return err
	}
	state.Logger.Info("run complete",
		slog.String("operation_id", state.ID),
		slog.Int("size", state.Refined.N()))
	return nil
}

// DefaultSteps returns the standard pipeline for a disaggregation run.
func DefaultSteps() []Step {
	return []Step{
		NewLoadStep(),
		NewRefineStep(),
		NewExportStep(),
	}
}
