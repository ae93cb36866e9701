// Package disagg drives the iterative refinement of a base table: apply
// the split instructions, then for each proxy in priority order run an
// approximation pass (fill finer cells from proxy shares of the previous
// iteration's flows) and an adjustment pass (renormalise every super
// cell to its base aggregate).
package disagg

import (
	"context"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"mriocli/internal/config"
	"mriocli/internal/errors"
	"mriocli/internal/mrio"
	"mriocli/internal/proxy"
)

// Disaggregator holds the state of one refinement: the immutable base
// table, the working table grown by splits, and the per-cell quality
// stamps.
type Disaggregator struct {
	base    *mrio.Table
	table   *mrio.Table
	quality *mrio.QualityGrid
	workers int
	logger  *slog.Logger
}

// Option configures a Disaggregator.
type Option func(*Disaggregator)

// WithWorkers bounds the number of concurrent super-cell tasks per pass.
func WithWorkers(n int) Option {
	return func(d *Disaggregator) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger sets the logger used for per-iteration progress.
func WithLogger(l *slog.Logger) Option {
	return func(d *Disaggregator) {
		d.logger = l
	}
}

// New creates a Disaggregator over a base table loaded at super-only
// resolution. The working table starts as a detached copy so splits
// never touch the base snapshot.
func New(basetable *mrio.Table, opts ...Option) *Disaggregator {
	d := &Disaggregator{
		base:    basetable,
		table:   basetable.CloneDetached(),
		workers: runtime.NumCPU(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Table returns the working table.
func (d *Disaggregator) Table() *mrio.Table { return d.table }

// ApplySplits applies the split instructions to the working table in
// declared order, equi-distributing the affected flows.
func (d *Disaggregator) ApplySplits(instructions []config.SplitInstruction) error {
	for _, instr := range instructions {
		names := instr.SubNames()
		var err error
		switch instr.Type {
		case "sector":
			err = d.table.InsertSubsectors(instr.ID, names)
		case "region":
			err = d.table.InsertSubregions(instr.ID, names)
		default:
			err = errors.Newf(errors.KindConfig, "UNKNOWN_TYPE", "unknown split type %q", instr.Type)
		}
		if err != nil {
			return err
		}
		d.logger.Info("applied split",
			slog.String("type", instr.Type),
			slog.String("id", instr.ID),
			slog.Int("parts", len(names)),
			slog.Int("table_size", d.table.N()))
	}
	return nil
}

// fullIndices enumerates every super cell with at least one split
// member. The list is sorted by the number of split members so runs are
// reproducible; order only matters for load balancing.
func (d *Disaggregator) fullIndices() []proxy.FullIndex {
	set := d.table.IndexSet()
	var full []proxy.FullIndex
	set.EachSuper(func(i *mrio.Sector, r *mrio.Region) {
		rowSplit := i.HasSub() || r.HasSub()
		set.EachSuper(func(j *mrio.Sector, s *mrio.Region) {
			if rowSplit || j.HasSub() || s.HasSub() {
				full = append(full, proxy.FullIndex{I: i, R: r, J: j, S: s})
			}
		})
	})
	splitCount := func(fi proxy.FullIndex) int {
		n := 0
		if fi.I.HasSub() {
			n++
		}
		if fi.R.HasSub() {
			n++
		}
		if fi.J.HasSub() {
			n++
		}
		if fi.S.HasSub() {
			n++
		}
		return n
	}
	sort.SliceStable(full, func(a, b int) bool {
		return splitCount(full[a]) < splitCount(full[b])
	})
	return full
}

// Refine runs the iterative approximation and adjustment loop over the
// given proxies and returns the refined table. Proxies are applied in
// order with priorities 1, 2, … stamping the quality grid as they write.
func (d *Disaggregator) Refine(ctx context.Context, proxies []*proxy.Data) (*mrio.Table, error) {
	d.quality = mrio.NewQualityGrid(d.table.IndexSet())
	full := d.fullIndices()
	d.logger.Info("starting refinement",
		slog.Int("super_cells", len(full)),
		slog.Int("proxies", len(proxies)),
		slog.Int("workers", d.workers))

	for idx, p := range proxies {
		priority := idx + 1
		last := d.table.Clone()

		if err := d.approximate(ctx, p, full, last, priority); err != nil {
			return nil, err
		}
		if err := d.adjust(ctx, full, priority); err != nil {
			return nil, err
		}
		d.logger.Info("proxy applied",
			slog.Int("priority", priority),
			slog.String("source", p.Source()))
	}
	return d.table, nil
}

// approximate runs one approximation pass, data-parallel over the super
// cells. Every task writes only into its own super cell and reads only
// the previous-iteration snapshot, so no locking is needed.
func (d *Disaggregator) approximate(ctx context.Context, p *proxy.Data, full []proxy.FullIndex, last *mrio.Table, priority int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, fi := range full {
		fi := fi
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return p.ApproximateCell(fi, d.table, d.quality, last, priority)
		})
	}
	return g.Wait()
}

// adjust runs one adjustment pass: every super cell with a positive base
// value is rescaled so its leaf sum equals the base aggregate. Cells the
// current proxy wrote exactly keep their values when the remainder can
// absorb the gap; otherwise the whole cell is scaled uniformly.
func (d *Disaggregator) adjust(ctx context.Context, full []proxy.FullIndex, priority int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, fi := range full {
		fi := fi
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d.adjustCell(fi, priority)
			return nil
		})
	}
	return g.Wait()
}

func (d *Disaggregator) adjustCell(fi proxy.FullIndex, priority int) {
	base := d.base.Base(fi.I, fi.R, fi.J, fi.S)
	if !(base > 0) {
		return
	}
	sumExact, sumNonExact := 0.0, 0.0
	mrio.ForEachLeaf(fi.I, fi.R, fi.J, fi.S, func(i *mrio.Sector, r *mrio.Region, j *mrio.Sector, s *mrio.Region) {
		if d.quality.At(i, r, j, s) == priority {
			sumExact += d.table.At(i, r, j, s)
		} else {
			sumNonExact += d.table.At(i, r, j, s)
		}
	})
	if base > sumExact && sumNonExact > 0 {
		scale := (base - sumExact) / sumNonExact
		mrio.ForEachLeaf(fi.I, fi.R, fi.J, fi.S, func(i *mrio.Sector, r *mrio.Region, j *mrio.Sector, s *mrio.Region) {
			if d.quality.At(i, r, j, s) != priority {
				d.table.Set(i, r, j, s, scale*d.table.At(i, r, j, s))
			}
		})
		return
	}
	if correction := base / (sumExact + sumNonExact); correction != 1 {
		mrio.ForEachLeaf(fi.I, fi.R, fi.J, fi.S, func(i *mrio.Sector, r *mrio.Region, j *mrio.Sector, s *mrio.Region) {
			d.table.Set(i, r, j, s, correction*d.table.At(i, r, j, s))
		})
	}
}
