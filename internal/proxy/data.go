package proxy

import (
	"math"

	"mriocli/internal/errors"
	"mriocli/internal/mrio"
)

// Data is one loaded proxy: its tensor, its declared axes and its
// applications. Tensor cells default to NaN, meaning "not given".
type Data struct {
	values []float64
	axes   []*Axis
	apps   []*Application
	set    *mrio.IndexSet
	source string
}

// Axes returns the declared axes in declaration order.
func (p *Data) Axes() []*Axis { return p.axes }

// Applications returns the declared applications.
func (p *Data) Applications() []*Application { return p.apps }

// Source returns the proxy's source file, for diagnostics.
func (p *Data) Source() string { return p.source }

// term is one assigned axis with the level index of the flow leaf it is
// evaluated at.
type term struct {
	axis  *Axis
	level int
}

// collectTerms lists the assigned axes of an application with the level
// indices of the given flow leaves, in i, r, j, s order.
func collectTerms(app *Application, i *mrio.Sector, r *mrio.Region, j *mrio.Sector, s *mrio.Region) []term {
	terms := make([]term, 0, 4)
	if app.I != nil {
		terms = append(terms, term{app.I, i.LevelIndex()})
	}
	if app.R != nil {
		terms = append(terms, term{app.R, r.LevelIndex()})
	}
	if app.J != nil {
		terms = append(terms, term{app.J, j.LevelIndex()})
	}
	if app.S != nil {
		terms = append(terms, term{app.S, s.LevelIndex()})
	}
	return terms
}

// foreignSum sums the tensor over the Cartesian product of the foreign
// clusters of all mapped assigned axes; unmapped axes contribute the
// leaf's own index. NaN when any native leaf is outside its mapping.
func (p *Data) foreignSum(offset int, terms []term) float64 {
	if len(terms) == 0 {
		return p.values[offset]
	}
	t := terms[0]
	if !t.axis.Mapped {
		return p.foreignSum(offset+t.level*t.axis.Stride, terms[1:])
	}
	part := t.axis.native[t.level]
	if part.ForeignCluster == nil {
		return math.NaN()
	}
	res := 0.0
	for foreign := range part.ForeignCluster {
		res += p.foreignSum(offset+foreign.Index*t.axis.Stride, terms[1:])
	}
	return res
}

// MappedValue computes the proxy's contribution to one flow cell: the
// foreign-cluster sum of the tensor, multiplied per mapped axis by the
// share of the leaf's previous flow within its native cluster. Pairs not
// admitted in the index set are skipped in the cluster flow sums.
func (p *Data) MappedValue(app *Application, last *mrio.Table, i *mrio.Sector, r *mrio.Region, j *mrio.Sector, s *mrio.Region) float64 {
	value := p.foreignSum(0, collectTerms(app, i, r, j, s))
	if math.IsNaN(value) {
		return value
	}
	if app.I != nil && app.I.Mapped {
		part := app.I.native[i.LevelIndex()]
		if part.NativeCluster == nil {
			return math.NaN()
		}
		if len(part.NativeCluster) > 1 {
			sum := 0.0
			for k := range part.NativeCluster {
				from := p.set.At(k.Sector, r)
				to := p.set.At(j, s)
				if from != mrio.NotGiven && to != mrio.NotGiven {
					sum += last.Value(from, to)
				}
			}
			value *= last.At(i, r, j, s) / sum
		}
	}
	if app.R != nil && app.R.Mapped {
		part := app.R.native[r.LevelIndex()]
		if part.NativeCluster == nil {
			return math.NaN()
		}
		if len(part.NativeCluster) > 1 {
			sum := 0.0
			for k := range part.NativeCluster {
				from := p.set.At(i, k.Region)
				to := p.set.At(j, s)
				if from != mrio.NotGiven && to != mrio.NotGiven {
					sum += last.Value(from, to)
				}
			}
			value *= last.At(i, r, j, s) / sum
		}
	}
	if app.J != nil && app.J.Mapped {
		part := app.J.native[j.LevelIndex()]
		if part.NativeCluster == nil {
			return math.NaN()
		}
		if len(part.NativeCluster) > 1 {
			sum := 0.0
			for k := range part.NativeCluster {
				from := p.set.At(i, r)
				to := p.set.At(k.Sector, s)
				if from != mrio.NotGiven && to != mrio.NotGiven {
					sum += last.Value(from, to)
				}
			}
			value *= last.At(i, r, j, s) / sum
		}
	}
	if app.S != nil && app.S.Mapped {
		part := app.S.native[s.LevelIndex()]
		if part.NativeCluster == nil {
			return math.NaN()
		}
		if len(part.NativeCluster) > 1 {
			sum := 0.0
			for k := range part.NativeCluster {
				from := p.set.At(i, r)
				to := p.set.At(j, k.Region)
				if from != mrio.NotGiven && to != mrio.NotGiven {
					sum += last.Value(from, to)
				}
			}
			value *= last.At(i, r, j, s) / sum
		}
	}
	return value
}

// matchingApplications finds the up to two applications that apply to a
// super cell's split pattern.
func (p *Data) matchingApplications(fi FullIndex) (*Application, *Application, error) {
	var app1, app2 *Application
	for _, app := range p.apps {
		if !app.AppliesTo(fi.I, fi.R, fi.J, fi.S) {
			continue
		}
		switch {
		case app1 == nil:
			app1 = app
		case app2 == nil:
			app2 = app
		default:
			return nil, nil, errors.Newf(errors.KindConfig, "TOO_MANY_APPLICATIONS",
				"more than two applications apply to %s:%s->%s:%s",
				fi.I.Name(), fi.R.Name(), fi.J.Name(), fi.S.Name()).In(p.source)
		}
	}
	return app1, app2, nil
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ApproximateCell fills the leaf cells of one super cell from proxy
// shares of the previous iteration's flows, stamping written cells with
// the proxy priority d. Cells for which the proxy gives no finite value
// keep their previous value.
func (p *Data) ApproximateCell(fi FullIndex, table *mrio.Table, quality *mrio.QualityGrid, last *mrio.Table, d int) error {
	app1, app2, err := p.matchingApplications(fi)
	if err != nil {
		return err
	}
	if app1 == nil {
		return nil
	}
	if app2 == nil {
		denom := app1.FlowDenominator(last, fi.I, fi.R, fi.J, fi.S)
		if !(denom > 0) || !usable(denom) {
			return nil
		}
		mrio.ForEachLeaf(fi.I, fi.R, fi.J, fi.S, func(i *mrio.Sector, r *mrio.Region, j *mrio.Sector, s *mrio.Region) {
			share := p.MappedValue(app1, last, i, r, j, s) / denom
			if math.IsNaN(share) {
				return
			}
			value := app1.FlowNumerator(last, i, r, j, s) * share
			if !usable(value) {
				return
			}
			table.Set(i, r, j, s, value)
			quality.Set(i, r, j, s, d)
		})
		return nil
	}
	denom1 := app1.FlowDenominator(last, fi.I, fi.R, fi.J, fi.S)
	if !(denom1 > 0) || !usable(denom1) {
		return nil
	}
	denom2 := app2.FlowDenominator(last, fi.I, fi.R, fi.J, fi.S)
	if !(denom2 > 0) || !usable(denom2) {
		return nil
	}
	combined, err := Combine(app1, app2)
	if err != nil {
		return err
	}
	mrio.ForEachLeaf(fi.I, fi.R, fi.J, fi.S, func(i *mrio.Sector, r *mrio.Region, j *mrio.Sector, s *mrio.Region) {
		share1 := p.MappedValue(app1, last, i, r, j, s) / denom1
		share2 := p.MappedValue(app2, last, i, r, j, s) / denom2
		var value float64
		switch {
		case math.IsNaN(share1) && math.IsNaN(share2):
			return
		case math.IsNaN(share1):
			value = app2.FlowNumerator(last, i, r, j, s) * share2
		case math.IsNaN(share2):
			value = app1.FlowNumerator(last, i, r, j, s) * share1
		default:
			value = combined.FlowNumerator(last, i, r, j, s) * share1 * share2
		}
		if !usable(value) {
			return
		}
		table.Set(i, r, j, s, value)
		quality.Set(i, r, j, s, d)
	})
	return nil
}
