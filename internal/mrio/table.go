package mrio

import (
	"gonum.org/v1/gonum/mat"

	"mriocli/internal/errors"
)

// Table is a dense N×N matrix of flows addressed through an IndexSet.
// Rows are source (sector, region) leaves, columns destination leaves.
type Table struct {
	data *mat.Dense
	set  *IndexSet
}

// NewTable creates a table over the given index set with every cell set
// to def.
func NewTable(set *IndexSet, def float64) *Table {
	n := set.Size()
	backing := make([]float64, n*n)
	if def != 0 {
		for i := range backing {
			backing[i] = def
		}
	}
	return &Table{
		data: mat.NewDense(n, n, backing),
		set:  set,
	}
}

// IndexSet returns the index set addressing this table.
func (t *Table) IndexSet() *IndexSet { return t.set }

// N returns the current edge length of the table.
func (t *Table) N() int { return t.set.Size() }

// Value returns the cell at a dense (row, column) address.
func (t *Table) Value(from, to int) float64 {
	return t.data.At(from, to)
}

// SetValue writes the cell at a dense (row, column) address.
func (t *Table) SetValue(from, to int, v float64) {
	t.data.Set(from, to, v)
}

// At returns the flow from leaf (i, r) to leaf (j, s). The combination
// must be admitted.
func (t *Table) At(i *Sector, r *Region, j *Sector, s *Region) float64 {
	return t.data.At(t.set.At(i, r), t.set.At(j, s))
}

// Set writes the flow from leaf (i, r) to leaf (j, s).
func (t *Table) Set(i *Sector, r *Region, j *Sector, s *Region, v float64) {
	t.data.Set(t.set.At(i, r), t.set.At(j, s), v)
}

// Base returns the value addressed through super-level indices. The
// receiver must be a table captured before any split; the arguments may
// come from a disaggregated index set derived from it.
func (t *Table) Base(i *Sector, r *Region, j *Sector, s *Region) float64 {
	from := t.set.Base(i, r)
	to := t.set.Base(j, s)
	if from == NotGiven || to == NotGiven {
		return 0
	}
	return t.data.At(from, to)
}

// Sum aggregates flows over all admitted leaf 4-tuples consistent with
// the query. Each argument may be nil (wildcard over the admitted leaves
// of that axis), a split super (wildcard over its sub children) or a
// specific leaf. Wildcards respect the existence relation: combinations
// not admitted in the index set contribute nothing.
func (t *Table) Sum(i *Sector, r *Region, j *Sector, s *Region) float64 {
	res := 0.0
	switch {
	case i == nil:
		if r != nil {
			for _, si := range r.Super().Sectors() {
				res += t.Sum(si, r, j, s)
			}
		} else {
			for _, si := range t.set.SuperSectors() {
				res += t.Sum(si, r, j, s)
			}
		}
	case i.HasSub():
		for _, si := range i.Sub() {
			res += t.Sum(si, r, j, s)
		}
	case r == nil:
		for _, rr := range i.Super().Regions() {
			res += t.Sum(i, rr, j, s)
		}
	case r.HasSub():
		for _, rr := range r.Sub() {
			res += t.Sum(i, rr, j, s)
		}
	case j == nil:
		if s != nil {
			for _, sj := range s.Super().Sectors() {
				res += t.Sum(i, r, sj, s)
			}
		} else {
			for _, sj := range t.set.SuperSectors() {
				res += t.Sum(i, r, sj, s)
			}
		}
	case j.HasSub():
		for _, sj := range j.Sub() {
			res += t.Sum(i, r, sj, s)
		}
	case s == nil:
		for _, ss := range j.Super().Regions() {
			res += t.Sum(i, r, j, ss)
		}
	case s.HasSub():
		for _, ss := range s.Sub() {
			res += t.Sum(i, r, j, ss)
		}
	default:
		from := t.set.At(i, r)
		to := t.set.At(j, s)
		if from == NotGiven || to == NotGiven {
			return 0
		}
		return t.data.At(from, to)
	}
	return res
}

// BaseSum aggregates captured base values at super resolution. Arguments
// must be super members or nil wildcards.
func (t *Table) BaseSum(i *Sector, r *Region, j *Sector, s *Region) float64 {
	res := 0.0
	switch {
	case i == nil:
		for _, si := range t.set.SuperSectors() {
			res += t.BaseSum(si, r, j, s)
		}
	case r == nil:
		for _, rr := range i.Regions() {
			res += t.BaseSum(i, rr, j, s)
		}
	case j == nil:
		for _, sj := range t.set.SuperSectors() {
			res += t.BaseSum(i, r, sj, s)
		}
	case s == nil:
		for _, ss := range j.Regions() {
			res += t.BaseSum(i, r, j, ss)
		}
	default:
		return t.Base(i, r, j, s)
	}
	return res
}

// Clone returns a table with copied values sharing the receiver's index
// set. Used for the per-iteration snapshot.
func (t *Table) Clone() *Table {
	n := t.set.Size()
	c := mat.NewDense(n, n, nil)
	c.Copy(t.data)
	return &Table{data: c, set: t.set}
}

// CloneDetached returns a table with copied values over a deep copy of
// the index set, so splits on the clone leave the receiver untouched.
// The working table of a disaggregation starts as a detached clone of
// the base table.
func (t *Table) CloneDetached() *Table {
	n := t.set.Size()
	c := mat.NewDense(n, n, nil)
	c.Copy(t.data)
	return &Table{data: c, set: t.set.Clone()}
}

// CopyValuesFrom overwrites the receiver's cells with the other table's.
// Both tables must have the same shape.
func (t *Table) CopyValuesFrom(other *Table) {
	t.data.Copy(other.data)
}

// RawRow exposes one dense row for serialisation.
func (t *Table) RawRow(row int) []float64 {
	return t.data.RawRowView(row)
}

// InsertSubsectors splits the named super sector into the given sub
// sectors. The matrix is blown up with equal distribution: each affected
// row and column block is replicated k times with values divided by k,
// cells on both a split row and a split column divided by k².
func (t *Table) InsertSubsectors(name string, subNames []string) error {
	super, err := t.set.LookupSector(name)
	if err != nil {
		return err
	}
	if super.IsSub() {
		return errors.NotASuper(name)
	}
	if super.HasSub() {
		return errors.AlreadySplit(name)
	}
	k := len(subNames)
	if k < 1 {
		return errors.Newf(errors.KindConfig, "EMPTY_SPLIT", "no sub sectors given for %q", name)
	}
	n := t.set.Size()
	oldToNew := make([][]int, n)
	next := 0
	t.set.EachTotal(func(sl *Sector, rl *Region, idx int) {
		if sl.Super() == super {
			block := make([]int, k)
			for a := 0; a < k; a++ {
				block[a] = next + a
			}
			oldToNew[idx] = block
			next += k
		} else {
			oldToNew[idx] = []int{next}
			next++
		}
	})
	t.blowUp(oldToNew, next)
	return t.set.InsertSubsectors(name, subNames)
}

// InsertSubregions splits the named super region into the given sub
// regions, mirror-symmetric to InsertSubsectors. The region's leaf rows
// form one contiguous block; its k copies are laid out block by block so
// the result matches the canonical region-major leaf order.
func (t *Table) InsertSubregions(name string, subNames []string) error {
	super, err := t.set.LookupRegion(name)
	if err != nil {
		return err
	}
	if super.IsSub() {
		return errors.NotASuper(name)
	}
	if super.HasSub() {
		return errors.AlreadySplit(name)
	}
	k := len(subNames)
	if k < 1 {
		return errors.Newf(errors.KindConfig, "EMPTY_SPLIT", "no sub regions given for %q", name)
	}
	n := t.set.Size()
	first, count := n, 0
	t.set.EachTotal(func(sl *Sector, rl *Region, idx int) {
		if rl.Super() == super {
			if idx < first {
				first = idx
			}
			count++
		}
	})
	oldToNew := make([][]int, n)
	for idx := 0; idx < n; idx++ {
		switch {
		case idx < first:
			oldToNew[idx] = []int{idx}
		case idx < first+count:
			block := make([]int, k)
			for a := 0; a < k; a++ {
				block[a] = first + a*count + (idx - first)
			}
			oldToNew[idx] = block
		default:
			oldToNew[idx] = []int{idx + count*(k-1)}
		}
	}
	t.blowUp(oldToNew, n+count*(k-1))
	return t.set.InsertSubregions(name, subNames)
}

// blowUp rewrites the matrix into a larger one, distributing each old
// cell equally over the Cartesian product of its new row and column
// positions.
func (t *Table) blowUp(oldToNew [][]int, newSize int) {
	n := t.set.Size()
	grown := mat.NewDense(newSize, newSize, nil)
	for x := 0; x < n; x++ {
		rows := oldToNew[x]
		for y := 0; y < n; y++ {
			cols := oldToNew[y]
			v := t.data.At(x, y) / float64(len(rows)*len(cols))
			for _, nx := range rows {
				for _, ny := range cols {
					grown.Set(nx, ny, v)
				}
			}
		}
	}
	t.data = grown
}
