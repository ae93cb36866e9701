package mrio

// QualityGrid records, per cell of the working table, the priority of
// the proxy that most recently wrote it. Zero means the cell still
// carries the equi-distributed default or an adjusted descendant of it.
type QualityGrid struct {
	data []int
	set  *IndexSet
	n    int
}

// NewQualityGrid creates a zeroed grid over the given index set. It must
// be built after all splits so its shape matches the working table.
func NewQualityGrid(set *IndexSet) *QualityGrid {
	n := set.Size()
	return &QualityGrid{
		data: make([]int, n*n),
		set:  set,
		n:    n,
	}
}

// At returns the stamp of the cell from leaf (i, r) to leaf (j, s).
func (q *QualityGrid) At(i *Sector, r *Region, j *Sector, s *Region) int {
	return q.data[q.set.At(i, r)*q.n+q.set.At(j, s)]
}

// Set stamps the cell from leaf (i, r) to leaf (j, s).
func (q *QualityGrid) Set(i *Sector, r *Region, j *Sector, s *Region, d int) {
	q.data[q.set.At(i, r)*q.n+q.set.At(j, s)] = d
}

// ValueAt returns the stamp at a dense (row, column) address.
func (q *QualityGrid) ValueAt(from, to int) int {
	return q.data[from*q.n+to]
}
