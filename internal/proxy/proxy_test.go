package proxy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mriocli/internal/mrio"
)

const eps = 1e-12

// newOnesTable builds the 4×4 all-ones table over {A, B} × {X, Y}.
func newOnesTable(t *testing.T) *mrio.Table {
	t.Helper()
	set := mrio.NewIndexSet()
	for _, pair := range [][2]string{{"A", "X"}, {"B", "X"}, {"A", "Y"}, {"B", "Y"}} {
		require.NoError(t, set.AddIndex(pair[0], pair[1]))
	}
	set.RebuildIndices()
	table := mrio.NewTable(set, 0)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			table.SetValue(row, col, 1)
		}
	}
	return table
}

func members(t *testing.T, set *mrio.IndexSet, sectorName, regionName string) (*mrio.Sector, *mrio.Region) {
	t.Helper()
	s, err := set.LookupSector(sectorName)
	require.NoError(t, err)
	r, err := set.LookupRegion(regionName)
	require.NoError(t, err)
	return s, r
}

func TestParseAxisType(t *testing.T) {
	tests := []struct {
		in       string
		want     AxisType
		isSector bool
		isSub    bool
	}{
		{"sector", AxisSector, true, false},
		{"subsector", AxisSubsector, true, true},
		{"region", AxisRegion, false, false},
		{"subregion", AxisSubregion, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAxisType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.isSector, got.IsSector())
			assert.Equal(t, tt.isSub, got.IsSub())
			assert.Equal(t, tt.in, got.String())
		})
	}

	_, err := ParseAxisType("galaxy")
	assert.Error(t, err)
}

func TestAppliesTo(t *testing.T) {
	table := newOnesTable(t)
	require.NoError(t, table.InsertSubregions("X", []string{"X0", "X1"}))
	set := table.IndexSet()
	a, x := members(t, set, "A", "X")
	_, y := members(t, set, "A", "Y")

	subAxis := newAxis(AxisSubregion, false)
	superAxis := newAxis(AxisRegion, false)

	subApp := &Application{R: subAxis}
	superApp := &Application{R: superAxis}

	assert.True(t, subApp.AppliesTo(a, x, a, y))
	assert.False(t, subApp.AppliesTo(a, y, a, x))
	assert.True(t, superApp.AppliesTo(a, y, a, x))
	assert.False(t, superApp.AppliesTo(a, x, a, y))

	// Unassigned axes match anything.
	empty := &Application{}
	assert.True(t, empty.AppliesTo(a, x, a, y))
}

func TestFlowNumeratorAndDenominator(t *testing.T) {
	table := newOnesTable(t)
	require.NoError(t, table.InsertSubregions("X", []string{"X0", "X1"}))
	set := table.IndexSet()
	a, _ := members(t, set, "A", "Y")
	x0, err := set.LookupRegion("X0")
	require.NoError(t, err)
	_, y := members(t, set, "A", "Y")

	app := &Application{R: newAxis(AxisSubregion, false)}

	// Numerator widens the sub leaf to its parent: all flows A:X -> A:Y.
	assert.InDelta(t, 1, app.FlowNumerator(table, a, x0, a, y), eps)
	// Denominator wildcards the unassigned axes: all flows out of X.
	assert.InDelta(t, 8, app.FlowDenominator(table, a, x0, a, y), eps)
}

func TestCombine(t *testing.T) {
	sub := newAxis(AxisSubregion, false)
	other := newAxis(AxisSubregion, false)
	sec := newAxis(AxisSubsector, false)

	combined, err := Combine(&Application{R: sub}, &Application{I: sec})
	require.NoError(t, err)
	assert.Same(t, sub, combined.R)
	assert.Same(t, sec, combined.I)
	assert.Nil(t, combined.J)
	assert.Nil(t, combined.S)

	// Same axis on both sides is fine.
	combined, err = Combine(&Application{R: sub}, &Application{R: sub, S: other})
	require.NoError(t, err)
	assert.Same(t, sub, combined.R)

	// Different axes for the same flow position conflict.
	_, err = Combine(&Application{R: sub}, &Application{R: other})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined")
}

// buildMappedSectorAxis creates a mapped super-sector axis with the
// given foreign→native links.
func buildMappedSectorAxis(set *mrio.IndexSet, links map[string][]string) *Axis {
	axis := newAxis(AxisSector, true)
	axis.initNativeParts(set)
	byName := make(map[string]*MappingPart)
	for _, p := range axis.native {
		byName[p.Name] = p
	}
	for foreignID, natives := range links {
		for _, nativeID := range natives {
			axis.foreignPart(foreignID).link(byName[nativeID])
		}
	}
	buildClusters(axis.native)
	axis.Size = len(axis.foreign)
	axis.Stride = 1
	return axis
}

func TestMappedValueManyToOne(t *testing.T) {
	// Two foreign codes map onto A, a third onto B. The foreign-sum
	// step combines the codes of A's cluster; B's cluster is disjoint.
	table := newOnesTable(t)
	set := table.IndexSet()
	a, x := members(t, set, "A", "X")
	b, _ := members(t, set, "B", "X")

	axis := buildMappedSectorAxis(set, map[string][]string{
		"f1": {"A"},
		"f2": {"A"},
		"f3": {"B"},
	})
	values := make([]float64, axis.Size)
	values[axis.foreignByName["f1"].Index] = 5
	values[axis.foreignByName["f2"].Index] = 7
	values[axis.foreignByName["f3"].Index] = 11

	p := &Data{values: values, axes: []*Axis{axis}, set: set, source: "test"}
	app := &Application{I: axis}

	// Singleton native cluster: share factor is 1.
	assert.InDelta(t, 12, p.MappedValue(app, table, a, x, a, x), eps)
	assert.InDelta(t, 11, p.MappedValue(app, table, b, x, a, x), eps)
}

func TestMappedValueNativeShare(t *testing.T) {
	// f2 maps to both A and B, so the component spans two native
	// sectors: the native-share step divides by the two-sector flow sum.
	table := newOnesTable(t)
	set := table.IndexSet()
	a, x := members(t, set, "A", "X")

	axis := buildMappedSectorAxis(set, map[string][]string{
		"f1": {"A"},
		"f2": {"A", "B"},
		"f3": {"B"},
	})
	values := make([]float64, axis.Size)
	values[axis.foreignByName["f1"].Index] = 5
	values[axis.foreignByName["f2"].Index] = 7
	values[axis.foreignByName["f3"].Index] = 11

	p := &Data{values: values, axes: []*Axis{axis}, set: set, source: "test"}
	app := &Application{I: axis}

	// Foreign sum 23 over the whole component, then the share of A's
	// previous flow within T(A..) + T(B..) = 1/2.
	assert.InDelta(t, 11.5, p.MappedValue(app, table, a, x, a, x), eps)
}

func TestMappedValueOutsideMappingIsNaN(t *testing.T) {
	table := newOnesTable(t)
	set := table.IndexSet()
	b, x := members(t, set, "B", "X")
	a, _ := members(t, set, "A", "X")

	axis := buildMappedSectorAxis(set, map[string][]string{
		"f1": {"A"},
	})
	values := []float64{5}

	p := &Data{values: values, axes: []*Axis{axis}, set: set, source: "test"}
	app := &Application{I: axis}

	assert.True(t, math.IsNaN(p.MappedValue(app, table, b, x, a, x)))
}

func TestMappedValueNaNTensorPropagates(t *testing.T) {
	table := newOnesTable(t)
	set := table.IndexSet()
	a, x := members(t, set, "A", "X")

	axis := buildMappedSectorAxis(set, map[string][]string{
		"f1": {"A"},
		"f2": {"A"},
	})
	values := []float64{math.NaN(), math.NaN()}

	p := &Data{values: values, axes: []*Axis{axis}, set: set, source: "test"}
	app := &Application{I: axis}

	assert.True(t, math.IsNaN(p.MappedValue(app, table, a, x, a, x)))
}

func TestApproximateCellUnmappedSubregion(t *testing.T) {
	table := newOnesTable(t)
	require.NoError(t, table.InsertSubregions("X", []string{"X0", "X1"}))
	set := table.IndexSet()

	axis := newAxis(AxisSubregion, false)
	axis.Size = 2
	axis.Stride = 1
	x0, err := set.LookupRegion("X0")
	require.NoError(t, err)
	x1, err := set.LookupRegion("X1")
	require.NoError(t, err)

	values := make([]float64, 2)
	values[x0.LevelIndex()] = 3
	values[x1.LevelIndex()] = 1

	p := &Data{
		values: values,
		axes:   []*Axis{axis},
		apps:   []*Application{{R: axis}},
		set:    set,
		source: "test",
	}

	a, x := members(t, set, "A", "X")
	_, y := members(t, set, "A", "Y")
	last := table.Clone()
	quality := mrio.NewQualityGrid(set)

	fi := FullIndex{I: a, R: x, J: a, S: y}
	require.NoError(t, p.ApproximateCell(fi, table, quality, last, 1))

	assert.InDelta(t, 3.0/8.0, table.At(a, x0, a, y), eps)
	assert.InDelta(t, 1.0/8.0, table.At(a, x1, a, y), eps)
	assert.Equal(t, 1, quality.At(a, x0, a, y))
	assert.Equal(t, 1, quality.At(a, x1, a, y))

	// A cell the proxy does not reach keeps its snapshot value.
	b, _ := members(t, set, "B", "Y")
	assert.InDelta(t, last.At(b, y, b, y), table.At(b, y, b, y), eps)
	assert.Equal(t, 0, quality.At(b, y, b, y))
}

func TestApproximateCellTooManyApplications(t *testing.T) {
	table := newOnesTable(t)
	require.NoError(t, table.InsertSubregions("X", []string{"X0", "X1"}))
	set := table.IndexSet()

	axis := newAxis(AxisSubregion, false)
	axis.Size = 2
	axis.Stride = 1
	values := []float64{3, 1}

	p := &Data{
		values: values,
		axes:   []*Axis{axis},
		apps:   []*Application{{R: axis}, {R: axis}, {R: axis}},
		set:    set,
		source: "test",
	}

	a, x := members(t, set, "A", "X")
	_, y := members(t, set, "A", "Y")
	last := table.Clone()
	quality := mrio.NewQualityGrid(set)

	err := p.ApproximateCell(FullIndex{I: a, R: x, J: a, S: y}, table, quality, last, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than two applications")
}
