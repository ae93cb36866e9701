package proxy

import (
	"mriocli/internal/errors"
	"mriocli/internal/mrio"
)

// AxisType identifies which table axis and level a proxy axis addresses.
type AxisType int

const (
	AxisSector AxisType = iota
	AxisSubsector
	AxisRegion
	AxisSubregion
)

// ParseAxisType resolves a column type string from a proxy specification.
func ParseAxisType(s string) (AxisType, error) {
	switch s {
	case "sector":
		return AxisSector, nil
	case "subsector":
		return AxisSubsector, nil
	case "region":
		return AxisRegion, nil
	case "subregion":
		return AxisSubregion, nil
	default:
		return 0, errors.Newf(errors.KindConfig, "UNKNOWN_TYPE", "unknown column type %q", s)
	}
}

// IsSector reports whether the type addresses the sector axis.
func (t AxisType) IsSector() bool { return t == AxisSector || t == AxisSubsector }

// IsSub reports whether the type addresses the sub level.
func (t AxisType) IsSub() bool { return t == AxisSubsector || t == AxisSubregion }

func (t AxisType) String() string {
	switch t {
	case AxisSector:
		return "sector"
	case AxisSubsector:
		return "subsector"
	case AxisRegion:
		return "region"
	default:
		return "subregion"
	}
}

// MappingPart is one endpoint of the bipartite foreign↔native mapping
// relation. Parts in the same connected component share their cluster
// sets. A native part without a cluster does not appear in the mapping;
// proxy values involving it read as NaN.
type MappingPart struct {
	Index          int // foreign ordinal or native level index
	Name           string
	Sector         *mrio.Sector // native sector parts only
	Region         *mrio.Region // native region parts only
	mappedTo       map[*MappingPart]struct{}
	NativeCluster  map[*MappingPart]struct{}
	ForeignCluster map[*MappingPart]struct{}
}

func newMappingPart(index int, name string) *MappingPart {
	return &MappingPart{
		Index:    index,
		Name:     name,
		mappedTo: make(map[*MappingPart]struct{}),
	}
}

// link records a foreign↔native relation in both directions.
func (m *MappingPart) link(other *MappingPart) {
	m.mappedTo[other] = struct{}{}
	other.mappedTo[m] = struct{}{}
}

// setClustersForNative propagates the shared cluster sets through the
// connected component starting at a native part.
func setClustersForNative(native *MappingPart) {
	native.NativeCluster[native] = struct{}{}
	for foreign := range native.mappedTo {
		if foreign.ForeignCluster == nil {
			foreign.NativeCluster = native.NativeCluster
			foreign.ForeignCluster = native.ForeignCluster
			setClustersForForeign(foreign)
		}
	}
}

func setClustersForForeign(foreign *MappingPart) {
	foreign.ForeignCluster[foreign] = struct{}{}
	for native := range foreign.mappedTo {
		if native.ForeignCluster == nil {
			native.NativeCluster = foreign.NativeCluster
			native.ForeignCluster = foreign.ForeignCluster
			setClustersForNative(native)
		}
	}
}

// buildClusters computes the connected components over all native parts
// that appear in the mapping.
func buildClusters(native []*MappingPart) {
	for _, part := range native {
		if len(part.mappedTo) > 0 && part.NativeCluster == nil {
			part.NativeCluster = make(map[*MappingPart]struct{})
			part.ForeignCluster = make(map[*MappingPart]struct{})
			setClustersForNative(part)
		}
	}
}

// Axis is one declared dimension of a proxy tensor. Its domain is either
// the table's members at the addressed level (unmapped) or a foreign
// vocabulary discovered from a mapping file (mapped).
type Axis struct {
	Type          AxisType
	Mapped        bool
	Sub           bool
	Size          int
	Stride        int
	native        []*MappingPart // by level index, mapped axes only
	foreign       []*MappingPart
	foreignByName map[string]*MappingPart
}

func newAxis(t AxisType, mapped bool) *Axis {
	a := &Axis{
		Type:   t,
		Mapped: mapped,
		Sub:    t.IsSub(),
	}
	if mapped {
		a.foreignByName = make(map[string]*MappingPart)
	}
	return a
}

// nativeSize returns the number of table members at the axis level.
func nativeSize(t AxisType, set *mrio.IndexSet) int {
	switch t {
	case AxisSector:
		return len(set.SuperSectors())
	case AxisSubsector:
		return len(set.SubSectors())
	case AxisRegion:
		return len(set.SuperRegions())
	default:
		return len(set.SubRegions())
	}
}

// initNativeParts creates the native part list of a mapped axis, one
// part per table member at the axis level.
func (a *Axis) initNativeParts(set *mrio.IndexSet) {
	switch a.Type {
	case AxisSector:
		for _, s := range set.SuperSectors() {
			p := newMappingPart(s.LevelIndex(), s.Name())
			p.Sector = s
			a.native = append(a.native, p)
		}
	case AxisSubsector:
		for _, s := range set.SubSectors() {
			p := newMappingPart(s.LevelIndex(), s.Name())
			p.Sector = s
			a.native = append(a.native, p)
		}
	case AxisRegion:
		for _, r := range set.SuperRegions() {
			p := newMappingPart(r.LevelIndex(), r.Name())
			p.Region = r
			a.native = append(a.native, p)
		}
	default:
		for _, r := range set.SubRegions() {
			p := newMappingPart(r.LevelIndex(), r.Name())
			p.Region = r
			a.native = append(a.native, p)
		}
	}
}

// foreignPart returns the foreign part for an id, creating it on first
// sight.
func (a *Axis) foreignPart(id string) *MappingPart {
	if p, ok := a.foreignByName[id]; ok {
		return p
	}
	p := newMappingPart(len(a.foreign), id)
	a.foreign = append(a.foreign, p)
	a.foreignByName[id] = p
	return p
}
