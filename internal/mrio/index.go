package mrio

import (
	"mriocli/internal/errors"
)

// NotGiven is the sentinel returned by dense lookups for (sector, region)
// combinations that are not admitted.
const NotGiven = -1

// Sector is one member of the sector axis. A sector is either a super
// sector (present in the base table, possibly split into sub sectors) or
// a sub sector created by a split.
type Sector struct {
	name       string
	totalIndex int // position when sub leaves replace their supers
	levelIndex int // position on its own level (super or sub)
	subIndex   int // rank within the parent, sub sectors only
	parent     *Sector
	sub        []*Sector
	regions    []*Region // admitted super regions, super sectors only
}

// Name returns the sector name.
func (s *Sector) Name() string { return s.name }

// IsSub reports whether the sector was created by a split.
func (s *Sector) IsSub() bool { return s.parent != nil }

// HasSub reports whether the sector has been split.
func (s *Sector) HasSub() bool { return len(s.sub) > 0 }

// Parent returns the super sector of a sub sector, or nil.
func (s *Sector) Parent() *Sector { return s.parent }

// Super returns the sector itself if it is a super sector, else its parent.
func (s *Sector) Super() *Sector {
	if s.parent != nil {
		return s.parent
	}
	return s
}

// Sub returns the sub sectors in insertion order.
func (s *Sector) Sub() []*Sector { return s.sub }

// Regions returns the admitted super regions of a super sector.
func (s *Sector) Regions() []*Region { return s.regions }

// TotalIndex returns the position of the sector in the leaf-level
// sector enumeration.
func (s *Sector) TotalIndex() int { return s.totalIndex }

// LevelIndex returns the position of the sector among the members of its
// own level.
func (s *Sector) LevelIndex() int { return s.levelIndex }

// SubIndex returns the rank of a sub sector within its parent.
func (s *Sector) SubIndex() int { return s.subIndex }

// Leaves returns the leaf sectors represented by this sector: its sub
// sectors if it has been split, otherwise the sector itself.
func (s *Sector) Leaves() []*Sector {
	if len(s.sub) > 0 {
		return s.sub
	}
	return []*Sector{s}
}

// Region is one member of the region axis, symmetric to Sector.
type Region struct {
	name       string
	totalIndex int
	levelIndex int
	subIndex   int
	parent     *Region
	sub        []*Region
	sectors    []*Sector // admitted super sectors, super regions only
}

// Name returns the region name.
func (r *Region) Name() string { return r.name }

// IsSub reports whether the region was created by a split.
func (r *Region) IsSub() bool { return r.parent != nil }

// HasSub reports whether the region has been split.
func (r *Region) HasSub() bool { return len(r.sub) > 0 }

// Parent returns the super region of a sub region, or nil.
func (r *Region) Parent() *Region { return r.parent }

// Super returns the region itself if it is a super region, else its parent.
func (r *Region) Super() *Region {
	if r.parent != nil {
		return r.parent
	}
	return r
}

// Sub returns the sub regions in insertion order.
func (r *Region) Sub() []*Region { return r.sub }

// Sectors returns the admitted super sectors of a super region.
func (r *Region) Sectors() []*Sector { return r.sectors }

// TotalIndex returns the position of the region in the leaf-level
// region enumeration.
func (r *Region) TotalIndex() int { return r.totalIndex }

// LevelIndex returns the position of the region among the members of its
// own level.
func (r *Region) LevelIndex() int { return r.levelIndex }

// SubIndex returns the rank of a sub region within its parent.
func (r *Region) SubIndex() int { return r.subIndex }

// Leaves returns the leaf regions represented by this region.
func (r *Region) Leaves() []*Region {
	if len(r.sub) > 0 {
		return r.sub
	}
	return []*Region{r}
}

// IndexSet owns all sector and region members and the bipartite
// existence relation between them. It provides the dense leaf-index
// lookup used to address the flow table.
type IndexSet struct {
	size             int
	totalSectorCount int
	totalRegionCount int
	sectorsByName    map[string]*Sector
	regionsByName    map[string]*Region
	superSectors     []*Sector
	superRegions     []*Region
	subSectors       []*Sector
	subRegions       []*Region
	indices          []int
}

// NewIndexSet creates an empty index set.
func NewIndexSet() *IndexSet {
	return &IndexSet{
		sectorsByName: make(map[string]*Sector),
		regionsByName: make(map[string]*Region),
	}
}

// Size returns the current leaf count.
func (x *IndexSet) Size() int { return x.size }

// TotalSectorCount returns the number of leaf-level sector slots.
func (x *IndexSet) TotalSectorCount() int { return x.totalSectorCount }

// TotalRegionCount returns the number of leaf-level region slots.
func (x *IndexSet) TotalRegionCount() int { return x.totalRegionCount }

// SuperSectors returns the super sectors in insertion order.
func (x *IndexSet) SuperSectors() []*Sector { return x.superSectors }

// SuperRegions returns the super regions in insertion order.
func (x *IndexSet) SuperRegions() []*Region { return x.superRegions }

// SubSectors returns all sub sectors in insertion order.
func (x *IndexSet) SubSectors() []*Sector { return x.subSectors }

// SubRegions returns all sub regions in insertion order.
func (x *IndexSet) SubRegions() []*Region { return x.subRegions }

// LookupSector resolves a sector by name.
func (x *IndexSet) LookupSector(name string) (*Sector, error) {
	s, ok := x.sectorsByName[name]
	if !ok {
		return nil, errors.UnknownSector(name)
	}
	return s, nil
}

// LookupRegion resolves a region by name.
func (x *IndexSet) LookupRegion(name string) (*Region, error) {
	r, ok := x.regionsByName[name]
	if !ok {
		return nil, errors.UnknownRegion(name)
	}
	return r, nil
}

// AddSector registers a super sector. Adding is idempotent for an
// existing super sector and fails once the sector axis has been split.
func (x *IndexSet) AddSector(name string) (*Sector, error) {
	if len(x.subSectors) > 0 {
		return nil, errors.Newf(errors.KindConfig, "AXIS_FROZEN", "cannot add sector %q when already disaggregated", name)
	}
	if s, ok := x.sectorsByName[name]; ok {
		return s, nil
	}
	s := &Sector{
		name:       name,
		totalIndex: len(x.superSectors),
		levelIndex: len(x.superSectors),
	}
	x.superSectors = append(x.superSectors, s)
	x.sectorsByName[name] = s
	x.totalSectorCount++
	x.indices = nil
	return s, nil
}

// AddRegion registers a super region, symmetric to AddSector.
func (x *IndexSet) AddRegion(name string) (*Region, error) {
	if len(x.subRegions) > 0 {
		return nil, errors.Newf(errors.KindConfig, "AXIS_FROZEN", "cannot add region %q when already disaggregated", name)
	}
	if r, ok := x.regionsByName[name]; ok {
		return r, nil
	}
	r := &Region{
		name:       name,
		totalIndex: len(x.superRegions),
		levelIndex: len(x.superRegions),
	}
	x.superRegions = append(x.superRegions, r)
	x.regionsByName[name] = r
	x.totalRegionCount++
	x.indices = nil
	return r, nil
}

// AddIndex admits a (super sector, super region) pair, creating the
// members as needed. Admitting the same pair twice is an error.
func (x *IndexSet) AddIndex(sectorName, regionName string) error {
	s, err := x.AddSector(sectorName)
	if err != nil {
		return err
	}
	r, err := x.AddRegion(regionName)
	if err != nil {
		return err
	}
	for _, have := range r.sectors {
		if have == s {
			return errors.DuplicateIndex(sectorName, regionName)
		}
	}
	r.sectors = append(r.sectors, s)
	s.regions = append(s.regions, r)
	x.size++
	return nil
}

// RebuildIndices recomputes the dense leaf-index lookup. The canonical
// leaf order is region-major: super region, its sub regions if split,
// then for each the region's admitted sectors, each expanded into its
// sub sectors if split.
func (x *IndexSet) RebuildIndices() {
	x.indices = make([]int, x.totalSectorCount*x.totalRegionCount)
	for i := range x.indices {
		x.indices[i] = NotGiven
	}
	idx := 0
	for _, r := range x.superRegions {
		for _, rl := range r.Leaves() {
			for _, s := range r.sectors {
				for _, sl := range s.Leaves() {
					x.indices[sl.totalIndex*x.totalRegionCount+rl.totalIndex] = idx
					idx++
				}
			}
		}
	}
}

// At returns the dense leaf index of a (leaf sector, leaf region) pair,
// or NotGiven if the combination is not admitted.
func (x *IndexSet) At(s *Sector, r *Region) int {
	return x.indices[s.totalIndex*x.totalRegionCount+r.totalIndex]
}

// Base returns the super-level index of a (super sector, super region)
// pair. It is only meaningful on an index set that has not been split,
// which is how the captured base table stays addressable after the
// working table has grown.
func (x *IndexSet) Base(s *Sector, r *Region) int {
	return x.indices[s.levelIndex*len(x.superRegions)+r.levelIndex]
}

// EachSuper calls fn for every admitted (super sector, super region)
// pair, outer loop over super regions in insertion order.
func (x *IndexSet) EachSuper(fn func(s *Sector, r *Region)) {
	for _, r := range x.superRegions {
		for _, s := range r.sectors {
			fn(s, r)
		}
	}
}

// EachTotal calls fn for every leaf cell with its dense index, in the
// canonical row order of the flow table.
func (x *IndexSet) EachTotal(fn func(s *Sector, r *Region, index int)) {
	idx := 0
	for _, r := range x.superRegions {
		for _, rl := range r.Leaves() {
			for _, s := range r.sectors {
				for _, sl := range s.Leaves() {
					fn(sl, rl, idx)
					idx++
				}
			}
		}
	}
}

// InsertSubsectors creates sub sectors under the named super sector and
// refreshes every index-dependent structure.
func (x *IndexSet) InsertSubsectors(name string, subNames []string) error {
	super, err := x.LookupSector(name)
	if err != nil {
		return err
	}
	if super.IsSub() {
		return errors.NotASuper(name)
	}
	if super.HasSub() {
		return errors.AlreadySplit(name)
	}
	for _, subName := range subNames {
		if _, exists := x.sectorsByName[subName]; exists {
			return errors.Newf(errors.KindConfig, "DUPLICATE_NAME", "sector name %q already in use", subName)
		}
	}
	levelIndex := len(x.subSectors)
	for k, subName := range subNames {
		sub := &Sector{
			name:       subName,
			totalIndex: super.totalIndex + k,
			levelIndex: levelIndex + k,
			subIndex:   k,
			parent:     super,
		}
		x.sectorsByName[subName] = sub
		x.subSectors = append(x.subSectors, sub)
		super.sub = append(super.sub, sub)
	}
	shift := len(subNames) - 1
	for _, other := range x.superSectors {
		if other == super {
			continue
		}
		if other.totalIndex > super.totalIndex {
			other.totalIndex += shift
			for _, os := range other.sub {
				os.totalIndex += shift
			}
		}
	}
	regionLeafCount := 0
	for _, r := range super.regions {
		regionLeafCount += len(r.Leaves())
	}
	x.totalSectorCount += shift
	x.size += shift * regionLeafCount
	x.RebuildIndices()
	return nil
}

// InsertSubregions creates sub regions under the named super region,
// mirror-symmetric to InsertSubsectors.
func (x *IndexSet) InsertSubregions(name string, subNames []string) error {
	super, err := x.LookupRegion(name)
	if err != nil {
		return err
	}
	if super.IsSub() {
		return errors.NotASuper(name)
	}
	if super.HasSub() {
		return errors.AlreadySplit(name)
	}
	for _, subName := range subNames {
		if _, exists := x.regionsByName[subName]; exists {
			return errors.Newf(errors.KindConfig, "DUPLICATE_NAME", "region name %q already in use", subName)
		}
	}
	levelIndex := len(x.subRegions)
	for k, subName := range subNames {
		sub := &Region{
			name:       subName,
			totalIndex: super.totalIndex + k,
			levelIndex: levelIndex + k,
			subIndex:   k,
			parent:     super,
		}
		x.regionsByName[subName] = sub
		x.subRegions = append(x.subRegions, sub)
		super.sub = append(super.sub, sub)
	}
	shift := len(subNames) - 1
	for _, other := range x.superRegions {
		if other == super {
			continue
		}
		if other.totalIndex > super.totalIndex {
			other.totalIndex += shift
			for _, or := range other.sub {
				or.totalIndex += shift
			}
		}
	}
	sectorLeafCount := 0
	for _, s := range super.sectors {
		sectorLeafCount += len(s.Leaves())
	}
	x.totalRegionCount += shift
	x.size += shift * sectorLeafCount
	x.RebuildIndices()
	return nil
}

// Clone returns a deep copy of the index set. All member objects are
// duplicated so splits on the copy never touch the original.
func (x *IndexSet) Clone() *IndexSet {
	c := &IndexSet{
		size:             x.size,
		totalSectorCount: x.totalSectorCount,
		totalRegionCount: x.totalRegionCount,
		sectorsByName:    make(map[string]*Sector, len(x.sectorsByName)),
		regionsByName:    make(map[string]*Region, len(x.regionsByName)),
	}
	sectorCopies := make(map[*Sector]*Sector, len(x.sectorsByName))
	regionCopies := make(map[*Region]*Region, len(x.regionsByName))
	for _, s := range x.superSectors {
		cs := &Sector{name: s.name, totalIndex: s.totalIndex, levelIndex: s.levelIndex}
		sectorCopies[s] = cs
		c.superSectors = append(c.superSectors, cs)
		c.sectorsByName[cs.name] = cs
	}
	for _, s := range x.subSectors {
		cs := &Sector{name: s.name, totalIndex: s.totalIndex, levelIndex: s.levelIndex, subIndex: s.subIndex}
		sectorCopies[s] = cs
		c.subSectors = append(c.subSectors, cs)
		c.sectorsByName[cs.name] = cs
	}
	for _, r := range x.superRegions {
		cr := &Region{name: r.name, totalIndex: r.totalIndex, levelIndex: r.levelIndex}
		regionCopies[r] = cr
		c.superRegions = append(c.superRegions, cr)
		c.regionsByName[cr.name] = cr
	}
	for _, r := range x.subRegions {
		cr := &Region{name: r.name, totalIndex: r.totalIndex, levelIndex: r.levelIndex, subIndex: r.subIndex}
		regionCopies[r] = cr
		c.subRegions = append(c.subRegions, cr)
		c.regionsByName[cr.name] = cr
	}
	for _, s := range x.superSectors {
		cs := sectorCopies[s]
		for _, sub := range s.sub {
			csub := sectorCopies[sub]
			csub.parent = cs
			cs.sub = append(cs.sub, csub)
		}
		for _, r := range s.regions {
			cs.regions = append(cs.regions, regionCopies[r])
		}
	}
	for _, r := range x.superRegions {
		cr := regionCopies[r]
		for _, sub := range r.sub {
			crsub := regionCopies[sub]
			crsub.parent = cr
			cr.sub = append(cr.sub, crsub)
		}
		for _, s := range r.sectors {
			cr.sectors = append(cr.sectors, sectorCopies[s])
		}
	}
	c.RebuildIndices()
	return c
}

// ForEachLeaf expands a super cell into all of its leaf 4-tuples,
// nesting in the order i, r, j, s.
func ForEachLeaf(i *Sector, r *Region, j *Sector, s *Region, fn func(i *Sector, r *Region, j *Sector, s *Region)) {
	for _, il := range i.Leaves() {
		for _, rl := range r.Leaves() {
			for _, jl := range j.Leaves() {
				for _, sl := range s.Leaves() {
					fn(il, rl, jl, sl)
				}
			}
		}
	}
}
