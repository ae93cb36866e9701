package exporter

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fhs/go-netcdf/netcdf"

	"mriocli/internal/errors"
	"mriocli/internal/mrio"
)

// WriteNetCDF writes the table at leaf resolution: sector and region
// name vectors, the dense admitted pair index, and a flows variable over
// [index, index].
func WriteNetCDF(table *mrio.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.KindConfig, "FILESYSTEM", "could not create output directory").In(path)
	}
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return errors.Wrap(err, errors.KindConfig, "FILESYSTEM", "could not create netcdf file").In(path)
	}
	defer ds.Close()

	set := table.IndexSet()
	sectorNames := leafSectorNames(set)
	regionNames := leafRegionNames(set)
	n := set.Size()

	nameLen := 1
	for _, name := range sectorNames {
		if len(name) > nameLen {
			nameLen = len(name)
		}
	}
	for _, name := range regionNames {
		if len(name) > nameLen {
			nameLen = len(name)
		}
	}

	sectorDim, err := ds.AddDim("sector", uint64(len(sectorNames)))
	if err != nil {
		return wrapNetCDF(err, path)
	}
	regionDim, err := ds.AddDim("region", uint64(len(regionNames)))
	if err != nil {
		return wrapNetCDF(err, path)
	}
	indexDim, err := ds.AddDim("index", uint64(n))
	if err != nil {
		return wrapNetCDF(err, path)
	}
	nameDim, err := ds.AddDim("name_len", uint64(nameLen))
	if err != nil {
		return wrapNetCDF(err, path)
	}

	sectorVar, err := ds.AddVar("sector", netcdf.CHAR, []netcdf.Dim{sectorDim, nameDim})
	if err != nil {
		return wrapNetCDF(err, path)
	}
	regionVar, err := ds.AddVar("region", netcdf.CHAR, []netcdf.Dim{regionDim, nameDim})
	if err != nil {
		return wrapNetCDF(err, path)
	}
	indexSectorVar, err := ds.AddVar("index_sector", netcdf.INT, []netcdf.Dim{indexDim})
	if err != nil {
		return wrapNetCDF(err, path)
	}
	indexRegionVar, err := ds.AddVar("index_region", netcdf.INT, []netcdf.Dim{indexDim})
	if err != nil {
		return wrapNetCDF(err, path)
	}
	flowsVar, err := ds.AddVar("flows", netcdf.DOUBLE, []netcdf.Dim{indexDim, indexDim})
	if err != nil {
		return wrapNetCDF(err, path)
	}
	if err := ds.EndDef(); err != nil {
		return wrapNetCDF(err, path)
	}

	if err := sectorVar.WriteBytes(packStrings(sectorNames, nameLen)); err != nil {
		return wrapNetCDF(err, path)
	}
	if err := regionVar.WriteBytes(packStrings(regionNames, nameLen)); err != nil {
		return wrapNetCDF(err, path)
	}

	indexSector := make([]int32, n)
	indexRegion := make([]int32, n)
	set.EachTotal(func(s *mrio.Sector, r *mrio.Region, idx int) {
		indexSector[idx] = int32(s.TotalIndex())
		indexRegion[idx] = int32(r.TotalIndex())
	})
	if err := indexSectorVar.WriteInt32s(indexSector); err != nil {
		return wrapNetCDF(err, path)
	}
	if err := indexRegionVar.WriteInt32s(indexRegion); err != nil {
		return wrapNetCDF(err, path)
	}

	flows := make([]float64, n*n)
	for row := 0; row < n; row++ {
		copy(flows[row*n:(row+1)*n], table.RawRow(row))
	}
	if err := flowsVar.WriteFloat64s(flows); err != nil {
		return wrapNetCDF(err, path)
	}

	slog.Info("refined table written",
		slog.String("file", path),
		slog.Int("size", n))
	return nil
}

func wrapNetCDF(err error, path string) error {
	return errors.Wrap(err, errors.KindConfig, "FILESYSTEM", "could not write netcdf file").In(path)
}

// leafSectorNames lists leaf sector names indexed by total index.
func leafSectorNames(set *mrio.IndexSet) []string {
	names := make([]string, set.TotalSectorCount())
	for _, s := range set.SuperSectors() {
		for _, leaf := range s.Leaves() {
			names[leaf.TotalIndex()] = leaf.Name()
		}
	}
	return names
}

// leafRegionNames lists leaf region names indexed by total index.
func leafRegionNames(set *mrio.IndexSet) []string {
	names := make([]string, set.TotalRegionCount())
	for _, r := range set.SuperRegions() {
		for _, leaf := range r.Leaves() {
			names[leaf.TotalIndex()] = leaf.Name()
		}
	}
	return names
}

// packStrings lays names out as a fixed-width NUL padded byte matrix.
func packStrings(names []string, width int) []byte {
	buf := make([]byte, len(names)*width)
	for i, name := range names {
		copy(buf[i*width:(i+1)*width], name)
	}
	return buf
}
