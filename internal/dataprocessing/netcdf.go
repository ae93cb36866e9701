package dataprocessing

import (
	"log/slog"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"

	"mriocli/internal/errors"
	"mriocli/internal/mrio"
)

// LoadNetCDF reads a base table from a NetCDF file. The file carries
// sector and region name vectors and a flows variable, either dense over
// [sector, region, sector, region] or over a dense pair index described
// by index_sector and index_region vectors.
func LoadNetCDF(path string, threshold float64) (*mrio.Table, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "MISSING_FILE", "could not open netcdf file").In(path)
	}
	defer ds.Close()

	sectorNames, err := readStringVector(ds, "sector")
	if err != nil {
		return nil, errors.Wrap(err, errors.KindParse, "MALFORMED_NETCDF", "could not read sector names").In(path)
	}
	regionNames, err := readStringVector(ds, "region")
	if err != nil {
		return nil, errors.Wrap(err, errors.KindParse, "MALFORMED_NETCDF", "could not read region names").In(path)
	}

	set := mrio.NewIndexSet()
	for _, name := range sectorNames {
		if _, err := set.AddSector(name); err != nil {
			return nil, err
		}
	}
	for _, name := range regionNames {
		if _, err := set.AddRegion(name); err != nil {
			return nil, err
		}
	}

	indexSector, isErr := readIntVector(ds, "index_sector")
	indexRegion, irErr := readIntVector(ds, "index_region")
	sparse := isErr == nil && irErr == nil

	if sparse {
		if len(indexSector) != len(indexRegion) {
			return nil, errors.New(errors.KindData, "INDEX_MISMATCH", "index_sector and index_region differ in length").In(path)
		}
		for k := range indexSector {
			si, ri := indexSector[k], indexRegion[k]
			if si < 0 || si >= len(sectorNames) || ri < 0 || ri >= len(regionNames) {
				return nil, errors.New(errors.KindData, "INDEX_OUT_OF_RANGE", "admitted pair references unknown sector or region").In(path)
			}
			if err := set.AddIndex(sectorNames[si], regionNames[ri]); err != nil {
				return nil, err
			}
		}
	} else {
		for _, r := range regionNames {
			for _, s := range sectorNames {
				if err := set.AddIndex(s, r); err != nil {
					return nil, err
				}
			}
		}
	}
	set.RebuildIndices()

	flowsVar, err := ds.Var("flows")
	if err != nil {
		return nil, errors.Wrap(err, errors.KindParse, "MALFORMED_NETCDF", "flows variable missing").In(path)
	}
	flowsLen, err := flowsVar.Len()
	if err != nil {
		return nil, errors.Wrap(err, errors.KindParse, "MALFORMED_NETCDF", "could not size flows").In(path)
	}
	flows := make([]float64, flowsLen)
	if err := flowsVar.ReadFloat64s(flows); err != nil {
		return nil, errors.Wrap(err, errors.KindParse, "MALFORMED_NETCDF", "could not read flows").In(path)
	}

	table := mrio.NewTable(set, 0)
	n := set.Size()
	clamp := func(v float64) float64 {
		if v > threshold {
			return v
		}
		return 0
	}

	if sparse {
		if int(flowsLen) != n*n {
			return nil, errors.New(errors.KindData, "ROW_WIDTH_MISMATCH", "flows shape does not match admitted pairs").In(path)
		}
		for row := 0; row < n; row++ {
			for col := 0; col < n; col++ {
				table.SetValue(row, col, clamp(flows[row*n+col]))
			}
		}
	} else {
		nS, nR := len(sectorNames), len(regionNames)
		if int(flowsLen) != nS*nR*nS*nR {
			return nil, errors.New(errors.KindData, "ROW_WIDTH_MISMATCH", "flows shape does not match sector and region counts").In(path)
		}
		for si, sName := range sectorNames {
			sec, _ := set.LookupSector(sName)
			for ri, rName := range regionNames {
				reg, _ := set.LookupRegion(rName)
				from := set.At(sec, reg)
				for ji, jName := range sectorNames {
					jSec, _ := set.LookupSector(jName)
					for ti, tName := range regionNames {
						tReg, _ := set.LookupRegion(tName)
						to := set.At(jSec, tReg)
						flat := ((si*nR+ri)*nS+ji)*nR + ti
						table.SetValue(from, to, clamp(flows[flat]))
					}
				}
			}
		}
	}

	slog.Info("base table loaded",
		slog.String("file", path),
		slog.Int("size", table.N()),
		slog.Float64("threshold", threshold))
	return table, nil
}

// readStringVector reads a [n, len] CHAR variable into trimmed strings.
func readStringVector(ds netcdf.Dataset, name string) ([]string, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, err
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, errors.Newf(errors.KindParse, "MALFORMED_NETCDF", "variable %q is not a string vector", name)
	}
	n, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	width, err := dims[1].Len()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n*width)
	if err := v.ReadBytes(buf); err != nil {
		return nil, err
	}
	names := make([]string, n)
	for i := uint64(0); i < n; i++ {
		names[i] = strings.TrimRight(string(buf[i*width:(i+1)*width]), "\x00 ")
	}
	return names, nil
}

// readIntVector reads a one-dimensional INT variable.
func readIntVector(ds netcdf.Dataset, name string) ([]int, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, err
	}
	length, err := v.Len()
	if err != nil {
		return nil, err
	}
	raw := make([]int32, length)
	if err := v.ReadInt32s(raw); err != nil {
		return nil, err
	}
	out := make([]int, length)
	for i, x := range raw {
		out[i] = int(x)
	}
	return out, nil
}
