package dataprocessing

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"

	"mriocli/internal/config"
	"mriocli/internal/errors"
	"mriocli/internal/mrio"
)

// Load reads a base table according to the table specification.
func Load(spec config.TableSpec) (*mrio.Table, error) {
	switch spec.Format {
	case "csv":
		return LoadCSV(spec.Index, spec.Data, spec.Threshold)
	case "netcdf":
		return LoadNetCDF(spec.File, spec.Threshold)
	default:
		return nil, errors.Newf(errors.KindConfig, "UNKNOWN_TYPE", "unknown table format %q", spec.Format)
	}
}

// LoadCSV reads a base table from an indices file (one "region,sector"
// row per admitted super pair, in table row order) and an N×N data grid.
func LoadCSV(indexPath, dataPath string, threshold float64) (*mrio.Table, error) {
	set, err := readIndices(indexPath)
	if err != nil {
		return nil, err
	}
	table := mrio.NewTable(set, 0)
	if err := readData(dataPath, table, threshold); err != nil {
		return nil, err
	}
	slog.Info("base table loaded",
		slog.String("index", indexPath),
		slog.String("data", dataPath),
		slog.Int("size", table.N()),
		slog.Float64("threshold", threshold))
	return table, nil
}

// readIndices builds the index set from the admitted super pairs.
func readIndices(path string) (*mrio.IndexSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "MISSING_FILE", "could not open indices file").In(path)
	}
	defer file.Close()

	in := csv.NewReader(file)
	in.Comment = '#'
	in.TrimLeadingSpace = true
	in.FieldsPerRecord = -1

	set := mrio.NewIndexSet()
	line := 0
	for {
		record, err := in.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrap(err, errors.KindParse, "MALFORMED_CSV", "could not read indices row").At(path, line)
		}
		if len(record) != 2 {
			return nil, errors.ErrRowWidthMismatch.At(path, line)
		}
		if err := set.AddIndex(record[1], record[0]); err != nil {
			var e *errors.Error
			if errors.As(err, &e) {
				return nil, e.At(path, line)
			}
			return nil, err
		}
	}
	set.RebuildIndices()
	return set, nil
}

// readData fills the table from the dense grid, row-major in the
// canonical leaf order. Values at or below the threshold read as zero.
func readData(path string, table *mrio.Table, threshold float64) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, errors.KindConfig, "MISSING_FILE", "could not open data file").In(path)
	}
	defer file.Close()

	in := csv.NewReader(file)
	in.TrimLeadingSpace = true
	in.FieldsPerRecord = -1

	n := table.N()
	for row := 0; row < n; row++ {
		record, err := in.Read()
		if err == io.EOF {
			return errors.ErrNotEnoughRows.At(path, row+1)
		}
		if err != nil {
			return errors.Wrap(err, errors.KindParse, "MALFORMED_CSV", "could not read data row").At(path, row+1)
		}
		if len(record) != n {
			return errors.ErrRowWidthMismatch.At(path, row+1)
		}
		for col, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return errors.ErrBadNumber.At(path, row+1)
			}
			if v > threshold {
				table.SetValue(row, col, v)
			} else {
				table.SetValue(row, col, 0)
			}
		}
	}
	if _, err := in.Read(); err != io.EOF {
		return errors.ErrTooManyRows.At(path, n+1)
	}
	return nil
}
