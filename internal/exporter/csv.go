package exporter

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"mriocli/internal/config"
	"mriocli/internal/errors"
	"mriocli/internal/mrio"
)

// Write serialises a table according to the output specification.
func Write(table *mrio.Table, spec config.TableSpec) error {
	switch spec.Format {
	case "csv":
		return WriteCSV(table, spec.Index, spec.Data)
	case "netcdf":
		return WriteNetCDF(table, spec.File)
	default:
		return errors.Newf(errors.KindConfig, "UNKNOWN_TYPE", "unknown table format %q", spec.Format)
	}
}

// WriteCSV writes the table as an indices file (one "region,sector" row
// per leaf cell in canonical order) and a dense data grid.
func WriteCSV(table *mrio.Table, indexPath, dataPath string) error {
	if err := writeIndices(table, indexPath); err != nil {
		return err
	}
	if err := writeData(table, dataPath); err != nil {
		return err
	}
	slog.Info("refined table written",
		slog.String("index", indexPath),
		slog.String("data", dataPath),
		slog.Int("size", table.N()))
	return nil
}

func writeIndices(table *mrio.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.KindConfig, "FILESYSTEM", "could not create output directory").In(path)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.KindConfig, "FILESYSTEM", "could not create indices file").In(path)
	}
	defer file.Close()

	out := csv.NewWriter(file)
	defer out.Flush()

	var writeErr error
	table.IndexSet().EachTotal(func(s *mrio.Sector, r *mrio.Region, _ int) {
		if writeErr != nil {
			return
		}
		writeErr = out.Write([]string{r.Name(), s.Name()})
	})
	if writeErr != nil {
		return errors.Wrap(writeErr, errors.KindConfig, "FILESYSTEM", "could not write indices row").In(path)
	}
	out.Flush()
	return out.Error()
}

func writeData(table *mrio.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.KindConfig, "FILESYSTEM", "could not create output directory").In(path)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.KindConfig, "FILESYSTEM", "could not create data file").In(path)
	}
	defer file.Close()

	out := csv.NewWriter(file)
	defer out.Flush()

	n := table.N()
	record := make([]string, n)
	for row := 0; row < n; row++ {
		values := table.RawRow(row)
		for col, v := range values {
			record[col] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := out.Write(record); err != nil {
			return errors.Wrap(err, errors.KindConfig, "FILESYSTEM", "could not write data row").In(path)
		}
	}
	out.Flush()
	return out.Error()
}
