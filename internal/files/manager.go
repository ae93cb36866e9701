// Package files resolves and checks the on-disk inputs a run
// references, so missing files surface before any computation starts.
package files

import (
	"os"

	"mriocli/internal/config"
	"mriocli/internal/errors"
)

// CheckInputs verifies that every input file the settings reference
// exists and is a regular file.
func CheckInputs(settings *config.Settings) error {
	for _, path := range InputPaths(settings) {
		if err := checkFile(path); err != nil {
			return err
		}
	}
	return nil
}

// InputPaths lists every input file the settings reference: the base
// table, each proxy source and each mapping file.
func InputPaths(settings *config.Settings) []string {
	var paths []string
	switch settings.Basetable.Format {
	case "csv":
		paths = append(paths, settings.Basetable.Index, settings.Basetable.Data)
	case "netcdf":
		paths = append(paths, settings.Basetable.File)
	}
	for _, p := range settings.Proxies {
		paths = append(paths, p.File)
		for _, col := range p.Columns {
			if col.Mapping != nil {
				paths = append(paths, col.Mapping.File)
			}
		}
	}
	return paths
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, errors.KindConfig, "MISSING_FILE", "required file is missing").In(path)
	}
	if info.IsDir() {
		return errors.Newf(errors.KindConfig, "MISSING_FILE", "%q is a directory, not a file", path)
	}
	return nil
}
