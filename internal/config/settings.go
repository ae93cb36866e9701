package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"mriocli/internal/errors"
)

// Settings describes one disaggregation run: where the base table comes
// from, which supers to split, which proxies to apply in which order,
// and where the refined table goes.
type Settings struct {
	Basetable TableSpec          `yaml:"basetable" validate:"required"`
	Subs      []SplitInstruction `yaml:"subs" validate:"dive"`
	Proxies   []ProxySpec        `yaml:"proxies" validate:"dive"`
	Output    TableSpec          `yaml:"output" validate:"required"`
}

// TableSpec locates a table on disk, either as a CSV pair (indices file
// plus data grid) or as a single NetCDF file.
type TableSpec struct {
	Format    string  `yaml:"format" validate:"required,oneof=csv netcdf"`
	Index     string  `yaml:"index"`
	Data      string  `yaml:"data"`
	File      string  `yaml:"file"`
	Threshold float64 `yaml:"threshold" validate:"gte=0"`
}

// SplitInstruction names one super sector or region and the sub parts it
// is split into. Sub names are either given explicitly or derived from
// the super name and a count.
type SplitInstruction struct {
	Type  string   `yaml:"type" validate:"required,oneof=sector region"`
	ID    string   `yaml:"id" validate:"required"`
	Into  []string `yaml:"into"`
	Count int      `yaml:"count" validate:"gte=0"`
}

// SubNames returns the sub part names of the instruction.
func (s SplitInstruction) SubNames() []string {
	if len(s.Into) > 0 {
		return s.Into
	}
	names := make([]string, s.Count)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", s.ID, i)
	}
	return names
}

// ProxySpec describes one proxy source file, the role of each of its
// columns and the applications binding its axes to flow positions.
type ProxySpec struct {
	File         string                `yaml:"file" validate:"required"`
	Columns      map[string]ColumnSpec `yaml:"columns" validate:"required"`
	Applications [][]string            `yaml:"applications" validate:"required,min=1"`
}

// ColumnSpec assigns a role to one CSV column: select (row filter),
// value (the numeric proxy value) or an index column typed
// sector/subsector/region/subregion, optionally mapped.
type ColumnSpec struct {
	Type    string       `yaml:"type" validate:"required"`
	Value   string       `yaml:"value"`
	Mapping *MappingSpec `yaml:"mapping"`
}

// MappingSpec locates a foreign↔native mapping file and names its two
// relevant columns.
type MappingSpec struct {
	File          string `yaml:"file" validate:"required"`
	ForeignColumn string `yaml:"foreign_column" validate:"required"`
	NativeColumn  string `yaml:"native_column" validate:"required"`
}

var validate = validator.New()

// LoadSettings reads and validates a run settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "MISSING_FILE", "could not open settings file").In(path)
	}
	var s Settings
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, errors.Wrap(err, errors.KindParse, "MALFORMED_YAML", "could not parse settings file").In(path)
	}
	if err := validate.Struct(&s); err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "VALIDATION_FAILED", "settings validation failed").In(path)
	}
	if err := s.check(); err != nil {
		var e *errors.Error
		if errors.As(err, &e) {
			return nil, e.In(path)
		}
		return nil, err
	}
	return &s, nil
}

// check applies the cross-field rules the validator tags cannot express.
func (s *Settings) check() error {
	if err := s.Basetable.check("basetable"); err != nil {
		return err
	}
	if err := s.Output.check("output"); err != nil {
		return err
	}
	for _, sub := range s.Subs {
		if len(sub.Into) == 0 && sub.Count < 1 {
			return errors.Newf(errors.KindConfig, "EMPTY_SPLIT",
				"split of %q names no sub parts and no count", sub.ID)
		}
		if len(sub.Into) > 0 && sub.Count > 0 {
			return errors.Newf(errors.KindConfig, "AMBIGUOUS_SPLIT",
				"split of %q gives both explicit names and a count", sub.ID)
		}
	}
	for _, p := range s.Proxies {
		for name, col := range p.Columns {
			switch col.Type {
			case "select":
				if col.Value == "" {
					return errors.Newf(errors.KindConfig, "MISSING_VALUE",
						"select column %q in %q needs a value", name, p.File)
				}
			case "value", "sector", "subsector", "region", "subregion":
			default:
				return errors.Newf(errors.KindConfig, "UNKNOWN_TYPE",
					"unknown column type %q for column %q", col.Type, name)
			}
		}
	}
	return nil
}

func (t *TableSpec) check(what string) error {
	switch t.Format {
	case "csv":
		if t.Index == "" || t.Data == "" {
			return errors.Newf(errors.KindConfig, "MISSING_FILE",
				"%s in csv form needs both index and data files", what)
		}
	case "netcdf":
		if t.File == "" {
			return errors.Newf(errors.KindConfig, "MISSING_FILE",
				"%s in netcdf form needs a file", what)
		}
	}
	return nil
}
