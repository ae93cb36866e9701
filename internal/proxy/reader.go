package proxy

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"mriocli/internal/config"
	"mriocli/internal/errors"
	"mriocli/internal/mrio"
)

type columnKind int

const (
	columnIgnore columnKind = iota
	columnSelect
	columnValue
	columnIndex
)

type column struct {
	kind  columnKind
	value string
	axis  *Axis
}

// Load reads one proxy from its source CSV according to the
// specification, resolving mapped axes from their mapping files. The
// index set must be the fully split one of the working table.
func Load(spec config.ProxySpec, set *mrio.IndexSet) (*Data, error) {
	file, err := os.Open(spec.File)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "MISSING_FILE", "could not open proxy file").In(spec.File)
	}
	defer file.Close()

	in := csv.NewReader(file)
	in.Comment = '#'
	in.TrimLeadingSpace = true
	in.FieldsPerRecord = -1

	header, err := in.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.KindParse, "MALFORMED_CSV", "could not read proxy header").In(spec.File)
	}

	p := &Data{set: set, source: spec.File}
	columns := make([]column, len(header))
	seen := make(map[string]bool, len(spec.Columns))
	for idx, name := range header {
		colSpec, ok := spec.Columns[name]
		if !ok {
			columns[idx] = column{kind: columnIgnore}
			continue
		}
		seen[name] = true
		switch colSpec.Type {
		case "select":
			columns[idx] = column{kind: columnSelect, value: colSpec.Value}
		case "value":
			columns[idx] = column{kind: columnValue}
		default:
			axisType, err := ParseAxisType(colSpec.Type)
			if err != nil {
				return nil, err
			}
			axis := newAxis(axisType, colSpec.Mapping != nil)
			if axis.Mapped {
				if err := loadMapping(*colSpec.Mapping, axis, set); err != nil {
					return nil, err
				}
				axis.Size = len(axis.foreign)
			} else {
				axis.Size = nativeSize(axisType, set)
			}
			columns[idx] = column{kind: columnIndex, axis: axis}
			p.axes = append(p.axes, axis)
		}
	}
	for name := range spec.Columns {
		if !seen[name] {
			return nil, errors.Newf(errors.KindConfig, "UNKNOWN_COLUMN",
				"column %q not found", name).In(spec.File)
		}
	}
	if len(p.axes) == 0 {
		return nil, errors.Newf(errors.KindConfig, "EMPTY_PROXY", "proxies must not be empty").In(spec.File)
	}

	size := 1
	for _, axis := range p.axes {
		size *= axis.Size
	}
	stride := size
	for _, axis := range p.axes {
		stride /= axis.Size
		axis.Stride = stride
	}
	p.values = make([]float64, size)
	for i := range p.values {
		p.values[i] = math.NaN()
	}

	line := 1
	for {
		record, err := in.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrap(err, errors.KindParse, "MALFORMED_CSV", "could not read proxy row").At(spec.File, line)
		}
		if len(record) != len(header) {
			return nil, errors.ErrRowWidthMismatch.At(spec.File, line)
		}
		offset := 0
		value := 0.0
		skip := false
		for idx, col := range columns {
			cell := record[idx]
			switch col.kind {
			case columnIgnore:
			case columnSelect:
				skip = col.value != cell
			case columnValue:
				value, err = strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, errors.ErrBadNumber.At(spec.File, line)
				}
			case columnIndex:
				part, err := indexOf(col.axis, cell, set)
				if err != nil {
					var e *errors.Error
					if errors.As(err, &e) {
						return nil, e.At(spec.File, line)
					}
					return nil, err
				}
				offset += part * col.axis.Stride
			}
			if skip {
				break
			}
		}
		if skip {
			continue
		}
		if value < 0 {
			return nil, errors.NegativeProxyValue(value).At(spec.File, line)
		}
		p.values[offset] = value
	}

	if err := buildApplications(p, spec.Applications); err != nil {
		var e *errors.Error
		if errors.As(err, &e) {
			return nil, e.In(spec.File)
		}
		return nil, err
	}
	return p, nil
}

// indexOf resolves one index cell to the axis-local position of the
// named member: the foreign ordinal for mapped axes, the level index of
// the table member otherwise.
func indexOf(axis *Axis, name string, set *mrio.IndexSet) (int, error) {
	if axis.Mapped {
		part, ok := axis.foreignByName[name]
		if !ok {
			return 0, errors.Newf(errors.KindData, "UNKNOWN_FOREIGN_ID",
				"%s %q not in mapping", axis.Type, name)
		}
		return part.Index, nil
	}
	if axis.Type.IsSector() {
		s, err := set.LookupSector(name)
		if err != nil {
			return 0, err
		}
		if s.IsSub() != axis.Sub {
			return 0, errors.Newf(errors.KindConfig, "LEVEL_MISMATCH",
				"sector %q is not a %s", name, axis.Type)
		}
		return s.LevelIndex(), nil
	}
	r, err := set.LookupRegion(name)
	if err != nil {
		return 0, err
	}
	if r.IsSub() != axis.Sub {
		return 0, errors.Newf(errors.KindConfig, "LEVEL_MISMATCH",
			"region %q is not a %s", name, axis.Type)
	}
	return r.LevelIndex(), nil
}

// buildApplications parses the application lists. Each application
// assigns every index axis, in declaration order, to one of i, r, j, s.
func buildApplications(p *Data, lists [][]string) error {
	for _, list := range lists {
		if len(list) > len(p.axes) {
			return errors.New(errors.KindConfig, "TOO_MANY_INDICES", "too many indices for application given")
		}
		if len(list) < len(p.axes) {
			return errors.New(errors.KindConfig, "UNUSED_INDICES", "all indices must be used for application")
		}
		app := &Application{}
		for idx, target := range list {
			axis := p.axes[idx]
			switch target {
			case "i":
				if !axis.Type.IsSector() {
					return errors.New(errors.KindConfig, "TYPE_MISMATCH", "cannot apply non-sector column to sector index i")
				}
				if app.I != nil {
					return errors.New(errors.KindConfig, "CONFLICTING_APPLICATIONS", "flow index i assigned twice")
				}
				app.I = axis
			case "r":
				if axis.Type.IsSector() {
					return errors.New(errors.KindConfig, "TYPE_MISMATCH", "cannot apply non-region column to region index r")
				}
				if app.R != nil {
					return errors.New(errors.KindConfig, "CONFLICTING_APPLICATIONS", "flow index r assigned twice")
				}
				app.R = axis
			case "j":
				if !axis.Type.IsSector() {
					return errors.New(errors.KindConfig, "TYPE_MISMATCH", "cannot apply non-sector column to sector index j")
				}
				if app.J != nil {
					return errors.New(errors.KindConfig, "CONFLICTING_APPLICATIONS", "flow index j assigned twice")
				}
				app.J = axis
			case "s":
				if axis.Type.IsSector() {
					return errors.New(errors.KindConfig, "TYPE_MISMATCH", "cannot apply non-region column to region index s")
				}
				if app.S != nil {
					return errors.New(errors.KindConfig, "CONFLICTING_APPLICATIONS", "flow index s assigned twice")
				}
				app.S = axis
			default:
				return errors.Newf(errors.KindConfig, "UNKNOWN_INDEX", "unknown index name %q", target)
			}
		}
		p.apps = append(p.apps, app)
	}
	// Applications that could co-apply must be combinable; detect the
	// conflict at load time rather than per cell.
	for a := 0; a < len(p.apps); a++ {
		for b := a + 1; b < len(p.apps); b++ {
			if _, err := Combine(p.apps[a], p.apps[b]); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadMapping reads a foreign↔native mapping file into the axis and
// computes the relation's clusters. Rows with "-" in either cell carry
// no mapping and are skipped.
func loadMapping(spec config.MappingSpec, axis *Axis, set *mrio.IndexSet) error {
	file, err := os.Open(spec.File)
	if err != nil {
		return errors.Wrap(err, errors.KindConfig, "MISSING_FILE", "could not open mapping file").In(spec.File)
	}
	defer file.Close()

	axis.initNativeParts(set)

	in := csv.NewReader(file)
	in.Comment = '#'
	in.TrimLeadingSpace = true

	header, err := in.Read()
	if err != nil {
		return errors.Wrap(err, errors.KindParse, "MALFORMED_CSV", "could not read mapping header").In(spec.File)
	}
	foreignCol, nativeCol := -1, -1
	for idx, name := range header {
		switch name {
		case spec.ForeignColumn:
			foreignCol = idx
		case spec.NativeColumn:
			nativeCol = idx
		}
	}
	if foreignCol < 0 {
		return errors.Newf(errors.KindConfig, "UNKNOWN_COLUMN", "column %q not found", spec.ForeignColumn).In(spec.File)
	}
	if nativeCol < 0 {
		return errors.Newf(errors.KindConfig, "UNKNOWN_COLUMN", "column %q not found", spec.NativeColumn).In(spec.File)
	}

	line := 1
	for {
		record, err := in.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return errors.Wrap(err, errors.KindParse, "MALFORMED_CSV", "could not read mapping row").At(spec.File, line)
		}
		foreignID := record[foreignCol]
		nativeID := record[nativeCol]
		if foreignID == "-" || nativeID == "-" {
			continue
		}
		nativeIndex, err := indexOf(&Axis{Type: axis.Type, Sub: axis.Sub}, nativeID, set)
		if err != nil {
			var e *errors.Error
			if errors.As(err, &e) {
				return e.At(spec.File, line)
			}
			return err
		}
		axis.foreignPart(foreignID).link(axis.native[nativeIndex])
	}

	buildClusters(axis.native)
	return nil
}
