package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validSettings = `
basetable:
  format: csv
  index: flows_index.csv
  data: flows_data.csv
  threshold: 1e-6
subs:
  - type: sector
    id: AGRI
    into: [AGRI0, AGRI1]
  - type: region
    id: EU
    count: 3
proxies:
  - file: population.csv
    columns:
      region:
        type: subregion
      value:
        type: value
    applications:
      - [r]
output:
  format: csv
  index: out_index.csv
  data: out_data.csv
`

func TestLoadSettings(t *testing.T) {
	path := writeSettings(t, validSettings)
	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "csv", s.Basetable.Format)
	assert.InDelta(t, 1e-6, s.Basetable.Threshold, 1e-18)
	require.Len(t, s.Subs, 2)
	assert.Equal(t, []string{"AGRI0", "AGRI1"}, s.Subs[0].SubNames())
	assert.Equal(t, []string{"EU0", "EU1", "EU2"}, s.Subs[1].SubNames())
	require.Len(t, s.Proxies, 1)
	assert.Equal(t, "population.csv", s.Proxies[0].File)
	require.Len(t, s.Proxies[0].Applications, 1)
	assert.Equal(t, []string{"r"}, s.Proxies[0].Applications[0])
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not open settings file")
}

func TestLoadSettingsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "malformed yaml",
			content: "basetable: [unclosed",
			wantMsg: "could not parse settings file",
		},
		{
			name: "unknown format",
			content: `
basetable:
  format: excel
  file: flows.xlsx
output:
  format: csv
  index: i.csv
  data: d.csv
`,
			wantMsg: "validation failed",
		},
		{
			name: "csv without data file",
			content: `
basetable:
  format: csv
  index: flows_index.csv
output:
  format: csv
  index: i.csv
  data: d.csv
`,
			wantMsg: "needs both index and data",
		},
		{
			name: "netcdf without file",
			content: `
basetable:
  format: netcdf
output:
  format: csv
  index: i.csv
  data: d.csv
`,
			wantMsg: "needs a file",
		},
		{
			name: "split without parts",
			content: `
basetable:
  format: csv
  index: i.csv
  data: d.csv
subs:
  - type: sector
    id: AGRI
output:
  format: csv
  index: o.csv
  data: od.csv
`,
			wantMsg: "no sub parts",
		},
		{
			name: "split with both names and count",
			content: `
basetable:
  format: csv
  index: i.csv
  data: d.csv
subs:
  - type: sector
    id: AGRI
    into: [A, B]
    count: 2
output:
  format: csv
  index: o.csv
  data: od.csv
`,
			wantMsg: "both explicit names and a count",
		},
		{
			name: "select column without value",
			content: `
basetable:
  format: csv
  index: i.csv
  data: d.csv
proxies:
  - file: p.csv
    columns:
      year:
        type: select
      value:
        type: value
    applications:
      - [r]
output:
  format: csv
  index: o.csv
  data: od.csv
`,
			wantMsg: "needs a value",
		},
		{
			name: "unknown column type",
			content: `
basetable:
  format: csv
  index: i.csv
  data: d.csv
proxies:
  - file: p.csv
    columns:
      value:
        type: galaxy
    applications:
      - [r]
output:
  format: csv
  index: o.csv
  data: od.csv
`,
			wantMsg: "unknown column type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSettings(t, tt.content)
			_, err := LoadSettings(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Greater(t, cfg.Workers, 0)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MRIO_LOGGING_LEVEL", "debug")
	t.Setenv("MRIO_WORKERS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Workers)
}
