package operations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mriocli/internal/config"
	"mriocli/internal/dataprocessing"
	"mriocli/internal/shared/testutil"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	indexPath := writeFile(t, dir, "base_index.csv", "X,A\nX,B\nY,A\nY,B\n")
	dataPath := writeFile(t, dir, "base_data.csv",
		"1,1,1,1\n1,1,1,1\n1,1,1,1\n1,1,1,1\n")
	proxyPath := writeFile(t, dir, "population.csv", "region,value\nX0,3\nX1,1\n")

	settingsYAML := fmt.Sprintf(`
basetable:
  format: csv
  index: %s
  data: %s
subs:
  - type: region
    id: X
    into: [X0, X1]
proxies:
  - file: %s
    columns:
      region:
        type: subregion
      value:
        type: value
    applications:
      - [r]
output:
  format: csv
  index: %s
  data: %s
`, indexPath, dataPath, proxyPath,
		filepath.Join(dir, "out_index.csv"), filepath.Join(dir, "out_data.csv"))
	settingsPath := writeFile(t, dir, "settings.yaml", settingsYAML)

	settings, err := config.LoadSettings(settingsPath)
	require.NoError(t, err)

	logger, captured := testutil.NewTestLogger(t)
	m := NewManager(logger)
	state, err := m.Run(context.Background(), settings, config.Default())
	require.NoError(t, err)
	require.NotNil(t, state.Refined)
	assert.Equal(t, 6, state.Refined.N())
	assert.True(t, captured.HasMessage("step completed"))

	for _, id := range []string{"load", "refine", "export"} {
		assert.Equal(t, StepStatusCompleted, m.StepState(id).Status)
	}

	// The written table loads back and conserves the base aggregates.
	refined, err := dataprocessing.LoadCSV(
		filepath.Join(dir, "out_index.csv"), filepath.Join(dir, "out_data.csv"), 0)
	require.NoError(t, err)
	require.Equal(t, 6, refined.N())

	set := refined.IndexSet()
	a, err := set.LookupSector("A")
	require.NoError(t, err)
	x0, err := set.LookupRegion("X0")
	require.NoError(t, err)
	x1, err := set.LookupRegion("X1")
	require.NoError(t, err)
	y, err := set.LookupRegion("Y")
	require.NoError(t, err)

	top := refined.At(a, x0, a, y)
	bottom := refined.At(a, x1, a, y)
	assert.InDelta(t, 3, top/bottom, 1e-9)
	assert.InDelta(t, 1, top+bottom, 1e-9)
}

func TestPipelineFailsOnMissingBase(t *testing.T) {
	dir := t.TempDir()
	settings := &config.Settings{
		Basetable: config.TableSpec{
			Format: "csv",
			Index:  filepath.Join(dir, "nope_index.csv"),
			Data:   filepath.Join(dir, "nope_data.csv"),
		},
		Output: config.TableSpec{
			Format: "csv",
			Index:  filepath.Join(dir, "out_index.csv"),
			Data:   filepath.Join(dir, "out_data.csv"),
		},
	}

	m := NewManager(testLogger())
	_, err := m.Run(context.Background(), settings, config.Default())
	require.Error(t, err)
	assert.Equal(t, StepStatusFailed, m.StepState("load").Status)
	assert.Equal(t, StepStatusPending, m.StepState("refine").Status)
}
