package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunVersion(t *testing.T) {
	assert.Equal(t, 0, run([]string{"--version"}))
	assert.Equal(t, 0, run([]string{"-v"}))
}

func TestRunHelp(t *testing.T) {
	assert.Equal(t, 0, run([]string{"--help"}))
}

func TestRunMissingSettings(t *testing.T) {
	assert.Equal(t, 255, run([]string{filepath.Join(t.TempDir(), "nope.yaml")}))
}

func TestRunWithoutArguments(t *testing.T) {
	assert.Equal(t, 255, run([]string{}))
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	indexPath := writeFile(t, dir, "base_index.csv", "X,A\nX,B\n")
	dataPath := writeFile(t, dir, "base_data.csv", "1,1\n1,1\n")
	outIndex := filepath.Join(dir, "out_index.csv")
	outData := filepath.Join(dir, "out_data.csv")

	settings := fmt.Sprintf(`
basetable:
  format: csv
  index: %s
  data: %s
subs:
  - type: sector
    id: A
    count: 2
output:
  format: csv
  index: %s
  data: %s
`, indexPath, dataPath, outIndex, outData)
	settingsPath := writeFile(t, dir, "settings.yaml", settings)

	require.Equal(t, 0, run([]string{settingsPath}))

	content, err := os.ReadFile(outIndex)
	require.NoError(t, err)
	assert.Equal(t, "X,A0\nX,A1\nX,B\n", string(content))
}
