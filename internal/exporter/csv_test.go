package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mriocli/internal/dataprocessing"
	"mriocli/internal/mrio"
)

const eps = 1e-12

func newTestTable(t *testing.T) *mrio.Table {
	t.Helper()
	set := mrio.NewIndexSet()
	for _, pair := range [][2]string{{"A", "X"}, {"B", "X"}, {"A", "Y"}, {"B", "Y"}} {
		require.NoError(t, set.AddIndex(pair[0], pair[1]))
	}
	set.RebuildIndices()
	table := mrio.NewTable(set, 0)
	v := 1.0
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			table.SetValue(row, col, v)
			v += 0.5
		}
	}
	return table
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	table := newTestTable(t)
	indexPath := filepath.Join(dir, "out_index.csv")
	dataPath := filepath.Join(dir, "out_data.csv")

	require.NoError(t, WriteCSV(table, indexPath, dataPath))

	indexContent, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Equal(t, "X,A\nX,B\nY,A\nY,B\n", string(indexContent))

	dataContent, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	rows := strings.Split(strings.TrimRight(string(dataContent), "\n"), "\n")
	require.Len(t, rows, 4)
	assert.Equal(t, "1,1.5,2,2.5", rows[0])
}

func TestWriteCSVLeafResolution(t *testing.T) {
	dir := t.TempDir()
	table := newTestTable(t)
	require.NoError(t, table.InsertSubsectors("A", []string{"A0", "A1"}))

	indexPath := filepath.Join(dir, "out_index.csv")
	dataPath := filepath.Join(dir, "out_data.csv")
	require.NoError(t, WriteCSV(table, indexPath, dataPath))

	indexContent, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Equal(t, "X,A0\nX,A1\nX,B\nY,A0\nY,A1\nY,B\n", string(indexContent))
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	table := newTestTable(t)
	indexPath := filepath.Join(dir, "out_index.csv")
	dataPath := filepath.Join(dir, "out_data.csv")
	require.NoError(t, WriteCSV(table, indexPath, dataPath))

	loaded, err := dataprocessing.LoadCSV(indexPath, dataPath, 0)
	require.NoError(t, err)
	require.Equal(t, table.N(), loaded.N())
	for row := 0; row < table.N(); row++ {
		for col := 0; col < table.N(); col++ {
			assert.InDelta(t, table.Value(row, col), loaded.Value(row, col), eps)
		}
	}
}
