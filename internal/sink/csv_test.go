package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func sampleLeads() []model.Lead {
	return []model.Lead{
		{
			FirstName:  "Jane",
			LastName:   "Smith",
			Role:       "CEO",
			Company:    "Acme Realty LLC",
			Email:      "jane@acmerealty.com",
			Domain:     "acmerealty.com",
			ProfileURL: "https://li.com/in/js",
			Source:     "salesnav",
		},
		{
			FirstName: "Bob",
			LastName:  "Jones",
			Role:      "Owner",
			Source:    "apollo",
			TeamSize:  "11-50",
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, WriteCSV(sampleLeads(), path))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, model.CanonicalColumns, rows[0])
	assert.Equal(t, "Jane", rows[1][0])
	assert.Equal(t, "acmerealty.com", rows[1][7])
	assert.Equal(t, "11-50", rows[2][10])
}

func TestWriteCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteCSV(nil, path))

	rows := readCSV(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, model.CanonicalColumns, rows[0])
}

func TestWriteCSV_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leads.csv")
	require.NoError(t, WriteCSV(sampleLeads(), path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "leads.csv", entries[0].Name())
}

func TestWriteCSV_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	require.NoError(t, WriteCSV(sampleLeads(), path))
	rows := readCSV(t, path)
	assert.Len(t, rows, 3)
}
