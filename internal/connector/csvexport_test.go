package connector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/session"
)

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openExport(t *testing.T, content string, pageSize int) session.Session {
	t.Helper()
	conn := NewCSVExport(config.SourceConfig{
		Name:     "apollo",
		Kind:     "csvexport",
		Path:     writeExport(t, content),
		PageSize: pageSize,
	})
	sess, err := conn.Open(context.Background(), model.Query{Source: "apollo", Terms: "any"})
	require.NoError(t, err)
	return sess
}

const export = `First Name,Last Name,Title,Profile URL
Jane,Smith,CEO,https://li.com/in/js
Bob,Jones,Owner,
Ana,Lopez,Founder,https://li.com/in/al
`

func TestCSVExport_Paging(t *testing.T) {
	sess := openExport(t, export, 2)

	page1, err := sess.NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "https://li.com/in/js", page1[0].Ref)
	assert.Equal(t, "Jane", page1[0].Get("First Name"))
	// Rows without a profile URL get a positional ref.
	assert.Equal(t, "apollo:row2", page1[1].Ref)

	page2, err := sess.NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, page2, 1)

	_, err = sess.NextPage(context.Background())
	assert.ErrorIs(t, err, session.ErrEndOfResults)
}

func TestCSVExport_FetchDetail(t *testing.T) {
	sess := openExport(t, export, 2)

	rec, err := sess.FetchDetail(context.Background(), "https://li.com/in/al")
	require.NoError(t, err)
	assert.Equal(t, "Ana", rec.Get("First Name"))

	_, err = sess.FetchDetail(context.Background(), "missing")
	assert.Error(t, err)
}

func TestCSVExport_RefreshReservesPage(t *testing.T) {
	sess := openExport(t, export, 2)

	first, err := sess.NextPage(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Refresh(context.Background()))

	again, err := sess.NextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestCSVExport_EmptyFile(t *testing.T) {
	sess := openExport(t, "", 2)

	_, err := sess.NextPage(context.Background())
	assert.ErrorIs(t, err, session.ErrEndOfResults)
}

func TestCSVExport_HeaderOnly(t *testing.T) {
	sess := openExport(t, "First Name,Last Name\n", 2)

	_, err := sess.NextPage(context.Background())
	assert.ErrorIs(t, err, session.ErrEndOfResults)
}

func TestCSVExport_MissingFile(t *testing.T) {
	conn := NewCSVExport(config.SourceConfig{Name: "apollo", Path: "/nonexistent/export.csv"})
	_, err := conn.Open(context.Background(), model.Query{})
	assert.Error(t, err)
}

func TestCSVExport_RaggedRows(t *testing.T) {
	sess := openExport(t, "First Name,Last Name,Title\nJane,Smith\n", 2)

	page, err := sess.NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Jane", page[0].Get("First Name"))
	assert.Empty(t, page[0].Get("Title"))
}
