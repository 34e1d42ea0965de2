package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_CheckpointRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cp, err := st.GetCheckpoint(ctx, "salesnav::realtors chicago")
	require.NoError(t, err)
	assert.Nil(t, cp)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.SaveCheckpoint(ctx, model.Checkpoint{
		QueryID:     "salesnav::realtors chicago",
		LastPage:    4,
		LastScraped: now,
	}))

	cp, err = st.GetCheckpoint(ctx, "salesnav::realtors chicago")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 4, cp.LastPage)
	assert.WithinDuration(t, now, cp.LastScraped, time.Second)
}

func TestSQLite_CheckpointNeverRegresses(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveCheckpoint(ctx, model.Checkpoint{QueryID: "q", LastPage: 7}))
	require.NoError(t, st.SaveCheckpoint(ctx, model.Checkpoint{QueryID: "q", LastPage: 3}))

	cp, err := st.GetCheckpoint(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, 7, cp.LastPage)

	// Re-saving the same page is idempotent.
	require.NoError(t, st.SaveCheckpoint(ctx, model.Checkpoint{QueryID: "q", LastPage: 7}))
	cp, err = st.GetCheckpoint(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, 7, cp.LastPage)
}

func TestSQLite_ResetCheckpoint(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveCheckpoint(ctx, model.Checkpoint{QueryID: "q", LastPage: 5}))
	require.NoError(t, st.ResetCheckpoint(ctx, "q"))

	cp, err := st.GetCheckpoint(ctx, "q")
	require.NoError(t, err)
	assert.Nil(t, cp)

	// Resetting a missing checkpoint is not an error.
	require.NoError(t, st.ResetCheckpoint(ctx, "missing"))
}

func TestSQLite_ListCheckpoints(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveCheckpoint(ctx, model.Checkpoint{QueryID: "b", LastPage: 2}))
	require.NoError(t, st.SaveCheckpoint(ctx, model.Checkpoint{QueryID: "a", LastPage: 1}))

	cps, err := st.ListCheckpoints(ctx)
	require.NoError(t, err)
	require.Len(t, cps, 2)
	assert.Equal(t, "a", cps[0].QueryID)
	assert.Equal(t, "b", cps[1].QueryID)
}

func TestSQLite_SeenItems(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.MarkSeen(ctx, "q", []string{"u1", "u2"}))

	unseen, err := st.FilterSeen(ctx, "q", []string{"u3", "u1", "u4", "u2"})
	require.NoError(t, err)
	// Order of the input is preserved.
	assert.Equal(t, []string{"u3", "u4"}, unseen)

	// Marking the same id twice is idempotent.
	require.NoError(t, st.MarkSeen(ctx, "q", []string{"u1"}))

	// Seen sets are scoped per query.
	unseen, err = st.FilterSeen(ctx, "other", []string{"u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, unseen)
}

func TestSQLite_SeenItemsEmptyInput(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.MarkSeen(ctx, "q", nil))
	unseen, err := st.FilterSeen(ctx, "q", nil)
	require.NoError(t, err)
	assert.Empty(t, unseen)
}
