package history

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. A process-local
// mutex serializes writes on top of SQLite's busy timeout so concurrent
// source workers cannot interleave checkpoint updates.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "history: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "history: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS checkpoints (
	query_id     TEXT PRIMARY KEY,
	last_page    INTEGER NOT NULL DEFAULT 1,
	last_scraped DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS seen_items (
	query_id TEXT NOT NULL,
	item_id  TEXT NOT NULL,
	seen_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (query_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_seen_items_query ON seen_items(query_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "history: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCheckpoint(ctx context.Context, queryID string) (*model.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT query_id, last_page, last_scraped FROM checkpoints WHERE query_id = ?`,
		queryID,
	)

	var cp model.Checkpoint
	err := row.Scan(&cp.QueryID, &cp.LastPage, &cp.LastScraped)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "history: get checkpoint %s", queryID)
	}
	return &cp, nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, cp model.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cp.LastScraped.IsZero() {
		cp.LastScraped = time.Now().UTC()
	}

	// MAX() keeps last_page monotonic; re-saving the same page is a no-op.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (query_id, last_page, last_scraped) VALUES (?, ?, ?)
		 ON CONFLICT(query_id) DO UPDATE SET
			last_page    = MAX(checkpoints.last_page, excluded.last_page),
			last_scraped = excluded.last_scraped`,
		cp.QueryID, cp.LastPage, cp.LastScraped,
	)
	return eris.Wrapf(err, "history: save checkpoint %s", cp.QueryID)
}

func (s *SQLiteStore) ResetCheckpoint(ctx context.Context, queryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE query_id = ?`, queryID)
	return eris.Wrapf(err, "history: reset checkpoint %s", queryID)
}

func (s *SQLiteStore) ListCheckpoints(ctx context.Context) ([]model.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query_id, last_page, last_scraped FROM checkpoints ORDER BY query_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "history: list checkpoints")
	}
	defer rows.Close()

	var cps []model.Checkpoint
	for rows.Next() {
		var cp model.Checkpoint
		if err := rows.Scan(&cp.QueryID, &cp.LastPage, &cp.LastScraped); err != nil {
			return nil, eris.Wrap(err, "history: scan checkpoint")
		}
		cps = append(cps, cp)
	}
	return cps, eris.Wrap(rows.Err(), "history: list checkpoints iterate")
}

func (s *SQLiteStore) MarkSeen(ctx context.Context, queryID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "history: begin mark seen")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO seen_items (query_id, item_id, seen_at) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "history: prepare mark seen")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, queryID, id, now); err != nil {
			return eris.Wrapf(err, "history: mark seen %s", id)
		}
	}
	return eris.Wrap(tx.Commit(), "history: commit mark seen")
}

func (s *SQLiteStore) FilterSeen(ctx context.Context, queryID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	unseen := make([]string, 0, len(ids))
	for _, id := range ids {
		row := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM seen_items WHERE query_id = ? AND item_id = ?`,
			queryID, id,
		)
		var one int
		err := row.Scan(&one)
		if err == sql.ErrNoRows {
			unseen = append(unseen, id)
			continue
		}
		if err != nil {
			return nil, eris.Wrapf(err, "history: filter seen %s", id)
		}
	}
	return unseen, nil
}
