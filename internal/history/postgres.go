package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "history: parse postgres config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "history: connect postgres")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS checkpoints (
	query_id     TEXT PRIMARY KEY,
	last_page    INTEGER NOT NULL DEFAULT 1,
	last_scraped TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS seen_items (
	query_id TEXT NOT NULL,
	item_id  TEXT NOT NULL,
	seen_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (query_id, item_id)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "history: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetCheckpoint(ctx context.Context, queryID string) (*model.Checkpoint, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT query_id, last_page, last_scraped FROM checkpoints WHERE query_id = $1`,
		queryID,
	)

	var cp model.Checkpoint
	err := row.Scan(&cp.QueryID, &cp.LastPage, &cp.LastScraped)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "history: get checkpoint %s", queryID)
	}
	return &cp, nil
}

func (s *PostgresStore) SaveCheckpoint(ctx context.Context, cp model.Checkpoint) error {
	if cp.LastScraped.IsZero() {
		cp.LastScraped = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO checkpoints (query_id, last_page, last_scraped) VALUES ($1, $2, $3)
		 ON CONFLICT (query_id) DO UPDATE SET
			last_page    = GREATEST(checkpoints.last_page, EXCLUDED.last_page),
			last_scraped = EXCLUDED.last_scraped`,
		cp.QueryID, cp.LastPage, cp.LastScraped,
	)
	return eris.Wrapf(err, "history: save checkpoint %s", cp.QueryID)
}

func (s *PostgresStore) ResetCheckpoint(ctx context.Context, queryID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM checkpoints WHERE query_id = $1`, queryID)
	return eris.Wrapf(err, "history: reset checkpoint %s", queryID)
}

func (s *PostgresStore) ListCheckpoints(ctx context.Context) ([]model.Checkpoint, error) {
	rows, err := s.pool.Query(ctx,
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

func (s *PostgresStore) MarkSeen(ctx context.Context, queryID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "history: begin mark seen")
	}
	defer tx.Rollback(ctx)

	for _, id := range ids {
		if _, err := tx.Exec(ctx,
			`INSERT INTO seen_items (query_id, item_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			queryID, id,
		); err != nil {
			return eris.Wrapf(err, "history: mark seen %s", id)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "history: commit mark seen")
}

func (s *PostgresStore) FilterSeen(ctx context.Context, queryID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT item_id FROM seen_items WHERE query_id = $1 AND item_id = ANY($2)`,
		queryID, ids,
	)
	if err != nil {
		return nil, eris.Wrap(err, "history: filter seen")
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "history: scan seen item")
		}
		seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "history: filter seen iterate")
	}

	unseen := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			unseen = append(unseen, id)
		}
	}
	return unseen, nil
}
