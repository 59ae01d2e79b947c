package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/db"
	"github.com/sells-group/enrich-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot-path journal writes.
var preparedStatements = map[string]string{
	"insert_session":        `INSERT INTO sessions (id, status, total_rows, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_session_status": `UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3`,
	"get_session":           `SELECT id, status, total_rows, created_at, updated_at FROM sessions WHERE id = $1`,
	"insert_session_row":    `INSERT INTO session_rows (session_id, row_index, status, original_data, enrichments, error, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (session_id, row_index) DO UPDATE SET status = excluded.status, enrichments = excluded.enrichments, error = excluded.error`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	total_rows INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS session_rows (
	session_id    TEXT NOT NULL REFERENCES sessions(id),
	row_index     INTEGER NOT NULL,
	status        TEXT NOT NULL,
	original_data JSONB NOT NULL,
	enrichments   JSONB,
	error         TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (session_id, row_index)
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
CREATE INDEX IF NOT EXISTS idx_session_rows_session_id ON session_rows(session_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, id string, totalRows int) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, status, total_rows, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, SessionStatusRunning, totalRows, now, now,
	)
	return eris.Wrapf(err, "postgres: insert session %s", id)
}

func (s *PostgresStore) UpdateSessionStatus(ctx context.Context, id, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update session status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, total_rows, created_at, updated_at FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.Status, &sess.TotalRows, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get session %s", id)
	}
	return &sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	query := `SELECT id, status, total_rows, created_at, updated_at FROM sessions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Status, &sess.TotalRows, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		sessions = append(sessions, sess)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: list sessions iterate")
}

func (s *PostgresStore) CreateRowResult(ctx context.Context, sessionID string, res model.RowEnrichmentResult) error {
	originalJSON, enrichJSON, err := marshalRowResult(res)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO session_rows (session_id, row_index, status, original_data, enrichments, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (session_id, row_index) DO UPDATE SET
		   status = excluded.status, enrichments = excluded.enrichments, error = excluded.error`,
		sessionID, res.RowIndex, string(res.Status), []byte(originalJSON), []byte(enrichJSON), nullIfEmpty(res.Error), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: insert row result %s/%d", sessionID, res.RowIndex)
}

// BulkInsertRowResults lands a full batch of row results in one COPY.
// Used by the CLI run path, which journals only once at the end.
func (s *PostgresStore) BulkInsertRowResults(ctx context.Context, sessionID string, results []model.RowEnrichmentResult) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(results))
	for _, res := range results {
		originalJSON, enrichJSON, err := marshalRowResult(res)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{
			sessionID, res.RowIndex, string(res.Status),
			[]byte(originalJSON), []byte(enrichJSON), nullIfEmpty(res.Error), now,
		})
	}

	columns := []string{"session_id", "row_index", "status", "original_data", "enrichments", "error", "created_at"}
	return db.CopyFrom(ctx, s.pool, "session_rows", columns, rows)
}

func (s *PostgresStore) ListSessionRows(ctx context.Context, sessionID string) ([]model.RowEnrichmentResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT row_index, status, original_data, enrichments, error FROM session_rows
		 WHERE session_id = $1 ORDER BY row_index`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list session rows %s", sessionID)
	}
	defer rows.Close()

	var results []model.RowEnrichmentResult
	for rows.Next() {
		var res model.RowEnrichmentResult
		var status string
		var originalJSON, enrichJSON []byte
		var errMsg *string
		if err := rows.Scan(&res.RowIndex, &status, &originalJSON, &enrichJSON, &errMsg); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row result")
		}
		res.Status = model.RowStatus(status)
		if errMsg != nil {
			res.Error = *errMsg
		}
		if err := json.Unmarshal(originalJSON, &res.OriginalData); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal original data")
		}
		if len(enrichJSON) > 0 {
			if err := json.Unmarshal(enrichJSON, &res.Enrichments); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal enrichments")
			}
		}
		results = append(results, res)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list session rows iterate")
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
