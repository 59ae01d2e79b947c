package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	total_rows INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS session_rows (
	session_id    TEXT NOT NULL REFERENCES sessions(id),
	row_index     INTEGER NOT NULL,
	status        TEXT NOT NULL,
	original_data TEXT NOT NULL,
	enrichments   TEXT,
	error         TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (session_id, row_index)
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
CREATE INDEX IF NOT EXISTS idx_session_rows_session_id ON session_rows(session_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, id string, totalRows int) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, status, total_rows, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, SessionStatusRunning, totalRows, now, now,
	)
	return eris.Wrapf(err, "sqlite: insert session %s", id)
}

func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update session status %s", id)
	}
	return checkRowsAffected(res, "session", id)
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, total_rows, created_at, updated_at FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.Status, &sess.TotalRows, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get session %s", id)
	}
	return &sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	query := `SELECT id, status, total_rows, created_at, updated_at FROM sessions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Status, &sess.TotalRows, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		sessions = append(sessions, sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: list sessions iterate")
}

func (s *SQLiteStore) CreateRowResult(ctx context.Context, sessionID string, res model.RowEnrichmentResult) error {
	originalJSON, enrichJSON, err := marshalRowResult(res)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_rows (session_id, row_index, status, original_data, enrichments, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id, row_index) DO UPDATE SET
		   status = excluded.status, enrichments = excluded.enrichments, error = excluded.error`,
		sessionID, res.RowIndex, string(res.Status), originalJSON, enrichJSON, res.Error, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert row result %s/%d", sessionID, res.RowIndex)
}

func (s *SQLiteStore) ListSessionRows(ctx context.Context, sessionID string) ([]model.RowEnrichmentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, status, original_data, enrichments, error FROM session_rows
		 WHERE session_id = ? ORDER BY row_index`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list session rows %s", sessionID)
	}
	defer rows.Close()

	var results []model.RowEnrichmentResult
	for rows.Next() {
		var res model.RowEnrichmentResult
		var status, originalJSON string
		var enrichJSON, errMsg sql.NullString
		if err := rows.Scan(&res.RowIndex, &status, &originalJSON, &enrichJSON, &errMsg); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row result")
		}
		if err := unmarshalRowResult(&res, status, originalJSON, enrichJSON.String, errMsg.String); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list session rows iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func marshalRowResult(res model.RowEnrichmentResult) (string, string, error) {
	originalJSON, err := json.Marshal(res.OriginalData)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal original data")
	}
	enrichJSON, err := json.Marshal(res.Enrichments)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal enrichments")
	}
	return string(originalJSON), string(enrichJSON), nil
}

func unmarshalRowResult(res *model.RowEnrichmentResult, status, originalJSON, enrichJSON, errMsg string) error {
	res.Status = model.RowStatus(status)
	res.Error = errMsg
	if err := json.Unmarshal([]byte(originalJSON), &res.OriginalData); err != nil {
		return eris.Wrap(err, "store: unmarshal original data")
	}
	if enrichJSON != "" {
		if err := json.Unmarshal([]byte(enrichJSON), &res.Enrichments); err != nil {
			return eris.Wrap(err, "store: unmarshal enrichments")
		}
	}
	return nil
}
