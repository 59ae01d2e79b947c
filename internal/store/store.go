// Package store persists enrichment sessions and their per-row results.
package store

import (
	"context"
	"time"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Session is the persisted record of one enrichment session.
type Session struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	TotalRows int       `json:"totalRows"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the enrichment engine.
// The session scheduler writes through the Journal subset; the HTTP
// server reads sessions back for status queries.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, id string, totalRows int) error
	UpdateSessionStatus(ctx context.Context, id, status string) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)

	// Row results
	CreateRowResult(ctx context.Context, sessionID string, res model.RowEnrichmentResult) error
	ListSessionRows(ctx context.Context, sessionID string) ([]model.RowEnrichmentResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Session status values written by the scheduler.
const (
	SessionStatusRunning   = "running"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
	SessionStatusError     = "error"
)
