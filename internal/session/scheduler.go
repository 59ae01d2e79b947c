// Package session runs enrichment sessions: a rolling window of worker
// slots over the input rows, an ordered lifecycle event stream, and
// cooperative cancellation.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrich-cli/internal/alias"
	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/discover"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/skiplist"
)

const (
	// DefaultConcurrency is the rolling window size.
	DefaultConcurrency = 10
	// DefaultRowTimeout bounds one row's provider work so a stuck row
	// cannot hold a worker slot forever.
	DefaultRowTimeout = 120 * time.Second

	// MaxRequestedFields bounds the per-session field list.
	MaxRequestedFields = 10
)

// Discoverer produces a CompanyAnalysis for one row.
type Discoverer interface {
	Discover(ctx context.Context, req discover.Request) *model.CompanyAnalysis
}

// Reconciler resolves requested fields against an analysis.
type Reconciler interface {
	Reconcile(analysis *model.CompanyAnalysis, fields []model.EnrichmentField) map[string]model.EnrichmentResult
}

// Journal persists session lifecycle for later retrieval. Optional.
type Journal interface {
	CreateSession(ctx context.Context, id string, totalRows int) error
	UpdateSessionStatus(ctx context.Context, id, status string) error
	CreateRowResult(ctx context.Context, id string, res model.RowEnrichmentResult) error
}

// Request describes one enrichment session.
type Request struct {
	SessionID   string
	Rows        model.RowSet
	Fields      []model.EnrichmentField
	Concurrency int
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithRowTimeout overrides the per-row timeout.
func WithRowTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.rowTimeout = d }
}

// WithJournal attaches a persistence journal.
func WithJournal(j Journal) Option {
	return func(s *Scheduler) { s.journal = j }
}

// Scheduler sequences session lifecycle events and owns row state.
type Scheduler struct {
	discoverer Discoverer
	reconciler Reconciler
	skip       *skiplist.List
	registry   *Registry
	journal    Journal
	rowTimeout time.Duration

	nowFunc func() time.Time
}

// New creates a scheduler. skip may be nil to disable skipping.
func New(discoverer Discoverer, reconciler Reconciler, skip *skiplist.List, registry *Registry, opts ...Option) *Scheduler {
	s := &Scheduler{
		discoverer: discoverer,
		reconciler: reconciler,
		skip:       skip,
		registry:   registry,
		rowTimeout: DefaultRowTimeout,
		nowFunc:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run starts a session and returns its event stream. The stream always
// ends with exactly one terminal event, after which it is closed.
func (s *Scheduler) Run(ctx context.Context, req Request) <-chan Event {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.Concurrency <= 0 {
		req.Concurrency = DefaultConcurrency
	}

	events := make(chan Event, len(req.Rows.Rows)*4+8)
	go s.run(ctx, req, events)
	return events
}

func (s *Scheduler) run(ctx context.Context, req Request, events chan<- Event) {
	defer close(events)

	emit := func(e Event) {
		e.SessionID = req.SessionID
		e.Timestamp = s.nowFunc()
		events <- e
	}

	emit(Event{Type: EventSession, TotalRows: len(req.Rows.Rows)})

	if err := validate(req); err != nil {
		emit(Event{Type: EventError, Message: err.Error()})
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.registry.add(req.SessionID, cancel)
	defer s.registry.remove(req.SessionID)

	if s.journal != nil {
		if err := s.journal.CreateSession(ctx, req.SessionID, len(req.Rows.Rows)); err != nil {
			zap.L().Warn("journal create session failed", zap.String("session_id", req.SessionID), zap.Error(err))
		}
	}

	for i := range req.Rows.Rows {
		emit(Event{Type: EventRowPending, RowIndex: rowIndex(i)})
	}

	domains := cache.New()

	var g errgroup.Group
	g.SetLimit(req.Concurrency)
	for i := range req.Rows.Rows {
		if runCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if runCtx.Err() != nil {
				return nil
			}
			emit(Event{Type: EventRowProcessing, RowIndex: rowIndex(i)})

			res := s.processRow(runCtx, req, i, domains, emit)

			// Cancellation discards in-flight outcomes: the session's
			// terminal cancelled event speaks for the unfinished rows.
			if runCtx.Err() != nil {
				return nil
			}

			if s.journal != nil {
				if err := s.journal.CreateRowResult(ctx, req.SessionID, *res); err != nil {
					zap.L().Warn("journal row result failed", zap.String("session_id", req.SessionID), zap.Int("row", i), zap.Error(err))
				}
			}
			emit(Event{Type: EventRowResult, RowIndex: rowIndex(i), Result: res})
			return nil
		})
	}
	_ = g.Wait()

	if runCtx.Err() != nil {
		s.journalStatus(req.SessionID, "cancelled")
		emit(Event{Type: EventCancelled, Message: "session cancelled"})
		return
	}
	s.journalStatus(req.SessionID, "completed")
	emit(Event{Type: EventComplete})
}

// processRow settles one row. Always returns a terminal result; panics
// from the coordinator surface as row errors, never as session failures.
func (s *Scheduler) processRow(ctx context.Context, req Request, i int, domains *cache.DomainCache, emit func(Event)) (res *model.RowEnrichmentResult) {
	row := req.Rows.Rows[i]
	res = &model.RowEnrichmentResult{
		RowIndex:     i,
		OriginalData: row,
		Enrichments:  map[string]model.EnrichmentResult{},
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("row processing panic",
				zap.String("session_id", req.SessionID),
				zap.Int("row", i),
				zap.Any("panic", r),
			)
			res.Status = model.RowStatusError
			res.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	email := strings.TrimSpace(req.Rows.Email(row))
	if email == "" {
		res.Status = model.RowStatusError
		res.Error = fmt.Sprintf("row %d has no value in email column %q", i, req.Rows.EmailColumn)
		return res
	}

	if s.skip != nil && s.skip.ShouldSkip(email) {
		res.Status = model.RowStatusSkipped
		res.Error = s.skip.Reason(email)
		return res
	}

	nameHint, domainHint := rowHints(req.Rows, row)
	domain := model.NormalizeDomain(domainHint)
	if domain == "" {
		domain = model.DomainFromEmail(email)
	}

	if cached, ok := domains.Get(domain); ok {
		res.Enrichments = cached
		res.Status = model.RowStatusCompleted
		return res
	}

	emit(Event{Type: EventAgentProgress, RowIndex: rowIndex(i), Message: "researching " + domain})

	rowCtx, cancelRow := context.WithTimeout(ctx, s.rowTimeout)
	defer cancelRow()

	analysis := s.discoverer.Discover(rowCtx, discover.Request{
		Email:      email,
		NameHint:   nameHint,
		DomainHint: domainHint,
	})
	res.Enrichments = s.reconciler.Reconcile(analysis, req.Fields)
	domains.Put(domain, res.Enrichments)
	res.Status = model.RowStatusCompleted
	return res
}

// rowHints pulls name and domain hints out of the row: the configured
// name column first, then any column whose header resolves to the
// canonical company name or domain keys.
func rowHints(set model.RowSet, row model.Row) (nameHint, domainHint string) {
	if set.NameColumn != "" {
		nameHint = strings.TrimSpace(row[set.NameColumn])
	}
	for _, col := range set.Columns {
		canonical, ok := alias.Resolve(col)
		if !ok {
			continue
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		switch canonical {
		case alias.KeyCompanyName:
			if nameHint == "" {
				nameHint = v
			}
		case alias.KeyCompanyDomain:
			if domainHint == "" {
				domainHint = v
			}
		}
	}
	return nameHint, domainHint
}

func (s *Scheduler) journalStatus(id, status string) {
	if s.journal == nil {
		return
	}
	// Detached context: the run context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.journal.UpdateSessionStatus(ctx, id, status); err != nil {
		zap.L().Warn("journal status update failed", zap.String("session_id", id), zap.String("status", status), zap.Error(err))
	}
}

func validate(req Request) error {
	if len(req.Fields) == 0 {
		return fmt.Errorf("session: at least one enrichment field is required")
	}
	if len(req.Fields) > MaxRequestedFields {
		return fmt.Errorf("session: at most %d enrichment fields per session, got %d", MaxRequestedFields, len(req.Fields))
	}
	if req.Rows.EmailColumn == "" {
		return fmt.Errorf("session: email column is required")
	}
	return nil
}
