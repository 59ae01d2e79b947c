// Package server exposes the enrichment engine over HTTP. Sessions are
// started with a POST and consumed as a server-sent event stream.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/alias"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/session"
	"github.com/sells-group/enrich-cli/internal/store"
)

// Server wires the session scheduler and optional store into HTTP handlers.
type Server struct {
	scheduler *session.Scheduler
	registry  *session.Registry
	store     store.Store
}

// New creates a Server. st may be nil when persistence is disabled.
func New(scheduler *session.Scheduler, registry *session.Registry, st store.Store) *Server {
	return &Server{scheduler: scheduler, registry: registry, store: st}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/fields", s.handleFields)
	r.Post("/sessions", s.handleCreateSession)
	r.Post("/sessions/{id}/cancel", s.handleCancelSession)
	r.Get("/sessions/{id}", s.handleGetSession)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fieldInfo describes one resolvable input column for clients.
type fieldInfo struct {
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	canonicals := alias.Canonicals()
	infos := make([]fieldInfo, 0, len(canonicals))
	for _, c := range canonicals {
		infos = append(infos, fieldInfo{Canonical: c, Aliases: alias.AliasesFor(c)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": infos})
}

// createSessionRequest is the POST /sessions body.
type createSessionRequest struct {
	SessionID   string                  `json:"sessionId,omitempty"`
	Columns     []string                `json:"columns"`
	EmailColumn string                  `json:"emailColumn"`
	NameColumn  string                  `json:"nameColumn,omitempty"`
	Rows        []model.Row             `json:"rows"`
	Fields      []model.EnrichmentField `json:"fields"`
	Concurrency int                     `json:"concurrency,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "rows are required")
		return
	}
	if req.EmailColumn == "" {
		writeError(w, http.StatusBadRequest, "emailColumn is required")
		return
	}
	if len(req.Fields) == 0 || len(req.Fields) > session.MaxRequestedFields {
		writeError(w, http.StatusBadRequest, "between 1 and 10 fields are required")
		return
	}
	for i := range req.Fields {
		if req.Fields[i].Name == "" {
			writeError(w, http.StatusBadRequest, "every field needs a name")
			return
		}
		if req.Fields[i].Type == "" {
			req.Fields[i].Type = model.FieldTypeString
		}
	}

	events := s.scheduler.Run(r.Context(), session.Request{
		SessionID: req.SessionID,
		Rows: model.RowSet{
			Columns:     req.Columns,
			EmailColumn: req.EmailColumn,
			NameColumn:  req.NameColumn,
			Rows:        req.Rows,
		},
		Fields:      req.Fields,
		Concurrency: req.Concurrency,
	})

	streamEvents(w, r, events)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.registry.Cancel(id) {
		zap.L().Info("session cancelled", zap.String("session_id", id))
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling", "sessionId": id})
		return
	}
	writeError(w, http.StatusNotFound, "no active session with that id")
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "session persistence is disabled")
		return
	}

	id := chi.URLParam(r, "id")
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		zap.L().Error("get session", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	rows, err := s.store.ListSessionRows(r.Context(), id)
	if err != nil {
		zap.L().Error("list session rows", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load session rows")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess,
		"rows":    rows,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
