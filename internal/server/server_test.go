package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/discover"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/session"
	"github.com/sells-group/enrich-cli/internal/store"
)

type stubDiscoverer struct {
	delay time.Duration
}

func (d *stubDiscoverer) Discover(ctx context.Context, req discover.Request) *model.CompanyAnalysis {
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
		}
	}
	return &model.CompanyAnalysis{
		SignalReport: model.SignalReport{CompanyName: "Acme", CompanyDomain: "acme.com"},
		Source:       model.SourceApollo,
	}
}

type stubReconciler struct{}

func (stubReconciler) Reconcile(analysis *model.CompanyAnalysis, fields []model.EnrichmentField) map[string]model.EnrichmentResult {
	out := make(map[string]model.EnrichmentResult, len(fields))
	for _, f := range fields {
		out[f.Name] = model.EnrichmentResult{Value: analysis.CompanyName, Confidence: 0.9, Source: analysis.Source}
	}
	return out
}

func newTestServer(t *testing.T, st store.Store, opts ...session.Option) (*Server, *session.Registry) {
	t.Helper()
	registry := session.NewRegistry()
	sched := session.New(&stubDiscoverer{}, stubReconciler{}, nil, registry, opts...)
	return New(sched, registry, st), registry
}

func sessionBody(t *testing.T, rows []model.Row, fields []model.EnrichmentField) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(createSessionRequest{
		SessionID:   "sess-http",
		Columns:     []string{"Email"},
		EmailColumn: "Email",
		Rows:        rows,
		Fields:      fields,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func nameField() []model.EnrichmentField {
	return []model.EnrichmentField{{Name: "companyName", DisplayName: "Company Name", Type: model.FieldTypeString}}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestFieldsListsCanonicalsWithAliases(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fields", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Fields []fieldInfo `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Fields)

	byName := map[string][]string{}
	for _, f := range resp.Fields {
		byName[f.Canonical] = f.Aliases
	}
	require.Contains(t, byName, "company_name")
	assert.Contains(t, byName["company_name"], "empresa")
}

func TestCreateSessionStreamsEvents(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	body := sessionBody(t, []model.Row{{"Email": "joao@acme.com.br"}}, nameField())
	req := httptest.NewRequest(http.MethodPost, "/sessions", body)
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	types := eventTypes(t, rec.Body.String())
	require.NotEmpty(t, types)
	assert.Equal(t, "session", types[0])
	assert.Contains(t, types, "result")
	assert.Equal(t, "complete", types[len(types)-1])
}

func TestCreateSessionResultPayload(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	body := sessionBody(t, []model.Row{{"Email": "joao@acme.com.br"}}, nameField())
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions", body))

	var result *model.RowEnrichmentResult
	for _, data := range eventData(t, rec.Body.String()) {
		var ev session.Event
		require.NoError(t, json.Unmarshal([]byte(data), &ev))
		if ev.Type == session.EventRowResult {
			result = ev.Result
		}
	}
	require.NotNil(t, result)
	assert.Equal(t, model.RowStatusCompleted, result.Status)
	assert.Equal(t, "Acme", result.Enrichments["companyName"].Value)
}

func TestCreateSessionValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad json", "{", "invalid request body"},
		{"no rows", `{"emailColumn":"Email","fields":[{"name":"x"}]}`, "rows are required"},
		{"no email column", `{"rows":[{"Email":"a@b.com"}],"fields":[{"name":"x"}]}`, "emailColumn is required"},
		{"no fields", `{"emailColumn":"Email","rows":[{"Email":"a@b.com"}],"fields":[]}`, "between 1 and 10"},
		{"unnamed field", `{"emailColumn":"Email","rows":[{"Email":"a@b.com"}],"fields":[{"displayName":"X"}]}`, "needs a name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(tt.body))
			srv.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestCancelSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/unknown/cancel", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelActiveSession(t *testing.T) {
	registry := session.NewRegistry()
	sched := session.New(&stubDiscoverer{delay: 5 * time.Second}, stubReconciler{}, nil, registry)
	srv := New(sched, registry, nil)

	events := sched.Run(context.Background(), session.Request{
		SessionID:   "sess-cancel",
		Rows:        model.RowSet{Columns: []string{"Email"}, EmailColumn: "Email", Rows: []model.Row{{"Email": "a@b.com"}}},
		Fields:      nameField(),
		Concurrency: 1,
	})

	// Wait for the session to register before cancelling over HTTP.
	require.Eventually(t, func() bool { return registry.Active("sess-cancel") }, time.Second, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/sess-cancel/cancel", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var last session.Event
	for ev := range events {
		last = ev
	}
	assert.Equal(t, session.EventCancelled, last.Type)
}

func TestGetSessionWithoutStore(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/sess-1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "persistence is disabled")
}

func TestGetSessionFromStore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.CreateSession(ctx, "sess-1", 1))
	require.NoError(t, st.CreateRowResult(ctx, "sess-1", model.RowEnrichmentResult{
		RowIndex:     0,
		OriginalData: model.Row{"Email": "a@b.com"},
		Status:       model.RowStatusCompleted,
	}))

	srv, _ := newTestServer(t, st)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/sess-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Session store.Session               `json:"session"`
		Rows    []model.RowEnrichmentResult `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.Session.ID)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, model.RowStatusCompleted, resp.Rows[0].Status)
}

func TestGetSessionMissing(t *testing.T) {
	srv, _ := newTestServer(t, newTestStore(t))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/ghost", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "session not found")
}

// helpers

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func eventTypes(t *testing.T, stream string) []string {
	t.Helper()
	var types []string
	sc := bufio.NewScanner(strings.NewReader(stream))
	for sc.Scan() {
		if after, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
			types = append(types, after)
		}
	}
	require.NoError(t, sc.Err())
	return types
}

func eventData(t *testing.T, stream string) []string {
	t.Helper()
	var payloads []string
	sc := bufio.NewScanner(strings.NewReader(stream))
	for sc.Scan() {
		if after, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
			payloads = append(payloads, after)
		}
	}
	require.NoError(t, sc.Err())
	return payloads
}
