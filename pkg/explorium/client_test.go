package explorium

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestMatchBusiness(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/businesses/match", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("api_key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		matches := body["businesses_to_match"].([]any)
		require.Len(t, matches, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"matched_businesses": [{
				"business_id": "biz-1",
				"name": "Acme Corp",
				"domain": "acme.com",
				"industry": "manufacturing",
				"country_name": "United States",
				"competitors": ["Globex", "Initech"]
			}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	b, err := c.MatchBusiness(context.Background(), "acme.com")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "biz-1", b.BusinessID)
	assert.Equal(t, []string{"Globex", "Initech"}, b.Competitors)
}

func TestMatchBusinessNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"matched_businesses": []}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	b, err := c.MatchBusiness(context.Background(), "nosuch.example")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestTechnographics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/businesses/enrich", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [{
				"technologies": [
					{"technology_name": "Salesforce", "category": "CRM"},
					{"technology_name": "AWS", "category": "Cloud"}
				]
			}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	techs, err := c.Technographics(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Len(t, techs, 2)
	assert.Equal(t, "Salesforce", techs[0].Name)
	assert.Equal(t, "Cloud", techs[1].Category)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.MatchBusiness(context.Background(), "acme.com")
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.HTTPStatus())
}

func TestRateLimiterOnByDefault(t *testing.T) {
	c := NewClient("test-key").(*httpClient)

	require.NotNil(t, c.limiter)
	assert.Equal(t, rate.Limit(defaultRateLimit), c.limiter.Limit())
	assert.Equal(t, defaultRateBurst, c.limiter.Burst())
}

func TestRateLimiterPacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"matched_businesses":[]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0.001, 1))

	// Burst of 1: the first call passes, the second cannot acquire a
	// token within the deadline.
	_, err := c.MatchBusiness(context.Background(), "acme.com")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.MatchBusiness(ctx, "acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter wait")
}

func TestRateLimiterZeroDisables(t *testing.T) {
	c := NewClient("test-key", WithRateLimit(0, 0)).(*httpClient)

	// Zero config keeps the default limiter rather than installing one
	// that can never grant a token.
	require.NotNil(t, c.limiter)
	assert.Equal(t, rate.Limit(defaultRateLimit), c.limiter.Limit())
}
