package apify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/acts/apimaestro~linkedin-company-posts/run-sync-get-dataset-items", r.URL.Path)
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))

		var input map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "https://linkedin.com/company/acme", input["company_url"])
		assert.EqualValues(t, 10, input["limit"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[
			{"postUrl":"https://linkedin.com/posts/1","authorName":"Acme Corp","text":"We are hiring","postedAt":"2026-08-10","numReactions":42},
			{"postUrl":"https://linkedin.com/posts/2","authorName":"Acme Corp","text":"New product","postedAt":"2026-07-02","numReactions":120}
		]`))
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL))
	posts, err := c.CompanyPosts(context.Background(), "https://linkedin.com/company/acme", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "We are hiring", posts[0].Text)
	assert.Equal(t, 120, posts[1].Reactions)
}

func TestCompanyPostsDefaultLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var input map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.EqualValues(t, 20, input["limit"])
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL))
	posts, err := c.CompanyPosts(context.Background(), "https://linkedin.com/company/acme", 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCompanyPostsActorFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"type":"actor-failed"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-token", WithBaseURL(srv.URL))
	_, err := c.CompanyPosts(context.Background(), "https://linkedin.com/company/acme", 5)
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.HTTPStatus())
}
