package snov

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int64) {
	t.Helper()
	var tokenCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth/access_token" {
			atomic.AddInt64(&tokenCalls, 1)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
			assert.Equal(t, "id", r.FormValue("client_id"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok-123","expires_in":3600}`))
			return
		}
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		handler(w, r)
	}))
	return srv, &tokenCalls
}

func TestProfileByEmail(t *testing.T) {
	srv, tokenCalls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/get-profile-by-email", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "joao@empresa.com.br", r.FormValue("email"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"firstName": "Joao",
				"lastName": "Silva",
				"position": "Diretor",
				"companyName": "Empresa SA",
				"country": "Brazil"
			}
		}`))
	})
	defer srv.Close()

	c := NewClient("id", "secret", WithBaseURL(srv.URL))
	p, err := c.ProfileByEmail(context.Background(), "joao@empresa.com.br")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Joao", p.FirstName)
	assert.Equal(t, "Empresa SA", p.CompanyName)
	assert.EqualValues(t, 1, atomic.LoadInt64(tokenCalls))
}

func TestVerifyEmail(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/get-emails-verification-status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {"email":"joao@empresa.com.br","result":"valid","deliverability_score":93}
		}`))
	})
	defer srv.Close()

	c := NewClient("id", "secret", WithBaseURL(srv.URL))
	v, err := c.VerifyEmail(context.Background(), "joao@empresa.com.br")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "valid", v.Status)
	assert.Equal(t, 93, v.Score)
}

func TestTokenReusedAcrossCalls(t *testing.T) {
	srv, tokenCalls := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"firstName":"A"}}`))
	})
	defer srv.Close()

	c := NewClient("id", "secret", WithBaseURL(srv.URL))
	for i := 0; i < 3; i++ {
		_, err := c.ProfileByEmail(context.Background(), "a@b.com")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt64(tokenCalls))
}

func TestConcurrentRefreshSharesOneRequest(t *testing.T) {
	srv, tokenCalls := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"firstName":"A"}}`))
	})
	defer srv.Close()

	c := NewClient("id", "secret", WithBaseURL(srv.URL))

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := c.ProfileByEmail(context.Background(), "a@b.com")
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.EqualValues(t, 1, atomic.LoadInt64(tokenCalls))
}

func TestUnauthorizedInvalidatesToken(t *testing.T) {
	var apiCalls int64
	srv, tokenCalls := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt64(&apiCalls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"expired"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"firstName":"A"}}`))
	})
	defer srv.Close()

	c := NewClient("id", "secret", WithBaseURL(srv.URL))

	_, err := c.ProfileByEmail(context.Background(), "a@b.com")
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.HTTPStatus())

	// Next call fetches a fresh token.
	_, err = c.ProfileByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(tokenCalls))
}
