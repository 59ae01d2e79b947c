package snov

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"
)

// expirySkew refreshes tokens this long before they actually expire so
// in-flight requests never race the server-side expiry.
const expirySkew = 60 * time.Second

// tokenSource caches an OAuth client-credentials access token and
// refreshes it on demand. Concurrent callers needing a refresh share
// one upstream request via singleflight.
type tokenSource struct {
	clientID     string
	clientSecret string
	baseURL      string
	http         *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time

	group   singleflight.Group
	nowFunc func() time.Time
}

func newTokenSource(clientID, clientSecret, baseURL string, hc *http.Client) *tokenSource {
	return &tokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		http:         hc,
		nowFunc:      time.Now,
	}
}

// Token returns a valid access token, refreshing if the cached one is
// missing or within the expiry skew.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	if ts.token != "" && ts.nowFunc().Before(ts.expires.Add(-expirySkew)) {
		token := ts.token
		ts.mu.Unlock()
		return token, nil
	}
	ts.mu.Unlock()

	v, err, _ := ts.group.Do("token", func() (any, error) {
		return ts.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next call refreshes.
func (ts *tokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.mu.Unlock()
}

func (ts *tokenSource) refresh(ctx context.Context) (string, error) {
	params := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {ts.clientID},
		"client_secret": {ts.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.baseURL+"/v1/oauth/access_token", strings.NewReader(params.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "snov: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "snov: request token")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "snov: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", eris.Wrap(err, "snov: unmarshal token response")
	}
	if tr.AccessToken == "" {
		return "", eris.New("snov: empty access token in response")
	}

	ts.mu.Lock()
	ts.token = tr.AccessToken
	ts.expires = ts.nowFunc().Add(time.Duration(tr.ExpiresIn) * time.Second)
	ts.mu.Unlock()

	return tr.AccessToken, nil
}
