// Package snov provides access to the Snov.io profile and email
// verification APIs using OAuth client-credentials auth.
package snov

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.snov.io"

// Client performs person lookups and email verification.
type Client interface {
	ProfileByEmail(ctx context.Context, email string) (*Profile, error)
	VerifyEmail(ctx context.Context, email string) (*Verification, error)
}

// Profile is Snov's person record for an email.
type Profile struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Position    string `json:"position"`
	CompanyName string `json:"companyName"`
	Country     string `json:"country"`
	LinkedInURL string `json:"source_page"`
}

// Verification is the deliverability result for one email.
type Verification struct {
	Email  string `json:"email"`
	Status string `json:"status"` // valid | not_valid | catch_all | unknown
	Score  int    `json:"score"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("snov: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
		c.tokens.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
		c.tokens.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	tokens  *tokenSource
}

// NewClient creates a Snov API client with the given OAuth credentials.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	hc := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    hc,
		tokens:  newTokenSource(clientID, clientSecret, defaultBaseURL, hc),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	var resp struct {
		Success bool     `json:"success"`
		Data    *Profile `json:"data"`
	}
	params := url.Values{"email": {email}}
	if err := c.postForm(ctx, "/v1/get-profile-by-email", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, nil
	}
	return resp.Data, nil
}

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*Verification, error) {
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Email        string `json:"email"`
			Result       string `json:"result"`
			SMTPStatus   string `json:"smtp_status"`
			IsValid      bool   `json:"is_valid_format"`
			DeliverScore int    `json:"deliverability_score"`
		} `json:"data"`
	}
	params := url.Values{"email": {email}}
	if err := c.postForm(ctx, "/v1/get-emails-verification-status", params, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, nil
	}
	status := resp.Data.Result
	if status == "" {
		status = resp.Data.SMTPStatus
	}
	return &Verification{
		Email:  resp.Data.Email,
		Status: status,
		Score:  resp.Data.DeliverScore,
	}, nil
}

func (c *httpClient) postForm(ctx context.Context, path string, params url.Values, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return eris.Wrap(err, "snov: create request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "snov: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "snov: read response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Token may have been revoked server-side; drop it so the next call
		// refreshes.
		c.tokens.Invalidate()
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "snov: unmarshal response")
	}
	return nil
}
