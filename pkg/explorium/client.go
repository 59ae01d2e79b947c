// Package explorium wraps the Explorium business enrichment API for
// firmographics, technographics and competitive landscape data.
package explorium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.explorium.ai"

// Default request pacing; override with WithRateLimit.
const (
	defaultRateLimit = 5
	defaultRateBurst = 5
)

// Client enriches businesses by domain.
type Client interface {
	MatchBusiness(ctx context.Context, domain string) (*Business, error)
	Technographics(ctx context.Context, businessID string) ([]Technology, error)
}

// Business is Explorium's firmographic record.
type Business struct {
	BusinessID  string   `json:"business_id"`
	Name        string   `json:"name"`
	Domain      string   `json:"domain"`
	Industry    string   `json:"industry"`
	Country     string   `json:"country_name"`
	SizeRange   string   `json:"number_of_employees_range"`
	Competitors []string `json:"competitors"`
	LinkedInURL string   `json:"linkedin_url"`
}

// Technology is one detected stack entry.
type Technology struct {
	Name     string `json:"technology_name"`
	Category string `json:"category"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("explorium: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps outgoing request rate.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Explorium API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) MatchBusiness(ctx context.Context, domain string) (*Business, error) {
	req := map[string]any{
		"businesses_to_match": []map[string]string{{"domain": domain}},
	}
	var resp struct {
		MatchedBusinesses []Business `json:"matched_businesses"`
	}
	if err := c.post(ctx, "/v1/businesses/match", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.MatchedBusinesses) == 0 {
		return nil, nil
	}
	return &resp.MatchedBusinesses[0], nil
}

func (c *httpClient) Technographics(ctx context.Context, businessID string) ([]Technology, error) {
	req := map[string]any{
		"business_ids": []string{businessID},
		"enrichments":  []string{"technographics"},
	}
	var resp struct {
		Data []struct {
			Technologies []Technology `json:"technologies"`
		} `json:"data"`
	}
	if err := c.post(ctx, "/v1/businesses/enrich", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0].Technologies, nil
}

func (c *httpClient) post(ctx context.Context, path string, req, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "explorium: rate limiter wait")
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return eris.Wrap(err, "explorium: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "explorium: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api_key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "explorium: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "explorium: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "explorium: unmarshal response")
	}
	return nil
}
