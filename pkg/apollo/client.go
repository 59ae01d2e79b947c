// Package apollo provides access to the Apollo.io organization and people
// match APIs.
package apollo

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

const defaultBaseURL = "https://api.apollo.io/api/v1"

// defaultRateLimit paces requests to stay inside Apollo's per-minute
// quota. Override with WithRateLimit.
const defaultRateLimit = 5

// Client performs organization enrichment and people matching.
type Client interface {
	EnrichOrganization(ctx context.Context, req OrganizationRequest) (*Organization, error)
	MatchPerson(ctx context.Context, email string) (*Person, error)
}

// OrganizationRequest identifies the company to enrich.
type OrganizationRequest struct {
	Domain string `json:"domain,omitempty"`
	Name   string `json:"organization_name,omitempty"`
}

// Organization is Apollo's company record, trimmed to the fields we use.
type Organization struct {
	Name          string   `json:"name"`
	PrimaryDomain string   `json:"primary_domain"`
	WebsiteURL    string   `json:"website_url"`
	Industry      string   `json:"industry"`
	Country       string   `json:"country"`
	LinkedInURL   string   `json:"linkedin_url"`
	Competitors   []string `json:"competitors"`
}

// Person is Apollo's people-match record.
type Person struct {
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Title        string        `json:"title"`
	LinkedInURL  string        `json:"linkedin_url"`
	Country      string        `json:"country"`
	Organization *Organization `json:"organization"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("apollo: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps requests per second to the Apollo API.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Apollo API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(defaultRateLimit, defaultRateLimit),
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

func (c *httpClient) EnrichOrganization(ctx context.Context, req OrganizationRequest) (*Organization, error) {
	var resp struct {
		Organization *Organization `json:"organization"`
	}
	if err := c.post(ctx, "/organizations/enrich", req, &resp); err != nil {
		return nil, err
	}
	return resp.Organization, nil
}

func (c *httpClient) MatchPerson(ctx context.Context, email string) (*Person, error) {
	var resp struct {
		Person *Person `json:"person"`
	}
	body := map[string]string{"email": email}
	if err := c.post(ctx, "/people/match", body, &resp); err != nil {
		return nil, err
	}
	return resp.Person, nil
}

func (c *httpClient) post(ctx context.Context, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "apollo: rate limit")
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "apollo: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "apollo: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "apollo: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "apollo: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "apollo: unmarshal response")
	}
	return nil
}
