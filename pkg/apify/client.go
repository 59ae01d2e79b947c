// Package apify runs Apify actors synchronously and collects their
// dataset output. We use it for LinkedIn company post scraping.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.apify.com"

// DefaultPostsActor is the LinkedIn company posts scraper actor ID.
const DefaultPostsActor = "apimaestro~linkedin-company-posts"

// Client runs actors and returns their dataset items.
type Client interface {
	CompanyPosts(ctx context.Context, linkedInURL string, limit int) ([]Post, error)
}

// Post is one scraped LinkedIn company post.
type Post struct {
	URL       string `json:"postUrl"`
	Author    string `json:"authorName"`
	Text      string `json:"text"`
	PostedAt  string `json:"postedAt"`
	Reactions int    `json:"numReactions"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("apify: unexpected status %d: %s", e.StatusCode, e.Body)
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

// WithActor overrides the posts scraper actor ID.
func WithActor(actorID string) Option {
	return func(c *httpClient) { c.actorID = actorID }
}

type httpClient struct {
	token   string
	baseURL string
	actorID string
	http    *http.Client
}

// NewClient creates an Apify API client. Actor runs can take minutes,
// so the HTTP timeout is generous; callers bound it with ctx.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		actorID: DefaultPostsActor,
		http: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) CompanyPosts(ctx context.Context, linkedInURL string, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	input := map[string]any{
		"company_url": linkedInURL,
		"limit":       limit,
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "apify: marshal actor input")
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		c.baseURL, url.PathEscape(c.actorID), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "apify: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "apify: run actor")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "apify: read response")
	}
	// run-sync endpoints answer 201 on success.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var posts []Post
	if err := json.Unmarshal(respBody, &posts); err != nil {
		return nil, eris.Wrap(err, "apify: unmarshal dataset items")
	}
	return posts, nil
}
