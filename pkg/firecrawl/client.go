// Package firecrawl is a minimal client for the Firecrawl crawl API.
//
// The start-crawl endpoint answers in more than one shape: a handle for a
// background job (under "id" or "job_id") or, for small sites, an immediate
// completed payload. Both are decoded once, at this boundary, into CrawlJob
// so callers never probe response shapes themselves.
package firecrawl

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

// Default base URL for the Firecrawl v1 API.
const defaultBaseURL = "https://api.firecrawl.dev/v1"

// Crawl job statuses reported by the service.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Client defines the Firecrawl operations used by the orchestrator.
type Client interface {
	Crawl(ctx context.Context, req CrawlRequest) (*CrawlJob, error)
	GetCrawlStatus(ctx context.Context, id string) (*CrawlStatus, error)
}

// ScrapeOptions controls per-page extraction during a crawl.
type ScrapeOptions struct {
	Formats         []string `json:"formats,omitempty"`
	OnlyMainContent bool     `json:"onlyMainContent,omitempty"`
}

// CrawlRequest is the body for POST /crawl.
type CrawlRequest struct {
	URL           string         `json:"url"`
	Limit         int            `json:"limit,omitempty"`
	MaxDepth      int            `json:"maxDepth,omitempty"`
	ScrapeOptions *ScrapeOptions `json:"scrapeOptions,omitempty"`
}

// CrawlJob is the canonical decode of a start-crawl response.
type CrawlJob struct {
	// ID is the server-issued job handle. Empty when the crawl completed
	// immediately (or when the response carried no recognizable handle).
	ID string

	// Status and Data are populated on the immediate-completion path.
	Status    string
	Completed int
	Total     int
	Data      []PageData
}

// Immediate reports whether the crawl finished within the start response,
// with no background job to poll.
func (j *CrawlJob) Immediate() bool {
	return j.Status == StatusCompleted
}

// UnmarshalJSON accepts both known response shapes: handle issuance
// ("id" preferred, "job_id" fallback) and immediate completion.
func (j *CrawlJob) UnmarshalJSON(b []byte) error {
	var aux struct {
		Success   bool       `json:"success"`
		Status    string     `json:"status"`
		ID        string     `json:"id"`
		JobID     string     `json:"job_id"`
		Completed int        `json:"completed"`
		Total     int        `json:"total"`
		Data      []PageData `json:"data"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	j.ID = aux.ID
	if j.ID == "" {
		j.ID = aux.JobID
	}
	j.Status = aux.Status
	j.Completed = aux.Completed
	j.Total = aux.Total
	j.Data = aux.Data
	return nil
}

// CrawlStatus is the response from GET /crawl/{id}.
type CrawlStatus struct {
	Status    string     `json:"status"`
	Completed int        `json:"completed"`
	Total     int        `json:"total"`
	Data      []PageData `json:"data"`
	Error     string     `json:"error,omitempty"`
}

// PageMetadata holds page-level metadata extracted by the crawler.
type PageMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// PageData represents a single page result from Firecrawl.
type PageData struct {
	URL      string       `json:"url"`
	Markdown string       `json:"markdown,omitempty"`
	HTML     string       `json:"html,omitempty"`
	Metadata PageMetadata `json:"metadata,omitzero"`
}

// UnmarshalJSON accepts metadata either nested under "metadata" or flattened
// onto the page item ("title"/"description" at the top level), preferring the
// nested form when both are present.
func (p *PageData) UnmarshalJSON(b []byte) error {
	var aux struct {
		URL         string       `json:"url"`
		Markdown    string       `json:"markdown"`
		HTML        string       `json:"html"`
		Metadata    PageMetadata `json:"metadata"`
		Title       string       `json:"title"`
		Description string       `json:"description"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p.URL = aux.URL
	p.Markdown = aux.Markdown
	p.HTML = aux.HTML
	p.Metadata = aux.Metadata
	if p.Metadata.Title == "" {
		p.Metadata.Title = aux.Title
	}
	if p.Metadata.Description == "" {
		p.Metadata.Description = aux.Description
	}
	return nil
}

// APIError is returned when Firecrawl responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firecrawl: HTTP %d: %s", e.StatusCode, e.Body)
}

// CrawlFailedError indicates the service explicitly reported a failed crawl.
type CrawlFailedError struct {
	ID     string
	Reason string
}

func (e *CrawlFailedError) Error() string {
	return fmt.Sprintf("firecrawl: crawl %s failed: %s", e.ID, e.Reason)
}

// ErrNoCrawlID is returned when a start response carries neither an immediate
// completion nor a recognizable job handle.
var ErrNoCrawlID = eris.New("firecrawl: could not extract crawl job id from response")

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default outbound request rate limit.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Firecrawl client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl starts a crawl. The returned CrawlJob either carries the completed
// payload (Immediate) or a handle for GetCrawlStatus; a response with neither
// is ErrNoCrawlID.
func (c *httpClient) Crawl(ctx context.Context, req CrawlRequest) (*CrawlJob, error) {
	var job CrawlJob
	if err := c.post(ctx, "/crawl", req, &job); err != nil {
		return nil, eris.Wrap(err, "firecrawl: start crawl")
	}
	if !job.Immediate() && job.ID == "" {
		return nil, ErrNoCrawlID
	}
	return &job, nil
}

func (c *httpClient) GetCrawlStatus(ctx context.Context, id string) (*CrawlStatus, error) {
	var status CrawlStatus
	if err := c.get(ctx, fmt.Sprintf("/crawl/%s", id), &status); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("firecrawl: get crawl status %s", id))
	}
	return &status, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return eris.Wrap(err, "rate limit wait")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
