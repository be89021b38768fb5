package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-api-key", WithBaseURL(srv.URL))
}

func TestCrawl(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		wantID        string
		wantImmediate bool
		wantErr       bool
		wantNoID      bool
		wantAPIErr    bool
		wantStatus    int
	}{
		{
			name: "handle under id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/crawl", r.URL.Path)
				assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req CrawlRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "https://example.com", req.URL)
				assert.Equal(t, 2, req.Limit)
				require.NotNil(t, req.ScrapeOptions)
				assert.Equal(t, []string{"markdown", "html"}, req.ScrapeOptions.Formats)

				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"success":true,"id":"crawl-123"}`))
			},
			wantID: "crawl-123",
		},
		{
			name: "handle under job_id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"success":true,"job_id":"crawl-456"}`))
			},
			wantID: "crawl-456",
		},
		{
			name: "immediate completion",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"status":"completed","total":1,"data":[{"url":"https://example.com","markdown":"# Hi"}]}`))
			},
			wantImmediate: true,
		},
		{
			name: "no recognizable handle",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"success":true}`))
			},
			wantErr:  true,
			wantNoID: true,
		},
		{
			name: "auth error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized"}`))
			},
			wantErr:    true,
			wantAPIErr: true,
			wantStatus: 401,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"boom"}`))
			},
			wantErr:    true,
			wantAPIErr: true,
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, tt.handler)

			job, err := c.Crawl(context.Background(), CrawlRequest{
				URL:      "https://example.com",
				Limit:    2,
				MaxDepth: 1,
				ScrapeOptions: &ScrapeOptions{
					Formats:         []string{"markdown", "html"},
					OnlyMainContent: true,
				},
			})

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantNoID {
					assert.ErrorIs(t, err, ErrNoCrawlID)
				}
				if tt.wantAPIErr {
					var apiErr *APIError
					require.ErrorAs(t, err, &apiErr)
					assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, job.ID)
			assert.Equal(t, tt.wantImmediate, job.Immediate())
			if tt.wantImmediate {
				require.Len(t, job.Data, 1)
				assert.Equal(t, "# Hi", job.Data[0].Markdown)
			}
		})
	}
}

func TestGetCrawlStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/crawl/crawl-123", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"scraping","completed":1,"total":3,"data":[]}`))
	})

	status, err := c.GetCrawlStatus(context.Background(), "crawl-123")
	require.NoError(t, err)
	assert.Equal(t, "scraping", status.Status)
	assert.Equal(t, 1, status.Completed)
	assert.Equal(t, 3, status.Total)
}

func TestPageDataUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantPage PageData
	}{
		{
			name:    "nested metadata",
			payload: `{"url":"https://a.test","markdown":"# A","metadata":{"title":"A Home","description":"About A"}}`,
			wantPage: PageData{
				URL:      "https://a.test",
				Markdown: "# A",
				Metadata: PageMetadata{Title: "A Home", Description: "About A"},
			},
		},
		{
			name:    "flattened metadata",
			payload: `{"url":"https://b.test","html":"<p>B</p>","title":"B Home","description":"About B"}`,
			wantPage: PageData{
				URL:      "https://b.test",
				HTML:     "<p>B</p>",
				Metadata: PageMetadata{Title: "B Home", Description: "About B"},
			},
		},
		{
			name:    "nested wins over flattened",
			payload: `{"url":"https://c.test","metadata":{"title":"Nested"},"title":"Flat"}`,
			wantPage: PageData{
				URL:      "https://c.test",
				Metadata: PageMetadata{Title: "Nested"},
			},
		},
		{
			name:     "no recognized fields",
			payload:  `{"statusCode":200}`,
			wantPage: PageData{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page PageData
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &page))
			assert.Equal(t, tt.wantPage, page)
		})
	}
}
