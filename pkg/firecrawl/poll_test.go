package firecrawl

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient implements Client for testing the poll loop.
type mockClient struct {
	crawlFunc       func(ctx context.Context, req CrawlRequest) (*CrawlJob, error)
	crawlStatusFunc func(ctx context.Context, id string) (*CrawlStatus, error)
}

func (m *mockClient) Crawl(ctx context.Context, req CrawlRequest) (*CrawlJob, error) {
	return m.crawlFunc(ctx, req)
}

func (m *mockClient) GetCrawlStatus(ctx context.Context, id string) (*CrawlStatus, error) {
	return m.crawlStatusFunc(ctx, id)
}

func TestPollCrawl_CompletesImmediately(t *testing.T) {
	mock := &mockClient{
		crawlStatusFunc: func(ctx context.Context, id string) (*CrawlStatus, error) {
			return &CrawlStatus{
				Status: StatusCompleted,
				Total:  1,
				Data: []PageData{
					{URL: "https://example.com", Markdown: "# Home"},
				},
			}, nil
		},
	}

	status, err := PollCrawl(context.Background(), mock, "crawl-123",
		WithPollInterval(time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Len(t, status.Data, 1)
}

func TestPollCrawl_CompletesAfterRetries(t *testing.T) {
	var calls atomic.Int32
	mock := &mockClient{
		crawlStatusFunc: func(ctx context.Context, id string) (*CrawlStatus, error) {
			if calls.Add(1) < 3 {
				return &CrawlStatus{Status: "scraping", Completed: 1, Total: 2}, nil
			}
			return &CrawlStatus{
				Status: StatusCompleted,
				Total:  2,
				Data: []PageData{
					{URL: "https://example.com", Markdown: "# Home"},
					{URL: "https://example.com/about", Markdown: "# About"},
				},
			}, nil
		},
	}

	status, err := PollCrawl(context.Background(), mock, "crawl-456",
		WithPollInterval(time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.EqualValues(t, 3, calls.Load())
}

func TestPollCrawl_Failed(t *testing.T) {
	mock := &mockClient{
		crawlStatusFunc: func(ctx context.Context, id string) (*CrawlStatus, error) {
			return &CrawlStatus{Status: StatusFailed, Error: "target unreachable"}, nil
		},
	}

	_, err := PollCrawl(context.Background(), mock, "crawl-789",
		WithPollInterval(time.Millisecond),
	)
	require.Error(t, err)
	var failed *CrawlFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "target unreachable", failed.Reason)
}

func TestPollCrawl_FailedWithoutReason(t *testing.T) {
	mock := &mockClient{
		crawlStatusFunc: func(ctx context.Context, id string) (*CrawlStatus, error) {
			return &CrawlStatus{Status: StatusFailed}, nil
		},
	}

	_, err := PollCrawl(context.Background(), mock, "crawl-789",
		WithPollInterval(time.Millisecond),
	)
	var failed *CrawlFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "unknown error", failed.Reason)
}

func TestPollCrawl_TransientErrorsRetriedAndCounted(t *testing.T) {
	var calls atomic.Int32
	mock := &mockClient{
		crawlStatusFunc: func(ctx context.Context, id string) (*CrawlStatus, error) {
			if calls.Add(1) < 3 {
				return nil, eris.New("connection reset")
			}
			return &CrawlStatus{Status: StatusCompleted}, nil
		},
	}

	status, err := PollCrawl(context.Background(), mock, "crawl-123",
		WithPollInterval(time.Millisecond),
		WithMaxAttempts(5),
	)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.EqualValues(t, 3, calls.Load())
}

func TestPollCrawl_TimesOutAfterBudget(t *testing.T) {
	var calls atomic.Int32
	mock := &mockClient{
		crawlStatusFunc: func(ctx context.Context, id string) (*CrawlStatus, error) {
			calls.Add(1)
			return &CrawlStatus{Status: "scraping"}, nil
		},
	}

	_, err := PollCrawl(context.Background(), mock, "crawl-slow",
		WithPollInterval(time.Millisecond),
		WithMaxAttempts(7),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPollTimeout)
	// Exactly the attempt budget: not fewer, not more.
	assert.EqualValues(t, 7, calls.Load())
}

func TestPollCrawl_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockClient{
		crawlStatusFunc: func(ctx context.Context, id string) (*CrawlStatus, error) {
			cancel()
			return &CrawlStatus{Status: "scraping"}, nil
		},
	}

	_, err := PollCrawl(ctx, mock, "crawl-cancelled",
		WithPollInterval(time.Minute),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
