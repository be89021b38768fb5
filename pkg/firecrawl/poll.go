package firecrawl

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultPollInterval    = 10 * time.Second
	defaultPollMaxAttempts = 30
)

// ErrPollTimeout is returned when the attempt budget is exhausted before the
// crawl reaches a terminal status.
var ErrPollTimeout = eris.New("firecrawl: crawl polling timed out")

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval    time.Duration
	maxAttempts int
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		interval:    defaultPollInterval,
		maxAttempts: defaultPollMaxAttempts,
	}
}

// WithPollInterval overrides the fixed delay between status checks.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithMaxAttempts overrides the status-check attempt budget.
func WithMaxAttempts(n int) PollOption {
	return func(c *pollConfig) {
		c.maxAttempts = n
	}
}

// PollCrawl checks the crawl status at a fixed interval until the crawl
// completes, fails, or the attempt budget runs out. A transient status-check
// error is inconclusive: it is retried after the same interval and still
// counts against the budget. The defaults (10s x 30 attempts) bound a crawl
// at roughly five minutes.
func PollCrawl(ctx context.Context, client Client, id string, opts ...PollOption) (*CrawlStatus, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if attempt%5 == 1 {
			zap.L().Debug("firecrawl: checking crawl status",
				zap.String("crawl_id", id),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", cfg.maxAttempts),
			)
		}

		status, err := client.GetCrawlStatus(ctx, id)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("firecrawl: poll crawl %s", id))
			}
			zap.L().Warn("firecrawl: status check failed, retrying",
				zap.String("crawl_id", id),
				zap.Error(err),
			)
		case status.Status == StatusCompleted:
			return status, nil
		case status.Status == StatusFailed:
			reason := status.Error
			if reason == "" {
				reason = "unknown error"
			}
			return nil, &CrawlFailedError{ID: id, Reason: reason}
		default:
			if status.Total > 0 {
				zap.L().Debug("firecrawl: crawl in progress",
					zap.String("crawl_id", id),
					zap.Int("completed", status.Completed),
					zap.Int("total", status.Total),
				)
			}
		}

		// No sleep after the final attempt.
		if attempt == cfg.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), fmt.Sprintf("firecrawl: poll crawl %s", id))
		case <-time.After(cfg.interval):
		}
	}

	return nil, eris.Wrap(ErrPollTimeout, fmt.Sprintf("crawl %s did not finish within %d attempts", id, cfg.maxAttempts))
}
