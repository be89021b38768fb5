// Package pipeline executes scrape-and-research jobs: it drives the crawl
// and research branches concurrently, normalizes the crawl payload, and
// merges the aggregate into the company store.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pitch-intel/internal/cache"
	"github.com/sells-group/pitch-intel/internal/company"
	"github.com/sells-group/pitch-intel/internal/config"
	"github.com/sells-group/pitch-intel/internal/jobs"
	"github.com/sells-group/pitch-intel/internal/model"
	"github.com/sells-group/pitch-intel/internal/prompt"
	"github.com/sells-group/pitch-intel/pkg/firecrawl"
	"github.com/sells-group/pitch-intel/pkg/perplexity"
)

// Runner executes one job end-to-end and records its terminal state.
type Runner struct {
	cfg        *config.Config
	jobs       *jobs.Store
	companies  *company.Store
	prompts    *prompt.Store
	firecrawl  firecrawl.Client
	perplexity perplexity.Client
	crawlCache *cache.CrawlCache // optional
}

// NewRunner wires a Runner. crawlCache may be nil to disable caching.
func NewRunner(
	cfg *config.Config,
	jobStore *jobs.Store,
	companyStore *company.Store,
	promptStore *prompt.Store,
	fcClient firecrawl.Client,
	pplxClient perplexity.Client,
	crawlCache *cache.CrawlCache,
) *Runner {
	return &Runner{
		cfg:        cfg,
		jobs:       jobStore,
		companies:  companyStore,
		prompts:    promptStore,
		firecrawl:  fcClient,
		perplexity: pplxClient,
		crawlCache: crawlCache,
	}
}

// crawlOutcome is the usable payload of the crawl branch.
type crawlOutcome struct {
	// crawlJobID is the server-issued handle, or a local marker when the
	// crawl completed inside the start response or was served from cache.
	crawlJobID string
	pages      []firecrawl.PageData
}

// Run drives a job to a terminal state. A crawl-branch failure fails the
// job; a research-branch failure is absorbed into the aggregate. The two
// branches run concurrently and are joined before any result processing.
func (r *Runner) Run(ctx context.Context, job model.Job) {
	log := zap.L().With(
		zap.String("job_id", job.ID),
		zap.String("company", job.CompanyName),
		zap.String("url", job.URL),
	)

	if err := r.jobs.MarkRunning(job.ID); err != nil {
		log.Error("could not mark job running", zap.Error(err))
		return
	}
	log.Info("job started")

	var (
		crawl    *crawlOutcome
		research model.ResearchResult
	)

	// Both branches must report before the join; a failure in one never
	// cancels the other, so no shared group context.
	g := new(errgroup.Group)
	g.SetLimit(2)
	g.Go(func() error {
		var err error
		crawl, err = r.runCrawl(ctx, job)
		return err
	})
	g.Go(func() error {
		research = r.Research(ctx, job.CompanyName)
		return nil
	})

	if err := g.Wait(); err != nil {
		r.failJob(job.ID, err, log)
		return
	}

	records := Normalize(crawl.pages)

	agg := &model.AggregateResult{
		JobID:              job.ID,
		CrawlJobID:         crawl.crawlJobID,
		URL:                job.URL,
		CompanyName:        job.CompanyName,
		ScrapedAt:          time.Now().UTC(),
		ProcessedContent:   records,
		ContentCount:       len(records),
		PerplexityResearch: research,
		Status:             string(model.JobStatusCompleted),
	}

	if _, err := r.companies.AttachScrapedData(job.CompanyName, agg); err != nil {
		r.failJob(job.ID, eris.Wrap(err, "merge scraped data"), log)
		return
	}

	if err := r.jobs.Complete(job.ID, agg); err != nil {
		log.Error("could not mark job completed", zap.Error(err))
		return
	}

	log.Info("job completed",
		zap.Int("content_count", agg.ContentCount),
		zap.Bool("research_success", research.Success),
	)
}

// runCrawl produces the crawl payload or a fatal error. Order: cache lookup,
// crawl dispatch, then either the immediate payload or a polled one.
func (r *Runner) runCrawl(ctx context.Context, job model.Job) (*crawlOutcome, error) {
	if r.cfg.Firecrawl.Key == "" {
		return nil, eris.New("firecrawl api key not configured")
	}

	if r.crawlCache != nil {
		pages, err := r.crawlCache.Get(ctx, job.URL)
		if err != nil {
			zap.L().Warn("crawl cache lookup failed", zap.String("url", job.URL), zap.Error(err))
		}
		if len(pages) > 0 {
			zap.L().Info("crawl served from cache",
				zap.String("url", job.URL),
				zap.Int("pages", len(pages)),
			)
			return &crawlOutcome{crawlJobID: "cache-" + job.ID, pages: pages}, nil
		}
	}

	start, err := r.firecrawl.Crawl(ctx, firecrawl.CrawlRequest{
		URL:      job.URL,
		Limit:    r.cfg.Firecrawl.MaxPages,
		MaxDepth: r.cfg.Firecrawl.MaxDepth,
		ScrapeOptions: &firecrawl.ScrapeOptions{
			Formats:         []string{"markdown", "html"},
			OnlyMainContent: true,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "start crawl")
	}

	var out crawlOutcome
	if start.Immediate() {
		zap.L().Info("crawl completed immediately",
			zap.String("url", job.URL),
			zap.Int("total", start.Total),
		)
		out = crawlOutcome{crawlJobID: "immediate-" + job.ID, pages: start.Data}
	} else {
		status, pollErr := firecrawl.PollCrawl(ctx, r.firecrawl, start.ID,
			firecrawl.WithPollInterval(time.Duration(r.cfg.Crawl.PollIntervalSecs)*time.Second),
			firecrawl.WithMaxAttempts(r.cfg.Crawl.PollMaxAttempts),
		)
		if pollErr != nil {
			return nil, pollErr
		}
		out = crawlOutcome{crawlJobID: start.ID, pages: status.Data}
	}

	if r.crawlCache != nil && len(out.pages) > 0 {
		ttl := time.Duration(r.cfg.Crawl.CacheTTLHours) * time.Hour
		if ttl <= 0 {
			ttl = 4 * time.Hour
		}
		if cacheErr := r.crawlCache.Set(ctx, job.URL, out.pages, ttl); cacheErr != nil {
			zap.L().Warn("crawl cache write failed", zap.String("url", job.URL), zap.Error(cacheErr))
		}
	}

	return &out, nil
}

func (r *Runner) failJob(jobID string, cause error, log *zap.Logger) {
	log.Error("job failed", zap.Error(cause))
	if err := r.jobs.Fail(jobID, cause.Error()); err != nil {
		log.Error("could not mark job failed", zap.Error(err))
	}
}
