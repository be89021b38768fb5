package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pitch-intel/internal/cache"
	"github.com/sells-group/pitch-intel/internal/company"
	"github.com/sells-group/pitch-intel/internal/jobs"
	"github.com/sells-group/pitch-intel/internal/pipeline"
	"github.com/sells-group/pitch-intel/internal/prompt"
	"github.com/sells-group/pitch-intel/pkg/firecrawl"
	"github.com/sells-group/pitch-intel/pkg/perplexity"
)

// appEnv bundles the wired application components shared by the commands.
type appEnv struct {
	jobs      *jobs.Store
	queue     *jobs.Queue
	runner    *pipeline.Runner
	companies *company.Store
	prompts   *prompt.Store
	cache     *cache.CrawlCache
}

// initApp wires stores, clients, and the runner from the loaded config.
// A cache that fails to open is logged and skipped, not fatal.
func initApp() (*appEnv, error) {
	companyStore, err := company.NewStore(cfg.Store.DataDir)
	if err != nil {
		return nil, eris.Wrap(err, "init company store")
	}

	promptStore, err := prompt.NewStore(cfg.Prompts.Dir)
	if err != nil {
		return nil, eris.Wrap(err, "init prompt store")
	}

	var crawlCache *cache.CrawlCache
	if cfg.Store.CachePath != "" {
		crawlCache, err = cache.Open(cfg.Store.CachePath)
		if err != nil {
			zap.L().Warn("crawl cache unavailable, continuing without it",
				zap.String("path", cfg.Store.CachePath),
				zap.Error(err),
			)
			crawlCache = nil
		}
	}

	fcClient := firecrawl.NewClient(cfg.Firecrawl.Key,
		firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL),
	)
	pplxClient := perplexity.NewClient(cfg.Perplexity.Key,
		perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
		perplexity.WithModel(cfg.Perplexity.Model),
	)

	jobStore := jobs.NewStore()
	queue := jobs.NewQueue(cfg.Jobs.Workers, cfg.Jobs.QueueSize)
	runner := pipeline.NewRunner(cfg, jobStore, companyStore, promptStore, fcClient, pplxClient, crawlCache)

	return &appEnv{
		jobs:      jobStore,
		queue:     queue,
		runner:    runner,
		companies: companyStore,
		prompts:   promptStore,
		cache:     crawlCache,
	}, nil
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			zap.L().Warn("close crawl cache", zap.Error(err))
		}
	}
}
