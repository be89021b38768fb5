package model

import "time"

// ContentKind classifies a normalized content snippet.
type ContentKind string

const (
	ContentKindMarkdown    ContentKind = "markdown"
	ContentKindHTML        ContentKind = "html"
	ContentKindTitle       ContentKind = "title"
	ContentKindDescription ContentKind = "description"
)

// Content length caps applied during normalization. Truncation happens before
// a record is stored, never after.
const (
	MaxMarkdownLen = 5000
	MaxHTMLLen     = 2000
)

// ContentRecord is one normalized unit of extracted page content.
type ContentRecord struct {
	Kind      ContentKind `json:"type"`
	URL       string      `json:"url"`
	Content   string      `json:"content"`
	Truncated bool        `json:"truncated,omitempty"`
}

// ResearchResult is the outcome of one research-service query. Content is
// always non-empty: the answer on success, a human-readable explanation on
// failure, so consumers never branch on missing content.
type ResearchResult struct {
	Success bool               `json:"success"`
	Content string             `json:"content"`
	Model   string             `json:"model,omitempty"`
	Usage   map[string]float64 `json:"usage,omitempty"`
}

// AggregateResult is the unified output of one job: normalized page content
// plus research findings. Produced exactly once per job, immutable after.
type AggregateResult struct {
	JobID              string          `json:"job_id"`
	CrawlJobID         string          `json:"firecrawl_job_id"`
	URL                string          `json:"url"`
	CompanyName        string          `json:"company_name"`
	ScrapedAt          time.Time       `json:"scraped_at"`
	ProcessedContent   []ContentRecord `json:"processed_content"`
	ContentCount       int             `json:"content_count"`
	PerplexityResearch ResearchResult  `json:"perplexity_research"`
	Status             string          `json:"status"`
}
