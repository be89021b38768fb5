package pipeline

import (
	"unicode/utf8"

	"github.com/sells-group/pitch-intel/internal/model"
	"github.com/sells-group/pitch-intel/pkg/firecrawl"
)

// Normalize converts raw crawl pages into content records, preserving input
// order. Per page: at most one body record (markdown preferred over html,
// truncated to its cap), then a title record and a description record when
// the metadata carries them. Pages with none of the recognized fields yield
// nothing.
func Normalize(pages []firecrawl.PageData) []model.ContentRecord {
	records := make([]model.ContentRecord, 0, len(pages))

	for _, page := range pages {
		switch {
		case page.Markdown != "":
			content, truncated := truncate(page.Markdown, model.MaxMarkdownLen)
			records = append(records, model.ContentRecord{
				Kind:      model.ContentKindMarkdown,
				URL:       page.URL,
				Content:   content,
				Truncated: truncated,
			})
		case page.HTML != "":
			content, truncated := truncate(page.HTML, model.MaxHTMLLen)
			records = append(records, model.ContentRecord{
				Kind:      model.ContentKindHTML,
				URL:       page.URL,
				Content:   content,
				Truncated: truncated,
			})
		}

		if page.Metadata.Title != "" {
			records = append(records, model.ContentRecord{
				Kind:    model.ContentKindTitle,
				URL:     page.URL,
				Content: page.Metadata.Title,
			})
		}
		if page.Metadata.Description != "" {
			records = append(records, model.ContentRecord{
				Kind:    model.ContentKindDescription,
				URL:     page.URL,
				Content: page.Metadata.Description,
			})
		}
	}

	return records
}

// truncate caps s at max characters (not bytes, so multibyte content is
// never split mid-rune).
func truncate(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	return string([]rune(s)[:max]), true
}
