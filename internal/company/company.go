// Package company persists company records keyed by case-insensitive name.
package company

import (
	"strings"
	"time"

	"github.com/sells-group/pitch-intel/internal/model"
)

// Record is the stored view of one company: its pitch, the latest scraped
// aggregate, and bookkeeping timestamps.
type Record struct {
	ID          string                 `json:"id,omitempty"`
	Name        string                 `json:"name"`
	Industry    string                 `json:"industry,omitempty"`
	Pitch       *Pitch                 `json:"pitch,omitempty"`
	ScrapedData *model.AggregateResult `json:"scraped_data,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Pitch is a manually ingested company pitch.
type Pitch struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	CompanyName string    `json:"company_name"`
	Industry    string    `json:"industry,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Slug converts a company name into its filesystem-safe directory name:
// lowercased, spaces replaced with underscores.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// sameName matches company names case-insensitively.
func sameName(a, b string) bool {
	return strings.EqualFold(a, b)
}
