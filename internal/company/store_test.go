package company

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pitch-intel/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "acme", Slug("Acme"))
	assert.Equal(t, "acme_corp", Slug("Acme Corp"))
	assert.Equal(t, "big_blue_widgets", Slug("Big Blue Widgets"))
}

func TestStoreEmpty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = s.Get("Acme")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LoadScrapedData("Acme")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachScrapedDataCreatesRecord(t *testing.T) {
	s := newTestStore(t)

	agg := &model.AggregateResult{JobID: "job-1", CompanyName: "Acme Corp", ContentCount: 2}
	rec, err := s.AttachScrapedData("Acme Corp", agg)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Acme Corp", rec.Name)
	assert.False(t, rec.CreatedAt.IsZero())
	require.NotNil(t, rec.ScrapedData)
	assert.Equal(t, "job-1", rec.ScrapedData.JobID)

	got, err := s.Get("Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestAttachScrapedDataUpsertsCaseInsensitively(t *testing.T) {
	s := newTestStore(t)

	first, err := s.AttachScrapedData("Acme", &model.AggregateResult{JobID: "job-1"})
	require.NoError(t, err)
	second, err := s.AttachScrapedData("ACME", &model.AggregateResult{JobID: "job-2"})
	require.NoError(t, err)

	// Same record, last write wins.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "job-2", second.ScrapedData.JobID)

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0].Name)
}

func TestAttachScrapedDataWritesPerCompanyDocument(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	agg := &model.AggregateResult{JobID: "job-1", CompanyName: "Acme Corp"}
	_, err = s.AttachScrapedData("Acme Corp", agg)
	require.NoError(t, err)

	path := filepath.Join(dir, "scraped", "acme_corp", "scraped_data.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var stored model.AggregateResult
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "job-1", stored.JobID)

	loaded, err := s.LoadScrapedData("acme corp")
	require.NoError(t, err)
	assert.Equal(t, "job-1", loaded.JobID)
}

func TestUpsertPitch(t *testing.T) {
	s := newTestStore(t)

	pitch := &Pitch{
		ID:          "pitch-1",
		Type:        "discovery",
		CompanyName: "Acme",
		Industry:    "Widgets",
		Content:     "Acme makes widgets.",
		CreatedAt:   time.Now().UTC(),
	}
	rec, err := s.UpsertPitch(pitch)
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec.Name)
	assert.Equal(t, "Widgets", rec.Industry)
	require.NotNil(t, rec.Pitch)
	assert.Equal(t, "pitch-1", rec.Pitch.ID)

	// Replacing the pitch keeps the same company record.
	replacement := &Pitch{ID: "pitch-2", CompanyName: "acme", Content: "Updated."}
	rec2, err := s.UpsertPitch(replacement)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, rec2.ID)
	assert.Equal(t, "pitch-2", rec2.Pitch.ID)

	records, err := s.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPitchAndScrapedDataCoexist(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpsertPitch(&Pitch{ID: "pitch-1", CompanyName: "Acme", Content: "Pitch."})
	require.NoError(t, err)
	_, err = s.AttachScrapedData("acme", &model.AggregateResult{JobID: "job-1"})
	require.NoError(t, err)

	got, err := s.Get("ACME")
	require.NoError(t, err)
	require.NotNil(t, got.Pitch)
	require.NotNil(t, got.ScrapedData)
	assert.Equal(t, "pitch-1", got.Pitch.ID)
	assert.Equal(t, "job-1", got.ScrapedData.JobID)
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	_, err = s.AttachScrapedData("Acme", &model.AggregateResult{JobID: "job-1"})
	require.NoError(t, err)

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get("Acme")
	require.NoError(t, err)
	require.NotNil(t, got.ScrapedData)
	assert.Equal(t, "job-1", got.ScrapedData.JobID)
}
