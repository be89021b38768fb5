package company

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pitch-intel/internal/model"
)

// ErrNotFound is returned when no record matches the requested company name.
var ErrNotFound = eris.New("company: not found")

const (
	indexFile       = "companies.json"
	scrapedDir      = "scraped"
	scrapedDataFile = "scraped_data.json"
)

// Store keeps one JSON index of all companies plus one scraped-data document
// per company under <data_dir>/scraped/<slug>/. All file access is
// serialized through the mutex; the upsert is last-writer-wins.
type Store struct {
	mu      sync.Mutex
	dataDir string
}

// NewStore creates the data directories if needed and returns a Store.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, scrapedDir), 0o755); err != nil {
		return nil, eris.Wrap(err, "company: create data dir")
	}
	return &Store{dataDir: dataDir}, nil
}

// List returns all company records.
func (s *Store) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the record whose name matches case-insensitively.
func (s *Store) Get(name string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if sameName(records[i].Name, name) {
			return &records[i], nil
		}
	}
	return nil, ErrNotFound
}

// AttachScrapedData upserts the latest aggregate for the named company:
// an existing record (matched case-insensitively) has its scraped data
// replaced and updated_at bumped; otherwise a new record is created. The
// aggregate is also written to the company's scraped_data.json document.
func (s *Store) AttachScrapedData(name string, agg *model.AggregateResult) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var rec *Record
	for i := range records {
		if sameName(records[i].Name, name) {
			rec = &records[i]
			break
		}
	}
	if rec == nil {
		records = append(records, Record{
			ID:        uuid.New().String(),
			Name:      name,
			CreatedAt: now,
		})
		rec = &records[len(records)-1]
	}
	rec.ScrapedData = agg
	rec.UpdatedAt = now

	if err := s.writeScrapedData(name, agg); err != nil {
		return nil, err
	}
	if err := s.save(records); err != nil {
		return nil, err
	}

	out := *rec
	return &out, nil
}

// UpsertPitch attaches a pitch to the named company, creating the record
// when absent.
func (s *Store) UpsertPitch(pitch *Pitch) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var rec *Record
	for i := range records {
		if sameName(records[i].Name, pitch.CompanyName) {
			rec = &records[i]
			break
		}
	}
	if rec == nil {
		records = append(records, Record{
			ID:        uuid.New().String(),
			Name:      pitch.CompanyName,
			Industry:  pitch.Industry,
			CreatedAt: now,
		})
		rec = &records[len(records)-1]
	}
	rec.Pitch = pitch
	rec.UpdatedAt = now

	if err := s.save(records); err != nil {
		return nil, err
	}

	out := *rec
	return &out, nil
}

// LoadScrapedData reads the per-company scraped-data document, or ErrNotFound.
func (s *Store) LoadScrapedData(name string) (*model.AggregateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dataDir, scrapedDir, Slug(name), scrapedDataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "company: read scraped data for %s", name)
	}

	var agg model.AggregateResult
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, eris.Wrapf(err, "company: decode scraped data for %s", name)
	}
	return &agg, nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dataDir, indexFile)
}

func (s *Store) load() ([]Record, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "company: read index")
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "company: decode index")
	}
	return records, nil
}

func (s *Store) save(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "company: encode index")
	}
	if err := os.WriteFile(s.indexPath(), data, 0o644); err != nil {
		return eris.Wrap(err, "company: write index")
	}
	return nil
}

func (s *Store) writeScrapedData(name string, agg *model.AggregateResult) error {
	dir := filepath.Join(s.dataDir, scrapedDir, Slug(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "company: create scraped dir for %s", name)
	}

	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return eris.Wrap(err, "company: encode scraped data")
	}
	if err := os.WriteFile(filepath.Join(dir, scrapedDataFile), data, 0o644); err != nil {
		return eris.Wrapf(err, "company: write scraped data for %s", name)
	}
	return nil
}
