// Package prompt manages prompt template text files.
package prompt

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when the named template does not exist.
var ErrNotFound = eris.New("prompt: not found")

// SalesResearch is the template used by the research branch of a scrape job.
const SalesResearch = "sales_research_prompt"

// CompanyPlaceholder is the literal substituted with the company name when a
// template is rendered.
const CompanyPlaceholder = "[INSERT COMPANY NAME HERE]"

// Info describes one stored template.
type Info struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// Store keeps each template as <dir>/<name>.txt.
type Store struct {
	dir string
}

// NewStore creates the prompts directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "prompt: create dir")
	}
	return &Store{dir: dir}, nil
}

// Load returns the template text, or ErrNotFound.
func (s *Store) Load(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", eris.Wrapf(err, "prompt: read %s", name)
	}
	return string(data), nil
}

// Save writes or replaces the template text.
func (s *Store) Save(name, content string) error {
	if err := os.WriteFile(s.path(name), []byte(content), 0o644); err != nil {
		return eris.Wrapf(err, "prompt: write %s", name)
	}
	return nil
}

// Exists reports whether the named template is stored.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Delete removes the template, or returns ErrNotFound.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return eris.Wrapf(err, "prompt: delete %s", name)
}

// List enumerates stored templates.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrap(err, "prompt: list dir")
	}

	var prompts []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		prompts = append(prompts, Info{
			Name:     strings.TrimSuffix(e.Name(), ".txt"),
			Filename: e.Name(),
		})
	}
	return prompts, nil
}

// Render loads the named template and substitutes the company placeholder.
func (s *Store) Render(name, companyName string) (string, error) {
	tmpl, err := s.Load(name)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(tmpl, CompanyPlaceholder, companyName), nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}
