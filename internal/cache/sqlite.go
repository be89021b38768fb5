// Package cache provides a TTL'd crawl-result cache backed by SQLite.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pitch-intel/pkg/firecrawl"
)

// CrawlCache stores crawled pages keyed by URL with an expiry.
type CrawlCache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path and configures WAL mode.
func Open(path string) (*CrawlCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}

	c := &CrawlCache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS crawl_cache (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	pages      TEXT NOT NULL,
	crawled_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_crawl_cache_url ON crawl_cache(url);
CREATE INDEX IF NOT EXISTS idx_crawl_cache_expires_at ON crawl_cache(expires_at);
`

func (c *CrawlCache) migrate() error {
	_, err := c.db.Exec(migration)
	return eris.Wrap(err, "cache: migrate")
}

// Close releases the database handle.
func (c *CrawlCache) Close() error {
	return c.db.Close()
}

// Get returns the cached pages for url, or nil on a miss or expired entry.
func (c *CrawlCache) Get(ctx context.Context, url string) ([]firecrawl.PageData, error) {
	var pagesJSON string
	err := c.db.QueryRowContext(ctx,
		`SELECT pages FROM crawl_cache WHERE url = ? AND expires_at > ? ORDER BY crawled_at DESC LIMIT 1`,
		url, time.Now().UTC(),
	).Scan(&pagesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "cache: get %s", url)
	}

	var pages []firecrawl.PageData
	if err := json.Unmarshal([]byte(pagesJSON), &pages); err != nil {
		return nil, eris.Wrapf(err, "cache: decode pages for %s", url)
	}
	return pages, nil
}

// Set stores pages for url, replacing any previous entry.
func (c *CrawlCache) Set(ctx context.Context, url string, pages []firecrawl.PageData, ttl time.Duration) error {
	pagesJSON, err := json.Marshal(pages)
	if err != nil {
		return eris.Wrap(err, "cache: encode pages")
	}

	now := time.Now().UTC()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "cache: begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM crawl_cache WHERE url = ?`, url); err != nil {
		return eris.Wrapf(err, "cache: delete stale %s", url)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO crawl_cache (id, url, pages, crawled_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), url, string(pagesJSON), now, now.Add(ttl),
	); err != nil {
		return eris.Wrapf(err, "cache: insert %s", url)
	}

	return eris.Wrap(tx.Commit(), "cache: commit")
}

// PurgeExpired deletes expired entries and reports how many were removed.
func (c *CrawlCache) PurgeExpired(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM crawl_cache WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "cache: purge expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "cache: rows affected")
	}
	return int(n), nil
}
