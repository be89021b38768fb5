package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pitch-intel/pkg/firecrawl"
)

func newTestCache(t *testing.T) *CrawlCache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMiss(t *testing.T) {
	c := newTestCache(t)

	pages, err := c.Get(context.Background(), "https://nothing.test")
	require.NoError(t, err)
	assert.Nil(t, pages)
}

func TestSetAndGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	in := []firecrawl.PageData{
		{URL: "https://acme.test", Markdown: "# Acme", Metadata: firecrawl.PageMetadata{Title: "Acme Home"}},
		{URL: "https://acme.test/about", HTML: "<p>About</p>"},
	}
	require.NoError(t, c.Set(ctx, "https://acme.test", in, time.Hour))

	out, err := c.Get(ctx, "https://acme.test")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSetReplacesPreviousEntry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "https://acme.test",
		[]firecrawl.PageData{{URL: "https://acme.test", Markdown: "old"}}, time.Hour))
	require.NoError(t, c.Set(ctx, "https://acme.test",
		[]firecrawl.PageData{{URL: "https://acme.test", Markdown: "new"}}, time.Hour))

	out, err := c.Get(ctx, "https://acme.test")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "new", out[0].Markdown)
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "https://acme.test",
		[]firecrawl.PageData{{URL: "https://acme.test", Markdown: "# Acme"}}, -time.Minute))

	out, err := c.Get(ctx, "https://acme.test")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestPurgeExpired(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "https://stale.test",
		[]firecrawl.PageData{{URL: "https://stale.test", Markdown: "old"}}, -time.Minute))
	require.NoError(t, c.Set(ctx, "https://fresh.test",
		[]firecrawl.PageData{{URL: "https://fresh.test", Markdown: "new"}}, time.Hour))

	n, err := c.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out, err := c.Get(ctx, "https://fresh.test")
	require.NoError(t, err)
	require.Len(t, out, 1)

	n, err = c.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEntriesAreKeyedByURL(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "https://a.test",
		[]firecrawl.PageData{{URL: "https://a.test", Markdown: "A"}}, time.Hour))
	require.NoError(t, c.Set(ctx, "https://b.test",
		[]firecrawl.PageData{{URL: "https://b.test", Markdown: "B"}}, time.Hour))

	a, err := c.Get(ctx, "https://a.test")
	require.NoError(t, err)
	require.Len(t, a, 1)
	assert.Equal(t, "A", a[0].Markdown)

	b, err := c.Get(ctx, "https://b.test")
	require.NoError(t, err)
	require.Len(t, b, 1)
	assert.Equal(t, "B", b[0].Markdown)
}
