package snipmail

import (
	"database/sql"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = sql.ErrNoRows

// SnippetCache is an in-memory cache of the snippet library with TTL. The
// dashboard and composer sidebar hit this on every page, so listing goes
// through here instead of the database.
type SnippetCache struct {
	mu         sync.RWMutex
	snippets   []Snippet
	tags       []string
	categories []Category
	fetched    time.Time
	ttl        time.Duration
	store      *Store
}

// NewSnippetCache creates a SnippetCache backed by the given Store.
func NewSnippetCache(s *Store, ttl time.Duration) *SnippetCache {
	return &SnippetCache{store: s, ttl: ttl}
}

func (c *SnippetCache) valid() bool {
	return c.snippets != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *SnippetCache) Invalidate() {
	c.mu.Lock()
	c.snippets = nil
	c.tags = nil
	c.categories = nil
	c.mu.Unlock()
}

func (c *SnippetCache) load() error {
	if c.valid() {
		return nil
	}
	snippets, err := c.store.ListSnippets("", nil)
	if err != nil {
		return err
	}
	tags, err := c.store.ListTags()
	if err != nil {
		return err
	}
	categories, err := c.store.ListCategories()
	if err != nil {
		return err
	}
	c.snippets = snippets
	c.tags = tags
	c.categories = categories
	c.fetched = time.Now()
	return nil
}

// ensureLoaded refreshes the cache if stale. It tries a read lock first and
// only takes a write lock when a reload is needed.
func (c *SnippetCache) ensureLoaded() ([]Snippet, []string, []Category, error) {
	c.mu.RLock()
	if c.valid() {
		snippets, tags, cats := c.snippets, c.tags, c.categories
		c.mu.RUnlock()
		return snippets, tags, cats, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, nil, nil, err
	}
	return c.snippets, c.tags, c.categories, nil
}

// ListSnippets returns the library, optionally filtered by category and tags.
// All given tags must be present for a snippet to match.
func (c *SnippetCache) ListSnippets(category string, tags []string) ([]Snippet, error) {
	snippets, _, _, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	tags = FilterEmpty(tags)
	if category == "" && len(tags) == 0 {
		return snippets, nil
	}
	var filtered []Snippet
	for _, sn := range snippets {
		if category != "" && sn.Category != category {
			continue
		}
		if !hasAllTags(sn.Tags, tags) {
			continue
		}
		filtered = append(filtered, sn)
	}
	return filtered, nil
}

// ListTags returns all unique tags across the library.
func (c *SnippetCache) ListTags() ([]string, error) {
	_, tags, _, err := c.ensureLoaded()
	return tags, err
}

// ListCategories returns the configured categories.
func (c *SnippetCache) ListCategories() ([]Category, error) {
	_, _, cats, err := c.ensureLoaded()
	return cats, err
}

// GetSnippet returns a single snippet by id from the cache.
func (c *SnippetCache) GetSnippet(id string) (Snippet, error) {
	snippets, _, _, err := c.ensureLoaded()
	if err != nil {
		return Snippet{}, err
	}
	for _, sn := range snippets {
		if sn.ID == id {
			return sn, nil
		}
	}
	return Snippet{}, ErrNotFound
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		w = normalizeTag(w)
		found := false
		for _, h := range have {
			if normalizeTag(h) == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
