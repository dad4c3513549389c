package retrieve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Cache persists search and extraction results across runs. Cached entries
// never expire: a repeated run over the same draft hits the same evidence,
// which keeps refinement reproducible and Tavily usage flat.
type Cache struct {
	path string

	mu   sync.Mutex
	data cacheData

	// Logger receives printf-style diagnostics. Nil disables logging.
	Logger func(format string, args ...interface{})
}

type cacheData struct {
	Searches    map[string]cachedSearch     `json:"searches"`
	Extractions map[string]cachedExtraction `json:"extractions"`
}

type cachedSearch struct {
	Timestamp int64          `json:"timestamp"`
	Response  []SearchResult `json:"response"`
}

type cachedExtraction struct {
	Timestamp int64  `json:"timestamp"`
	Content   string `json:"content"`
	URL       string `json:"url"`
}

// NewCache opens the cache at path, loading any existing content. A missing
// or corrupt file starts an empty cache rather than failing the run.
func NewCache(path string) *Cache {
	c := &Cache{path: path}
	c.data = cacheData{
		Searches:    make(map[string]cachedSearch),
		Extractions: make(map[string]cachedExtraction),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var data cacheData
	if err := json.Unmarshal(raw, &data); err != nil {
		return c
	}
	if data.Searches == nil {
		data.Searches = make(map[string]cachedSearch)
	}
	if data.Extractions == nil {
		data.Extractions = make(map[string]cachedExtraction)
	}
	c.data = data
	return c
}

// GetSearch returns the cached response for a query.
func (c *Cache) GetSearch(query string) ([]SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.data.Searches[query]
	if !ok {
		return nil, false
	}
	return entry.Response, true
}

// PutSearch caches a search response and persists the cache.
func (c *Cache) PutSearch(query string, results []SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Searches[query] = cachedSearch{Timestamp: time.Now().Unix(), Response: results}
	c.save()
}

// GetExtraction returns the cached page content for a URL.
func (c *Cache) GetExtraction(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.data.Extractions[url]
	if !ok {
		return "", false
	}
	return entry.Content, true
}

// PutExtraction caches extracted page content and persists the cache.
func (c *Cache) PutExtraction(url, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Extractions[url] = cachedExtraction{
		Timestamp: time.Now().Unix(),
		Content:   content,
		URL:       url,
	}
	c.save()
}

// save writes the cache atomically: temp file in the same directory, then
// rename over the target. Callers hold c.mu.
func (c *Cache) save() {
	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		c.logf("failed to marshal cache: %v", err)
		return
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		c.logf("failed to create cache temp file: %v", err)
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		c.logf("failed to write cache: %v", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		c.logf("failed to close cache temp file: %v", err)
		return
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		c.logf("failed to replace cache file: %v", err)
	}
}

func (c *Cache) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger(format, args...)
	}
}
