package retrieve

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zen-systems/draftloop/pkg/adapter"
	"github.com/zen-systems/draftloop/pkg/evidence"
	"github.com/zen-systems/draftloop/pkg/schema"
)

const (
	defaultMaxParallel = 8
	extractBatchSize   = 20

	// minScore drops weakly relevant search hits before extraction.
	minScore = 0.5

	// minContentChars guards against stub and error pages.
	minContentChars = 200
)

// Searcher is the slice of the Tavily client the retriever needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
	Extract(ctx context.Context, urls []string) ([]ExtractResult, error)
}

// Retriever turns a draft into retrieved source documents: topic extraction
// through the researcher model, concurrent search and extraction, then
// compression of each fetched page before it is packed into prompt context.
type Retriever struct {
	client      Searcher
	adapter     adapter.Adapter
	model       string
	cache       *Cache
	compressor  evidence.Compressor
	maxParallel int

	// Logger receives printf-style diagnostics. Nil disables logging.
	Logger func(format string, args ...interface{})
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithCache attaches a persistent result cache.
func WithCache(cache *Cache) RetrieverOption {
	return func(r *Retriever) {
		r.cache = cache
	}
}

// WithCompressor replaces the default rule-based compressor.
func WithCompressor(c evidence.Compressor) RetrieverOption {
	return func(r *Retriever) {
		r.compressor = c
	}
}

// WithMaxParallel bounds concurrent search calls.
func WithMaxParallel(max int) RetrieverOption {
	return func(r *Retriever) {
		r.maxParallel = max
	}
}

// WithRetrieverLogger sets the diagnostic logger.
func WithRetrieverLogger(logger func(format string, args ...interface{})) RetrieverOption {
	return func(r *Retriever) {
		r.Logger = logger
	}
}

// NewRetriever creates a Retriever using the given researcher model.
func NewRetriever(client Searcher, a adapter.Adapter, model string, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		client:      client,
		adapter:     a,
		model:       model,
		compressor:  evidence.RuleBased{},
		maxParallel: defaultMaxParallel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExtractTopic asks the researcher model what the draft is about and what
// to search for.
func (r *Retriever) ExtractTopic(ctx context.Context, draft string) (*schema.TopicExtraction, error) {
	resp, err := r.adapter.Complete(ctx, adapter.Request{Model: r.model, Prompt: topicPrompt(draft)})
	if err != nil {
		return nil, fmt.Errorf("topic extraction call failed: %w", err)
	}

	var topic schema.TopicExtraction
	if err := schema.Unmarshal(resp.Text, &topic); err != nil {
		return nil, fmt.Errorf("topic extraction returned malformed output: %w", err)
	}
	if err := topic.Validate(); err != nil {
		return nil, fmt.Errorf("topic extraction invalid: %w", err)
	}
	return &topic, nil
}

// Retrieve returns documents supporting the draft. Drafts that need no
// research return nil without any network traffic. Individual query or
// extraction failures are logged and dropped; an error comes back only when
// every search fails.
func (r *Retriever) Retrieve(ctx context.Context, draft string) ([]evidence.Document, error) {
	topic, err := r.ExtractTopic(ctx, draft)
	if err != nil {
		return nil, err
	}
	if !topic.NeedsResearch {
		r.logf("no research needed for this draft")
		return nil, nil
	}

	// The main topic always leads the query list.
	queries := append([]string{topic.MainTopic}, topic.SearchQueries...)
	r.logf("searching %d queries for topic %q", len(queries), topic.MainTopic)

	results, err := r.searchAll(ctx, queries)
	if err != nil {
		return nil, err
	}

	urls := selectURLs(results)
	if len(urls) == 0 {
		return nil, nil
	}

	return r.extractAll(ctx, urls), nil
}

// searchAll fans queries out with bounded parallelism. Per-query failures
// are dropped; an error returns only if every query failed.
func (r *Retriever) searchAll(ctx context.Context, queries []string) ([][]SearchResult, error) {
	type searchOutcome struct {
		index   int
		results []SearchResult
		err     error
	}

	outcomes := make(chan searchOutcome, len(queries))
	semaphore := make(chan struct{}, r.maxParallel)
	var wg sync.WaitGroup

	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()

			if r.cache != nil {
				if cached, ok := r.cache.GetSearch(query); ok {
					r.logf("cache hit for search query: %s", query)
					outcomes <- searchOutcome{index: i, results: cached}
					return
				}
			}

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				outcomes <- searchOutcome{index: i, err: ctx.Err()}
				return
			}

			results, err := r.client.Search(ctx, query)
			if err == nil && r.cache != nil {
				r.cache.PutSearch(query, results)
			}
			outcomes <- searchOutcome{index: i, results: results, err: err}
		}(i, query)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	ordered := make([][]SearchResult, len(queries))
	failures := 0
	var firstErr error
	for outcome := range outcomes {
		if outcome.err != nil {
			failures++
			if firstErr == nil {
				firstErr = outcome.err
			}
			r.logf("search query %d failed: %v", outcome.index+1, outcome.err)
			continue
		}
		ordered[outcome.index] = outcome.results
	}

	if failures == len(queries) {
		return nil, fmt.Errorf("all search queries failed: %w", firstErr)
	}
	return ordered, nil
}

// selectURLs merges search results in query order, keeping relevant hits
// and the first occurrence of each URL.
func selectURLs(results [][]SearchResult) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, batch := range results {
		for _, hit := range batch {
			if hit.URL == "" || hit.Score <= minScore {
				continue
			}
			if _, ok := seen[hit.URL]; ok {
				continue
			}
			seen[hit.URL] = struct{}{}
			urls = append(urls, hit.URL)
		}
	}
	return urls
}

// extractAll fetches page content in batches, serving cached URLs without
// network calls. Failed batches and stub pages are dropped.
func (r *Retriever) extractAll(ctx context.Context, urls []string) []evidence.Document {
	content := make(map[string]string, len(urls))

	var toFetch []string
	for _, url := range urls {
		if r.cache != nil {
			if cached, ok := r.cache.GetExtraction(url); ok {
				r.logf("cache hit for extraction URL: %s", url)
				content[url] = cached
				continue
			}
		}
		toFetch = append(toFetch, url)
	}

	for start := 0; start < len(toFetch); start += extractBatchSize {
		end := start + extractBatchSize
		if end > len(toFetch) {
			end = len(toFetch)
		}
		batch := toFetch[start:end]

		results, err := r.client.Extract(ctx, batch)
		if err != nil {
			r.logf("extraction batch failed (%d urls): %v", len(batch), err)
			continue
		}
		for _, res := range results {
			if res.URL == "" {
				continue
			}
			content[res.URL] = res.RawContent
			if r.cache != nil {
				r.cache.PutExtraction(res.URL, res.RawContent)
			}
		}
	}

	var docs []evidence.Document
	for _, url := range urls {
		raw, ok := content[url]
		if !ok || len(strings.TrimSpace(raw)) <= minContentChars {
			continue
		}
		docs = append(docs, evidence.Document{URL: url, Text: r.compress(ctx, url, raw)})
	}
	return docs
}

// compress reduces raw page text before it reaches the packer. A failed or
// empty compression keeps the raw text so a fetched document is never lost.
func (r *Retriever) compress(ctx context.Context, url, raw string) string {
	text, err := r.compressor.Compress(ctx, raw)
	if err != nil {
		r.logf("compression failed for %s, keeping raw text: %v", url, err)
		return raw
	}
	if strings.TrimSpace(text) == "" {
		return raw
	}
	return text
}

func topicPrompt(draft string) string {
	var b strings.Builder
	b.WriteString("Analyze the article draft or outline below and extract its main topic for web search.\n\n")
	b.WriteString("Respond with JSON only:\n")
	b.WriteString("{\n")
	b.WriteString("  \"main_topic\": string,        // main subject, phrased as a search query\n")
	b.WriteString("  \"search_queries\": [string],  // at most 3 optimized search queries for supporting context\n")
	b.WriteString("  \"needs_research\": boolean    // whether web research would strengthen this article\n")
	b.WriteString("}\n\n")
	b.WriteString("DRAFT:\n")
	b.WriteString(draft)
	return b.String()
}

func (r *Retriever) logf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger(format, args...)
	}
}
