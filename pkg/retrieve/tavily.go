// Package retrieve finds and fetches web evidence for an article draft:
// topic extraction, Tavily search and extraction, and a persistent cache.
package retrieve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const tavilyBaseURL = "https://api.tavily.com"

// Client talks to the Tavily search and extract APIs.
// Tavily is used as a raw data source - the AI summary is disabled and the
// judge does its own reading.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	maxResults  int
	searchDepth string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key (alternative to env var).
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithMaxResults sets the maximum search results per query.
func WithMaxResults(max int) ClientOption {
	return func(c *Client) {
		c.maxResults = max
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a Tavily client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  os.Getenv("TAVILY_API_KEY"),
		baseURL: tavilyBaseURL,
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
		maxResults:  6,
		searchDepth: "advanced",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available returns true if the API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// SearchResult is one hit from the search API.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ExtractResult is one page from the extract API.
type ExtractResult struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

type searchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

type extractRequest struct {
	URLs         []string `json:"urls"`
	Format       string   `json:"format"`
	ExtractDepth string   `json:"extract_depth"`
}

type extractResponse struct {
	Results []ExtractResult `json:"results"`
}

// Search runs one query. include_answer stays false: raw results only.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if !c.Available() {
		return nil, fmt.Errorf("Tavily API key not configured")
	}

	payload := searchRequest{
		Query:         query,
		SearchDepth:   c.searchDepth,
		IncludeAnswer: false,
		MaxResults:    c.maxResults,
	}

	var resp searchResponse
	if err := c.post(ctx, "/search", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Extract fetches page content for up to 20 URLs per call.
func (c *Client) Extract(ctx context.Context, urls []string) ([]ExtractResult, error) {
	if !c.Available() {
		return nil, fmt.Errorf("Tavily API key not configured")
	}
	if len(urls) == 0 {
		return nil, nil
	}

	payload := extractRequest{
		URLs:         urls,
		Format:       "text",
		ExtractDepth: "basic",
	}

	var resp extractResponse
	if err := c.post(ctx, "/extract", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Tavily API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
