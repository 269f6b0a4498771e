// Package research augments a document with real-time external context. It
// queries a web search API and extracts readable text from the top hits.
// The research stage is an optional enrichment: every failure here degrades
// to empty context instead of stopping the pipeline.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Result is one web search hit.
type Result struct {
	Title       string
	URL         string
	Description string
}

// Searcher is the web search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// BraveSearch queries the Brave Search API.
type BraveSearch struct {
	APIKey  string
	BaseURL string
	Count   int

	httpClient *http.Client
}

// BraveOption configures a BraveSearch.
type BraveOption func(*BraveSearch)

// WithBraveBaseURL overrides the API endpoint (used in tests).
func WithBraveBaseURL(baseURL string) BraveOption {
	return func(b *BraveSearch) { b.BaseURL = baseURL }
}

// WithBraveCount sets the number of results to request (1-20).
func WithBraveCount(count int) BraveOption {
	return func(b *BraveSearch) {
		if count < 1 {
			count = 1
		}
		if count > 20 {
			count = 20
		}
		b.Count = count
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) BraveOption {
	return func(b *BraveSearch) { b.httpClient = client }
}

// NewBraveSearch creates a Brave search client.
func NewBraveSearch(apiKey string, opts ...BraveOption) (*BraveSearch, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("brave search api key not set")
	}
	b := &BraveSearch{
		APIKey:     apiKey,
		BaseURL:    "https://api.search.brave.com/res/v1/web/search",
		Count:      5,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search runs one web search.
func (b *BraveSearch) Search(ctx context.Context, query string) ([]Result, error) {
	endpoint := fmt.Sprintf("%s?q=%s&count=%d", b.BaseURL, url.QueryEscape(query), b.Count)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		results = append(results, Result{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Description,
		})
	}
	return results, nil
}
