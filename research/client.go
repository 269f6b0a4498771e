package research

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/yuga-i2/DOCUFORGE-AI/log"
)

// Client runs the full research step: search, fetch the top hits, and
// extract readable page text into one bounded context string.
type Client struct {
	Searcher   Searcher
	MaxPages   int
	MaxChars   int
	HTTPClient *http.Client
	Logger     log.Logger
}

// NewClient builds a research client around a searcher.
func NewClient(searcher Searcher, maxPages, maxChars int, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	if maxPages <= 0 {
		maxPages = 3
	}
	if maxChars <= 0 {
		maxChars = 6000
	}
	return &Client{
		Searcher:   searcher,
		MaxPages:   maxPages,
		MaxChars:   maxChars,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		Logger:     logger,
	}
}

// Gather searches the web for the query and returns concatenated page text
// capped at MaxChars. Individual page failures are skipped; only a failed
// search itself surfaces as an error.
func (c *Client) Gather(ctx context.Context, query string) (string, error) {
	results, err := c.Searcher.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("web search: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}

	var sb strings.Builder
	pages := 0
	for _, r := range results {
		if pages >= c.MaxPages || sb.Len() >= c.MaxChars {
			break
		}

		text, err := c.fetchPageText(ctx, r.URL)
		if err != nil {
			c.Logger.Debug("research: skipping %s: %v", r.URL, err)
			// Fall back to the search snippet so a broken page still
			// contributes something.
			text = r.Description
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		sb.WriteString(fmt.Sprintf("[%s] (%s)\n%s\n\n", r.Title, r.URL, text))
		pages++
	}

	out := sb.String()
	if len(out) > c.MaxChars {
		out = out[:c.MaxChars]
	}
	return strings.TrimSpace(out), nil
}

// fetchPageText downloads a page and extracts its visible text.
func (c *Client) fetchPageText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "docuforge-research/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}

	doc.Find("script, style, nav, header, footer, noscript").Remove()

	var parts []string
	doc.Find("p, h1, h2, h3, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 40 {
			parts = append(parts, text)
		}
	})

	text := strings.Join(parts, "\n")
	if len(text) > c.MaxChars {
		text = text[:c.MaxChars]
	}
	return text, nil
}
