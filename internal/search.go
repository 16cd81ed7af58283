package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	ddgEndpoint     = "https://html.duckduckgo.com/html/"
	searchUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
)

// SearchResult is a single web search hit
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// SearchClient queries DuckDuckGo's HTML endpoint
type SearchClient struct {
	httpClient *http.Client
	endpoint   string
	region     string
	maxResults int
	verbose    bool
}

// NewSearchClient creates a search client for the given region ("wt-wt" for
// no region) returning at most maxResults results per query
func NewSearchClient(region string, maxResults int, verbose bool) *SearchClient {
	if region == "" {
		region = "wt-wt"
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &SearchClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		endpoint:   ddgEndpoint,
		region:     region,
		maxResults: maxResults,
		verbose:    verbose,
	}
}

// Search runs a query and returns the top results
func (s *SearchClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}

	form := url.Values{"q": {query}, "kl": {s.region}, "df": {""}}
	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", searchUserAgent)
		return s.httpClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("searching the web: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching the web: unexpected status %s", resp.Status)
	}

	results, err := parseSearchResults(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(results) > s.maxResults {
		results = results[:s.maxResults]
	}

	if s.verbose {
		fmt.Printf("Web search for %q returned %d results\n", query, len(results))
	}
	return results, nil
}

// SearchFormatted runs a query and renders the results as plain text suitable
// for feeding back to the model
func (s *SearchClient) SearchFormatted(ctx context.Context, query string) (string, error) {
	results, err := s.Search(ctx, query)
	if err != nil {
		return "", err
	}
	return FormatSearchResults(query, results), nil
}

func parseSearchResults(r io.Reader) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing search results: %w", err)
	}

	var results []SearchResult
	doc.Find(".result, .web-result").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find("a.result__a, .result__title a, a.result-link").First()
		title := strings.TrimSpace(link.Text())
		href, exists := link.Attr("href")
		if !exists || title == "" {
			return
		}

		href = unwrapSearchURL(href)
		if href == "" {
			return
		}

		snippet := strings.TrimSpace(sel.Find(".result__snippet, .result__body").First().Text())
		results = append(results, SearchResult{Title: title, URL: href, Snippet: snippet})
	})

	return results, nil
}

// unwrapSearchURL extracts the target URL from DuckDuckGo redirect wrappers,
// which look like //duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com&rut=...
func unwrapSearchURL(href string) string {
	if strings.Contains(href, "duckduckgo.com/l/") || strings.Contains(href, "uddg=") {
		if u, err := url.Parse(href); err == nil {
			if uddg := u.Query().Get("uddg"); uddg != "" {
				return uddg
			}
		}
	}
	// Already a direct URL
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}

// FormatSearchResults renders results as a numbered list with title, URL, and snippet
func FormatSearchResults(query string, results []SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Web results for %q:\n\n", query)
	for i, result := range results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, result.Title, result.URL)
		if result.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", result.Snippet)
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()) + "\n"
}
