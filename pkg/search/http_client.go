package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"

	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/retry"
)

// HTTPClient is the default Provider adapter: a results-page HTML fetch
// parsed with goquery, guarded by a circuit breaker and jittered retry —
// the same resilience shape used for every HTTP-based external
// collaborator in this pipeline.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewHTTPClient creates an HTTPClient against baseURL, authenticating with
// apiKey.
func NewHTTPClient(baseURL, apiKey string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		breaker:    retry.NewBreaker("search"),
		logger:     logger,
	}
}

// Search issues query against the configured search backend, retrying
// transient failures before surfacing a pipeerr.StageError.
func (c *HTTPClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	var results []Result

	err := retry.Do(ctx, retry.DefaultBackoffConfig, isRetryableHTTPErr, func(ctx context.Context) error {
		out, err := c.breaker.Execute(func() (any, error) {
			return c.fetch(ctx, query, limit)
		})
		if err != nil {
			return err
		}
		results = out.([]Result)
		return nil
	})
	if err != nil {
		return nil, pipeerr.New("discovery", classify(err), err)
	}
	return results, nil
}

func (c *HTTPClient) fetch(ctx context.Context, query string, limit int) ([]Result, error) {
	u := fmt.Sprintf("%s/search?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errRateLimited
	}
	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search backend returned %d: %s", resp.StatusCode, body)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search backend returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing search results page: %w", err)
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := sel.Find(".result-title").Text()
		href, _ := sel.Find("a").Attr("href")
		snippet := sel.Find(".result-snippet").Text()
		if title != "" && href != "" {
			results = append(results, Result{Title: title, URL: href, Snippet: snippet})
		}
		return len(results) < limit
	})

	return results, nil
}
