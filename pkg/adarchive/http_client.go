package adarchive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/retry"
)

// HTTPClient is the default Provider adapter: a paginated JSON listing
// endpoint, guarded by a circuit breaker and jittered retry.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker
}

// NewHTTPClient creates an HTTPClient against baseURL, authenticating with
// apiKey.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		breaker:    retry.NewBreaker("ad_archive"),
	}
}

type listResponse struct {
	Records    []rawAdRecordJSON `json:"records"`
	NextCursor string            `json:"next_cursor"`
}

// rawAdRecordJSON is one ad record as returned by the archive: a title,
// body, and every carousel/card variant, each carrying its own body text
// and visual URIs.
type rawAdRecordJSON struct {
	AdID               string        `json:"ad_id"`
	Brand              string        `json:"brand"`
	Title              string        `json:"title"`
	Body               string        `json:"body"`
	Cards              []rawCardJSON `json:"cards"`
	StartTS            *time.Time    `json:"start_ts"`
	EndTS              *time.Time    `json:"end_ts"`
	PublisherPlatforms []string      `json:"publisher_platforms"`
	PageCategory       string        `json:"page_category"`
}

type rawCardJSON struct {
	Body            string `json:"body"`
	ImageURL        string `json:"image_url"`
	ImageURLResized string `json:"image_url_resized"`
	VideoPreviewURL string `json:"video_preview_url"`
}

// ListAds fetches every page of ads for brand active since the given time,
// retrying transient failures and surfacing a classified pipeerr.StageError
// when every retry is exhausted.
func (c *HTTPClient) ListAds(ctx context.Context, brand string, since time.Time) ([]model.RawAdRecord, error) {
	var all []model.RawAdRecord
	cursor := ""

	for {
		var page listResponse
		err := retry.Do(ctx, retry.DefaultBackoffConfig, isRetryableHTTPErr, func(ctx context.Context) error {
			out, err := c.breaker.Execute(func() (any, error) {
				return c.fetchPage(ctx, brand, since, cursor)
			})
			if err != nil {
				return err
			}
			page = out.(listResponse)
			return nil
		})
		if err != nil {
			return nil, pipeerr.New("ingestion", classify(err), err)
		}

		for _, rec := range page.Records {
			cards := make([]model.RawAdCard, 0, len(rec.Cards))
			for _, c := range rec.Cards {
				cards = append(cards, model.RawAdCard{
					Body:             c.Body,
					OriginalImageURI: c.ImageURL,
					ResizedImageURI:  c.ImageURLResized,
					VideoPreviewURI:  c.VideoPreviewURL,
				})
			}
			all = append(all, model.RawAdRecord{
				AdID:               rec.AdID,
				Brand:              rec.Brand,
				Title:              rec.Title,
				Body:               rec.Body,
				Cards:              cards,
				StartTS:            rec.StartTS,
				EndTS:              rec.EndTS,
				PublisherPlatforms: rec.PublisherPlatforms,
				PageCategory:       rec.PageCategory,
			})
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return all, nil
}

func (c *HTTPClient) fetchPage(ctx context.Context, brand string, since time.Time, cursor string) (listResponse, error) {
	q := url.Values{}
	q.Set("brand", brand)
	q.Set("since", since.Format(time.RFC3339))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	reqURL := fmt.Sprintf("%s/ads?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return listResponse{}, fmt.Errorf("building ad archive request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return listResponse{}, fmt.Errorf("ad archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return listResponse{}, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return listResponse{}, fmt.Errorf("ad archive returned HTTP %d", resp.StatusCode)
	}

	var page listResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return listResponse{}, fmt.Errorf("decoding ad archive response: %w", err)
	}
	return page, nil
}

var errRateLimited = errors.New("ad archive rate limited the request")

func isRetryableHTTPErr(err error) bool {
	if errors.Is(err, errRateLimited) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func classify(err error) pipeerr.Kind {
	if errors.Is(err, errRateLimited) {
		return pipeerr.KindUpstreamRateLimit
	}
	return pipeerr.KindUpstreamUnavailable
}
