// internal/scraper/client.go

// Package scraper collects food records from the CalorieKing food API and
// writes them as a dataset CSV.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
)

var (
	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("nutrition api: unauthorized")
	// ErrNotFound is returned when a food revision does not exist.
	ErrNotFound = errors.New("nutrition api: not found")
	// ErrAPIFailure covers transport errors, 5xx responses and bad payloads.
	ErrAPIFailure = errors.New("nutrition api: request failed")
)

const defaultRetryDelay = 500 * time.Millisecond

// FoodSummary is one entry of a food listing page.
type FoodSummary struct {
	RevisionID string `json:"revisionId"`
	Name       string `json:"name"`
}

// FoodPage is one page of the food listing.
type FoodPage struct {
	Metadata struct {
		Total int `json:"total"`
	} `json:"metadata"`
	Foods []FoodSummary `json:"foods"`
}

// FoodDetail is the detail payload for one food revision.
type FoodDetail struct {
	Name  string `json:"name"`
	Brand struct {
		Name string `json:"name"`
	} `json:"brand"`
	Classification json.RawMessage            `json:"classification"`
	Nutrients      map[string]json.RawMessage `json:"nutrients"`
}

// Client talks to the food API. Calls are spaced by a rate limiter and
// transient failures are retried with exponential backoff.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	attempts   uint
	retryDelay time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryDelay sets the initial backoff between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewClient builds a client from scraper configuration with defaults applied.
func NewClient(cfg appconfig.ScraperConfig, opts ...Option) *Client {
	cfg = cfg.WithDefaults()
	limit := rate.Inf
	if d := cfg.RequestDelay(); d > 0 {
		limit = rate.Every(d)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		limiter:    rate.NewLimiter(limit, 1),
		attempts:   uint(cfg.Retries) + 1,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListFoods fetches one page of the food listing.
func (c *Client) ListFoods(ctx context.Context, offset, limit int) (FoodPage, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))

	var page FoodPage
	err := c.get(ctx, c.baseURL+"/foods?"+params.Encode(), &page)
	return page, err
}

// FoodDetails fetches the detail payload for revisionID.
func (c *Client) FoodDetails(ctx context.Context, revisionID string) (FoodDetail, error) {
	var envelope struct {
		Food *FoodDetail `json:"food"`
	}
	if err := c.get(ctx, c.baseURL+"/foods/"+url.PathEscape(revisionID), &envelope); err != nil {
		return FoodDetail{}, err
	}
	if envelope.Food == nil {
		return FoodDetail{}, fmt.Errorf("%w: revision %s has no food payload", ErrAPIFailure, revisionID)
	}
	return *envelope.Food, nil
}

func (c *Client) get(ctx context.Context, reqURL string, out any) error {
	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			return c.fetch(ctx, reqURL, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logging.LogEvent("[SCRAPER] retry %d for %s: %v", n+1, reqURL, err)
		}),
	)
}

func (c *Client) fetch(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.SetBasicAuth(c.token, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrAPIFailure, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return retry.Unrecoverable(fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return retry.Unrecoverable(fmt.Errorf("%w: %s", ErrNotFound, reqURL))
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d: %s", ErrAPIFailure, resp.StatusCode, truncate(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("%w: decoding response: %v", ErrAPIFailure, err))
	}
	return nil
}

func truncate(body []byte) string {
	if len(body) > 200 {
		return string(body[:200]) + "..."
	}
	return string(body)
}
