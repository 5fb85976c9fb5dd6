// Package pricesource fetches Grand Exchange item pages and extracts the
// current price and recent history.
package pricesource

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/example/getracker/internal/core/watchlist"
	"github.com/example/getracker/internal/ports/secondary"
)

// DefaultBaseURL is the Grand Exchange item page.
const DefaultBaseURL = "https://secure.runescape.com/m=itemdb_rs/viewitem"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures a Client. Zero values take defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RetryBase time.Duration
	Logger    *log.Logger
}

// Client implements secondary.PriceSource over HTTP.
type Client struct {
	baseURL string
	client  *resty.Client
	logger  *log.Logger
}

// NewClient creates a price source client. A server error is retried once
// after RetryBase; client and transport errors are not retried.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	retryBase := opts.RetryBase
	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", userAgent)
	client.SetRetryCount(1)
	client.SetRetryWaitTime(retryBase)
	client.SetRetryMaxWaitTime(retryBase * 4)
	client.SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
		attempt := 1
		if resp != nil && resp.Request != nil && resp.Request.Attempt > 0 {
			attempt = resp.Request.Attempt
		}
		return retryBase * time.Duration(attempt), nil
	})
	client.AddRetryCondition(func(resp *resty.Response, err error) bool {
		return err == nil && resp != nil && resp.StatusCode() >= http.StatusInternalServerError
	})

	return &Client{
		baseURL: opts.BaseURL,
		client:  client,
		logger:  opts.Logger,
	}
}

// Fetch returns the item's quote, or nil when the page cannot be fetched
// or carries no price.
func (c *Client) Fetch(ctx context.Context, itemID string) *watchlist.Quote {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("obj", itemID).
		Get(c.baseURL)
	if err != nil {
		c.logger.Printf("failed to fetch item %s: %v", itemID, err)
		return nil
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Printf("failed to fetch item %s: status %d", itemID, resp.StatusCode())
		return nil
	}

	page := ParsePage(resp.String())
	if page.Price == nil {
		c.logger.Printf("no price found on page for item %s", itemID)
		return nil
	}
	return &watchlist.Quote{CurrentPrice: *page.Price, History: page.History}
}

// Ensure Client implements the interface
var _ secondary.PriceSource = (*Client)(nil)
