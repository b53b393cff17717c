package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; VistoEnMaps-Bot/1.0; +https://vistoenmaps.com)"

// Client fetches directory homepages with rate limiting
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	health     *HealthMonitor
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new scraping client allowing requestsPerSecond requests
func NewClient(requestsPerSecond int, opts ...ClientOption) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		userAgent: defaultUserAgent,
		health:    NewHealthMonitor(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a rate-limited HTTP GET request and returns a goquery document
func (c *Client) Get(ctx context.Context, url string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// FetchMetadata downloads a page and extracts its listing metadata
func (c *Client) FetchMetadata(ctx context.Context, url string) (*Metadata, error) {
	doc, err := c.Get(ctx, url)
	if err != nil {
		c.health.RecordFailure(url, err)
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	c.health.RecordSuccess()
	return ParseMetadata(doc), nil
}

// Health reports fetch outcomes recorded so far
func (c *Client) Health() HealthStatus {
	return c.health.GetHealthStatus()
}

// Healthy reports whether fetch failures stay under the monitor thresholds
func (c *Client) Healthy() bool {
	return c.health.IsHealthy()
}

// FailureRate is the share of failed fetches so far
func (c *Client) FailureRate() float64 {
	return c.health.GetFailureRate()
}

// Close cleans up the client resources
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
