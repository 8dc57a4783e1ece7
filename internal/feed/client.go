package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const defaultUserAgent = "litesync"

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header sent with feed requests.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout bounds a single fetch, including reading the body.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client fetches a feed snapshot from a fixed URL.
type Client struct {
	url        string
	httpClient HTTPClient
	parser     *gofeed.Parser
	userAgent  string
	timeout    time.Duration
}

// NewClient creates a feed client for feedURL.
func NewClient(feedURL string, opts ...ClientOption) *Client {
	c := &Client{
		url:        feedURL,
		httpClient: &http.Client{},
		parser:     gofeed.NewParser(),
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the feed URL.
func (c *Client) URL() string {
	return c.url
}

// Fetch retrieves the full current snapshot of the feed, in document order.
// Any transport, status or parse failure is returned as a *FetchError.
func (c *Client) Fetch(ctx context.Context) ([]Entry, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/feed+json, application/json, application/rss+xml, application/atom+xml, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: c.url, StatusCode: resp.StatusCode, Err: statusError(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: fmt.Errorf("failed to read feed: %w", err)}
	}

	entries, err := c.parse(body)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	return entries, nil
}

func (c *Client) parse(body []byte) ([]Entry, error) {
	doc, err := c.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(doc.Items))
	for _, item := range doc.Items {
		if item == nil {
			continue
		}
		entries = append(entries, toEntry(item))
	}
	return entries, nil
}

func toEntry(item *gofeed.Item) Entry {
	content := item.Content
	if content == "" {
		content = item.Description
	}
	id := item.GUID
	if id == "" {
		id = item.Link
	}

	e := Entry{
		ID:           id,
		Title:        item.Title,
		Content:      content,
		URL:          item.Link,
		RawPublished: item.Published,
	}
	if item.PublishedParsed != nil {
		e.PublishedAt = item.PublishedParsed.UTC()
	}
	return e
}

func statusError(statusCode int) error {
	switch statusCode {
	case http.StatusNotFound:
		return errors.New("feed not found - check feed.url")
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.New("feed access denied")
	case http.StatusTooManyRequests:
		return errors.New("feed rate limit exceeded - please try again later")
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return errors.New("feed server error - please try again later")
	default:
		return fmt.Errorf("unexpected status %d", statusCode)
	}
}
