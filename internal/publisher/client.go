package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gauthierbraillon/litesync/internal/delta"
)

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

// WithTimeout bounds a single publish call, including confirmation.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client posts notes to a ledger gateway on behalf of one character.
type Client struct {
	endpoint   string
	token      string
	character  string
	httpClient HTTPClient
	timeout    time.Duration
}

// NewClient creates a gateway client. endpoint is the gateway base URL.
func NewClient(endpoint, token, character string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		token:      token,
		character:  character,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish posts note and returns once the gateway confirms it.
// A 2xx response without a note id is treated as unconfirmed.
func (c *Client) Publish(ctx context.Context, note delta.Note) (Confirmation, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(noteRequest{Metadata: noteMetadata{
		Title:         note.Title,
		Content:       note.Content,
		Sources:       note.SourceTags,
		DatePublished: note.PublishedAt.UTC().Format(time.RFC3339Nano),
	}})
	if err != nil {
		return Confirmation{}, &PublishError{Title: note.Title, Err: fmt.Errorf("failed to marshal note: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.notesURL(), bytes.NewReader(payload))
	if err != nil {
		return Confirmation{}, &PublishError{Title: note.Title, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Confirmation{}, &PublishError{Title: note.Title, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Confirmation{}, &PublishError{Title: note.Title, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Confirmation{}, &PublishError{Title: note.Title, StatusCode: resp.StatusCode, Err: handleAPIError(resp.StatusCode)}
	}

	var out noteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Confirmation{}, &PublishError{Title: note.Title, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if out.NoteID == nil {
		return Confirmation{}, &PublishError{Title: note.Title, StatusCode: resp.StatusCode, Err: errors.New("gateway did not confirm the note")}
	}

	return Confirmation{ID: out.NoteID.String(), Reference: out.TransactionHash}, nil
}

func (c *Client) notesURL() string {
	return fmt.Sprintf("%s/v1/characters/%s/notes", c.endpoint, url.PathEscape(c.character))
}

// Wire types (private - implementation detail)

type noteRequest struct {
	Metadata noteMetadata `json:"metadata"`
}

type noteMetadata struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Sources       []string `json:"sources"`
	DatePublished string   `json:"date_published"`
}

type noteResponse struct {
	NoteID          *json.Number `json:"noteId"`
	TransactionHash string       `json:"transactionHash"`
}

func handleAPIError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return errors.New("gateway authentication failed - check publisher.token")
	case http.StatusForbidden:
		return errors.New("gateway access denied - the token cannot post for this character")
	case http.StatusNotFound:
		return errors.New("character not found - check publisher.character")
	case http.StatusConflict:
		return errors.New("gateway rejected the note as a conflict")
	case http.StatusTooManyRequests:
		return errors.New("gateway rate limit exceeded - please try again later")
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return errors.New("gateway server error - please try again later")
	default:
		return fmt.Errorf("gateway error (status %d)", statusCode)
	}
}
