// Package feed provides a client for fetching the upstream content feed.
//
// JSON Feed, RSS and Atom documents are accepted. Each item is coerced into
// an Entry as soon as it is parsed; nothing downstream sees raw feed items.
package feed

import (
	"fmt"
	"time"
)

// Entry is one item of the feed snapshot.
//
// PublishedAt is zero when the item had no publication date or the date
// could not be parsed; RawPublished keeps the original text for reporting.
type Entry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	URL          string    `json:"url"`
	RawPublished string    `json:"raw_published"`
	PublishedAt  time.Time `json:"published_at"`
}

// FetchError reports a feed that could not be retrieved or parsed.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch feed %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
