// Package delta computes which feed entries still need to be published.
//
// Select is pure: given a feed snapshot and the checkpoint time it returns
// the entries published strictly after the checkpoint, oldest first, as
// notes ready for the publisher.
package delta

import (
	"fmt"
	"slices"
	"time"

	"github.com/gauthierbraillon/litesync/internal/feed"
)

// SourceTag marks every note produced by this tool.
const SourceTag = "liteSync"

// Note is a feed entry normalized for publishing.
type Note struct {
	Title       string
	Content     string
	SourceTags  []string
	PublishedAt time.Time
}

// NormalizationError reports a snapshot entry with unusable data.
type NormalizationError struct {
	Index int
	ID    string
	Title string
	Field string
	Value string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("entry %d (%q, id %q): invalid %s %q", e.Index, e.Title, e.ID, e.Field, e.Value)
}

// Select returns the notes for every entry with PublishedAt after since,
// sorted ascending by PublishedAt. Entries with equal times keep their
// snapshot order.
//
// Every entry must carry a publication time, including those that would be
// filtered out: without one it cannot be placed relative to the checkpoint.
// The first such entry aborts selection with a *NormalizationError.
func Select(entries []feed.Entry, since time.Time) ([]Note, error) {
	for i, e := range entries {
		if e.PublishedAt.IsZero() {
			return nil, &NormalizationError{Index: i, ID: e.ID, Title: e.Title, Field: "publishedAt", Value: e.RawPublished}
		}
	}

	pending := make([]feed.Entry, 0, len(entries))
	for _, e := range entries {
		if e.PublishedAt.After(since) {
			pending = append(pending, e)
		}
	}

	slices.SortStableFunc(pending, func(a, b feed.Entry) int {
		return a.PublishedAt.Compare(b.PublishedAt)
	})

	notes := make([]Note, 0, len(pending))
	for _, e := range pending {
		notes = append(notes, Note{
			Title:       e.Title,
			Content:     e.Content,
			SourceTags:  []string{SourceTag},
			PublishedAt: e.PublishedAt,
		})
	}
	return notes, nil
}
