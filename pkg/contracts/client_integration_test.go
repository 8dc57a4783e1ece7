// Package contracts integration tests verify that actual clients
// correctly handle payloads matching the defined contracts.
package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/gauthierbraillon/litesync/internal/delta"
	"github.com/gauthierbraillon/litesync/internal/feed"
	"github.com/gauthierbraillon/litesync/internal/publisher"
)

func serve(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// TestFeedClient_ParsesJSONFeedContract verifies the feed client and the
// delta selector agree with the recorded JSON Feed.
func TestFeedClient_ParsesJSONFeedContract(t *testing.T) {
	server := serve(t, "application/feed+json", JSONFeedContract)

	entries, err := feed.NewClient(server.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("client should parse contract feed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// Offsets are normalized to UTC
	want := time.Date(2024, 3, 2, 7, 30, 0, 0, time.UTC)
	if !entries[0].PublishedAt.Equal(want) || entries[0].PublishedAt.Location() != time.UTC {
		t.Errorf("expected %v in UTC, got %v", want, entries[0].PublishedAt)
	}

	notes, err := delta.Select(entries, time.Time{})
	if err != nil {
		t.Fatalf("contract feed should select cleanly: %v", err)
	}
	var titles []string
	for _, n := range notes {
		titles = append(titles, n.Title)
	}
	// Ties keep feed order
	wantTitles := []string{"First Light", "Second Light", "Tidepools"}
	if !reflect.DeepEqual(titles, wantTitles) {
		t.Errorf("expected %v, got %v", wantTitles, titles)
	}
}

// TestFeedClient_ParsesRSSContract verifies RSS feeds yield the same entry shape.
func TestFeedClient_ParsesRSSContract(t *testing.T) {
	server := serve(t, "application/rss+xml", RSSContract)

	entries, err := feed.NewClient(server.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("client should parse contract feed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Title != "First Light" {
		t.Errorf("expected title 'First Light', got %q", entries[0].Title)
	}
	if !entries[0].PublishedAt.Equal(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected publication time %v", entries[0].PublishedAt)
	}
}

// TestPublisherClient_SendsRequestContract verifies the body posted to the
// gateway has exactly the shape of the recorded request.
func TestPublisherClient_SendsRequestContract(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(NoteResponseContract))
	}))
	defer server.Close()

	note := delta.Note{
		Title:       "First Light",
		Content:     "<p>The observatory opens.</p>",
		SourceTags:  []string{delta.SourceTag},
		PublishedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
	}

	conf, err := publisher.NewClient(server.URL, "token", "42").Publish(context.Background(), note)
	if err != nil {
		t.Fatalf("client should accept contract response: %v", err)
	}

	var want map[string]interface{}
	if err := json.Unmarshal([]byte(NoteRequestContract), &want); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("request body does not match contract\n got: %v\nwant: %v", got, want)
	}

	if conf.ID != "318" {
		t.Errorf("expected note id 318, got %q", conf.ID)
	}
	if conf.Reference != "0x6a1f0c2d9e8b7a6f5e4d3c2b1a0f9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2f" {
		t.Errorf("unexpected reference %q", conf.Reference)
	}
}

// TestPublisherClient_RejectsPendingContract verifies an unconfirmed
// response is a publish failure, so the checkpoint cannot move past it.
func TestPublisherClient_RejectsPendingContract(t *testing.T) {
	server := serve(t, "application/json", PendingResponseContract)

	_, err := publisher.NewClient(server.URL, "token", "42").Publish(context.Background(), delta.Note{Title: "First Light"})

	if err == nil {
		t.Fatal("pending response should not count as a confirmation")
	}
	var pubErr *publisher.PublishError
	if !errors.As(err, &pubErr) {
		t.Errorf("expected *publisher.PublishError, got %T", err)
	}
}
