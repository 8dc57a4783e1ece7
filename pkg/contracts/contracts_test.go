package contracts

import (
	"encoding/json"
	"testing"
	"time"
)

// TestJSONFeedContract_MatchesVersion11 validates the feed fixture against
// the parts of JSON Feed 1.1 that litesync relies on.
func TestJSONFeedContract_MatchesVersion11(t *testing.T) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(JSONFeedContract), &doc); err != nil {
		t.Fatalf("feed contract is invalid JSON: %v", err)
	}

	if doc["version"] != "https://jsonfeed.org/version/1.1" {
		t.Errorf("version should be JSON Feed 1.1, got %v", doc["version"])
	}

	items, ok := doc["items"].([]interface{})
	if !ok || len(items) == 0 {
		t.Fatal("feed contract should contain items")
	}

	for i, raw := range items {
		item := raw.(map[string]interface{})
		// JSON Feed requires id on every item
		if id, _ := item["id"].(string); id == "" {
			t.Errorf("item %d: missing required field id", i)
		}
		published, _ := item["date_published"].(string)
		if _, err := time.Parse(time.RFC3339, published); err != nil {
			t.Errorf("item %d: date_published should be RFC 3339, got %q", i, published)
		}
	}
}

// TestNoteRequestContract_HasRequiredMetadata validates the gateway request fixture.
func TestNoteRequestContract_HasRequiredMetadata(t *testing.T) {
	var req map[string]map[string]interface{}
	if err := json.Unmarshal([]byte(NoteRequestContract), &req); err != nil {
		t.Fatalf("request contract is invalid JSON: %v", err)
	}

	metadata, ok := req["metadata"]
	if !ok {
		t.Fatal("request contract should wrap the note in metadata")
	}
	for _, field := range []string{"title", "content", "sources", "date_published"} {
		if _, exists := metadata[field]; !exists {
			t.Errorf("metadata missing field %q", field)
		}
	}

	sources, _ := metadata["sources"].([]interface{})
	if len(sources) != 1 || sources[0] != "liteSync" {
		t.Errorf("sources should be [\"liteSync\"], got %v", metadata["sources"])
	}
}

// TestNoteResponseContract_CarriesConfirmation validates the gateway response fixtures.
func TestNoteResponseContract_CarriesConfirmation(t *testing.T) {
	var confirmed map[string]interface{}
	if err := json.Unmarshal([]byte(NoteResponseContract), &confirmed); err != nil {
		t.Fatalf("response contract is invalid JSON: %v", err)
	}
	if _, ok := confirmed["noteId"].(float64); !ok {
		t.Errorf("noteId should be numeric, got %T", confirmed["noteId"])
	}
	if hash, _ := confirmed["transactionHash"].(string); len(hash) != 66 {
		t.Errorf("transactionHash should be a 32-byte hex string, got %q", hash)
	}

	var pending map[string]interface{}
	if err := json.Unmarshal([]byte(PendingResponseContract), &pending); err != nil {
		t.Fatalf("pending contract is invalid JSON: %v", err)
	}
	if _, ok := pending["noteId"]; ok {
		t.Error("pending response must not carry a noteId")
	}
}
