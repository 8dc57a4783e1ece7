package ciconfig

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var pinnedSHA = regexp.MustCompile(`@[0-9a-f]{40}`)

func workflowFiles(t *testing.T) []string {
	t.Helper()
	workflows, err := filepath.Glob("../../.github/workflows/*.yml")
	if err != nil {
		t.Fatal(err)
	}
	if len(workflows) == 0 {
		t.Fatal("no workflow files found")
	}
	return workflows
}

func TestWorkflowActions_PinnedToCommitSHA(t *testing.T) {
	for _, path := range workflowFiles(t) {
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		for i, line := range strings.Split(string(content), "\n") {
			if !strings.Contains(line, "uses:") {
				continue
			}
			if !pinnedSHA.MatchString(line) {
				t.Errorf("%s:%d: action not pinned to commit SHA: %s",
					filepath.Base(path), i+1, strings.TrimSpace(line))
			}
		}
	}
}

// Overlapping passes could publish the same entry twice, so the scheduled
// workflow must never run concurrently with itself.
func TestSyncWorkflow_DoesNotOverlap(t *testing.T) {
	content, err := os.ReadFile("../../.github/workflows/sync.yml")
	if err != nil {
		t.Fatal(err)
	}
	text := string(content)

	if !strings.Contains(text, "concurrency:") {
		t.Error("sync.yml: missing concurrency group")
	}
	if !strings.Contains(text, "cancel-in-progress: false") {
		t.Error("sync.yml: a running pass must not be cancelled by the next one")
	}
}

func TestSyncWorkflow_TokenComesFromSecrets(t *testing.T) {
	content, err := os.ReadFile("../../.github/workflows/sync.yml")
	if err != nil {
		t.Fatal(err)
	}

	for i, line := range strings.Split(string(content), "\n") {
		if !strings.Contains(line, "LITESYNC_PUBLISHER_TOKEN:") {
			continue
		}
		if !strings.Contains(line, "secrets.") {
			t.Errorf("sync.yml:%d: publisher token must be read from secrets: %s", i+1, strings.TrimSpace(line))
		}
	}
}
