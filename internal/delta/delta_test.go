package delta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/litesync/internal/checkpoint"
	"github.com/gauthierbraillon/litesync/internal/feed"
)

var (
	day1 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	day2 = day1.Add(24 * time.Hour)
	day3 = day2.Add(24 * time.Hour)
)

func entry(title string, at time.Time) feed.Entry {
	return feed.Entry{ID: title, Title: title, Content: "<p>" + title + "</p>", PublishedAt: at}
}

func titles(notes []Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Title)
	}
	return out
}

func TestSelect_FirstRunTakesEverythingOldestFirst(t *testing.T) {
	snapshot := []feed.Entry{entry("day3", day3), entry("day1", day1), entry("day2", day2)}

	notes, err := Select(snapshot, checkpoint.Origin)

	require.NoError(t, err)
	assert.Equal(t, []string{"day1", "day2", "day3"}, titles(notes))
}

func TestSelect_ExcludesEntriesAtOrBeforeCheckpoint(t *testing.T) {
	snapshot := []feed.Entry{entry("day1", day1), entry("day2", day2), entry("day3", day3)}

	notes, err := Select(snapshot, day2)

	require.NoError(t, err)
	assert.Equal(t, []string{"day3"}, titles(notes), "an entry exactly at the checkpoint is already synced")
}

func TestSelect_EqualTimesKeepSnapshotOrder(t *testing.T) {
	snapshot := []feed.Entry{
		entry("b", day2),
		entry("first-at-day1", day1),
		entry("a", day2),
		entry("second-at-day1", day1),
	}

	notes, err := Select(snapshot, checkpoint.Origin)

	require.NoError(t, err)
	assert.Equal(t, []string{"first-at-day1", "second-at-day1", "b", "a"}, titles(notes))
}

func TestSelect_OrderIsNonDecreasing(t *testing.T) {
	snapshot := make([]feed.Entry, 0, 50)
	for i := 0; i < 50; i++ {
		snapshot = append(snapshot, entry("e", day1.Add(time.Duration((i*37)%11)*time.Hour)))
	}

	notes, err := Select(snapshot, checkpoint.Origin)

	require.NoError(t, err)
	require.Len(t, notes, 50)
	for i := 1; i < len(notes); i++ {
		assert.False(t, notes[i].PublishedAt.Before(notes[i-1].PublishedAt), "note %d is older than note %d", i, i-1)
	}
}

func TestSelect_NormalizesNotes(t *testing.T) {
	notes, err := Select([]feed.Entry{entry("day1", day1)}, checkpoint.Origin)

	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "day1", notes[0].Title)
	assert.Equal(t, "<p>day1</p>", notes[0].Content)
	assert.Equal(t, []string{SourceTag}, notes[0].SourceTags)
	assert.True(t, notes[0].PublishedAt.Equal(day1))
}

func TestSelect_EmptySnapshotYieldsEmptyDelta(t *testing.T) {
	notes, err := Select(nil, checkpoint.Origin)

	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestSelect_MissingDateIsAHardError(t *testing.T) {
	bad := feed.Entry{ID: "x", Title: "undated", RawPublished: "someday"}
	snapshot := []feed.Entry{entry("day1", day1), bad, entry("day3", day3)}

	notes, err := Select(snapshot, day2)

	var normErr *NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, 1, normErr.Index)
	assert.Equal(t, "someday", normErr.Value)
	assert.Nil(t, notes, "no partial delta is returned")
}

func TestSelect_DoesNotMutateSnapshot(t *testing.T) {
	snapshot := []feed.Entry{entry("day2", day2), entry("day1", day1)}

	_, err := Select(snapshot, checkpoint.Origin)

	require.NoError(t, err)
	assert.Equal(t, "day2", snapshot[0].Title)
}
