package state

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "state.json"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Load())
	return store
}

func record(id, author string, processedAt time.Time, status DeliveryStatus, retries int) DeliveryRecord {
	return DeliveryRecord{
		VideoID:     id,
		Author:      author,
		ProcessedAt: processedAt,
		Status:      status,
		RetryCount:  retries,
	}
}

func TestMarkProcessedAndExists(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	assert.False(t, store.Exists("v1"))

	require.NoError(t, store.MarkProcessed(record("v1", "a", now, StatusPending, 0)))

	assert.True(t, store.Exists("v1"))

	recent := store.RecentRecords(10)
	require.Len(t, recent, 1)
	assert.Equal(t, "v1", recent[0].VideoID)
	assert.Equal(t, StatusPending, recent[0].Status)
}

func TestMarkProcessedIdempotent(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	rec := record("v1", "a", now, StatusPending, 0)
	require.NoError(t, store.MarkProcessed(rec))
	require.NoError(t, store.MarkProcessed(rec))

	assert.Equal(t, 1, store.Len())

	// The final state matches the last upsert
	rec.Status = StatusSent
	rec.RetryCount = 2
	require.NoError(t, store.MarkProcessed(rec))

	got, ok := store.Record("v1")
	require.True(t, ok)
	assert.Equal(t, StatusSent, got.Status)
	assert.Equal(t, 2, got.RetryCount)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Load())

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkProcessed(record("v1", "a", base, StatusSent, 1)))
	require.NoError(t, store.MarkProcessed(record("v2", "b", base.Add(time.Hour), StatusFailed, 3)))
	require.NoError(t, store.SetLastCheck("a", base.Add(2*time.Hour)))

	reloaded, err := NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())

	assert.True(t, reloaded.Exists("v1"))
	assert.True(t, reloaded.Exists("v2"))
	assert.False(t, reloaded.Exists("v3"))

	recent := reloaded.RecentRecords(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "v2", recent[0].VideoID) // most recent first
	assert.Equal(t, "v1", recent[1].VideoID)
	assert.Equal(t, StatusFailed, recent[0].Status)
	assert.Equal(t, 3, recent[0].RetryCount)
	assert.Equal(t, base.Add(time.Hour), recent[0].ProcessedAt)

	lastCheck, ok := reloaded.GetLastCheck("a")
	require.True(t, ok)
	assert.Equal(t, base.Add(2*time.Hour), lastCheck)

	_, ok = reloaded.GetLastCheck("b")
	assert.False(t, ok)
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.NoError(t, err)

	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.RecentRecords(10))
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store, err := NewStore(path, nil)
	require.NoError(t, err)

	err = store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode state file")
}

func TestRecentRecordsCap(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 150; i++ {
		rec := record(fmt.Sprintf("v%03d", i), "a", base.Add(time.Duration(i)*time.Minute), StatusSent, 0)
		require.NoError(t, store.MarkProcessed(rec))
	}

	// Default (unbounded) query clamps to the hard cap
	recent := store.RecentRecords(0)
	require.Len(t, recent, MaxRecentRecords)
	assert.Equal(t, "v149", recent[0].VideoID)
	assert.Equal(t, "v050", recent[len(recent)-1].VideoID)

	// Requests above the cap clamp too
	assert.Len(t, store.RecentRecords(500), MaxRecentRecords)

	// Smaller limits are honored exactly
	assert.Len(t, store.RecentRecords(7), 7)
}

func TestRecentRecordsReturnsAllWhenUnderLimit(t *testing.T) {
	store := newTestStore(t)
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		rec := record(fmt.Sprintf("v%d", i), "a", base.Add(time.Duration(i)*time.Second), StatusSent, 0)
		require.NoError(t, store.MarkProcessed(rec))
	}

	assert.Len(t, store.RecentRecords(10), 5)
	assert.Len(t, store.RecentRecords(100), 5)
}

func TestFailedRecords(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.MarkProcessed(record("ok", "a", now, StatusSent, 0)))
	require.NoError(t, store.MarkProcessed(record("bad1", "a", now, StatusFailed, 2)))
	require.NoError(t, store.MarkProcessed(record("bad2", "b", now, StatusFailed, 4)))
	require.NoError(t, store.MarkProcessed(record("wip", "b", now, StatusPending, 0)))

	failed := store.FailedRecords()
	require.Len(t, failed, 2)
	ids := []string{failed[0].VideoID, failed[1].VideoID}
	assert.ElementsMatch(t, []string{"bad1", "bad2"}, ids)
}

func TestSetLastCheckPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Load())

	checked := time.Date(2025, 7, 15, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.SetLastCheck("someauthor", checked))

	reloaded, err := NewStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())

	got, ok := reloaded.GetLastCheck("someauthor")
	require.True(t, ok)
	assert.Equal(t, checked, got)
}
