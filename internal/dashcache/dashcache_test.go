package dashcache

import (
	"context" // Context for storage operations
	"errors"  // Simulated storage failures
	"testing" // Testing package
	"time"    // Fake clock

	"github.com/stretchr/testify/assert" // Assertion library

	"ganamos/internal/domain" // Importing domain models
)

// fakeKV is an in-memory KV for tests
type fakeKV struct {
	data map[string][]byte
	err  error // Returned by every operation when set
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	val, ok := f.data[key]
	return val, ok, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Del(ctx context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.data, key)
	return nil
}

// newTestStore builds a Store with a fake clock starting at a fixed instant
func newTestStore(kv KV) (*Store, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore(kv)
	st.now = func() time.Time { return now }
	return st, &now
}

// TestReadEmptyReturnsDefault checks the default state before any write
func TestReadEmptyReturnsDefault(t *testing.T) {
	st, _ := newTestStore(newFakeKV())

	snap := st.Read(context.Background(), "session-1")

	assert.Equal(t, []domain.Post{}, snap.Posts) // Empty, not nil
	assert.Equal(t, 1, snap.CurrentPage)
	assert.True(t, snap.HasMore)
	assert.Nil(t, snap.Filters)
	assert.Nil(t, snap.LastFetched)
	assert.False(t, st.IsFresh(snap)) // Never written, always stale
}

// TestWriteThenReadIsFresh checks the roundtrip inside the freshness window
func TestWriteThenReadIsFresh(t *testing.T) {
	st, now := newTestStore(newFakeKV())
	posts := []domain.Post{{ID: "p1", Title: "Broken bench"}}
	filters := &Filters{Location: "Madrid", SortBy: "recency"}

	st.Write(context.Background(), "session-1", posts, 2, false, filters)
	snap := st.Read(context.Background(), "session-1")

	assert.Equal(t, posts, snap.Posts)
	assert.Equal(t, 2, snap.CurrentPage)
	assert.False(t, snap.HasMore)
	assert.Equal(t, filters, snap.Filters)
	assert.True(t, st.IsFresh(snap))

	// Still fresh just inside the window
	*now = now.Add(CacheDuration - time.Second)
	assert.True(t, st.IsFresh(snap))

	// Stale once the window has passed
	*now = now.Add(2 * time.Second)
	assert.False(t, st.IsFresh(snap))
}

// TestSessionsAreIsolated checks that sessions never see each other's snapshots
func TestSessionsAreIsolated(t *testing.T) {
	st, _ := newTestStore(newFakeKV())

	st.Write(context.Background(), "session-1", []domain.Post{{ID: "p1"}}, 1, true, nil)

	other := st.Read(context.Background(), "session-2")
	assert.Empty(t, other.Posts)
	assert.Nil(t, other.LastFetched)
}

// TestClearResetsToDefault checks that clearing drops the snapshot
func TestClearResetsToDefault(t *testing.T) {
	st, _ := newTestStore(newFakeKV())

	st.Write(context.Background(), "session-1", []domain.Post{{ID: "p1"}}, 3, true, nil)
	st.Clear(context.Background(), "session-1")

	snap := st.Read(context.Background(), "session-1")
	assert.Empty(t, snap.Posts)
	assert.Equal(t, 1, snap.CurrentPage)
	assert.Nil(t, snap.LastFetched)
}

// TestCorruptDataFallsBack checks that unparseable snapshots degrade silently
func TestCorruptDataFallsBack(t *testing.T) {
	kv := newFakeKV()
	st, _ := newTestStore(kv)
	kv.data[keyPrefix+"session-1"] = []byte("{not json")

	snap := st.Read(context.Background(), "session-1")

	assert.Equal(t, DefaultSnapshot(), snap)
}

// TestStorageErrorFallsBack checks that storage failures degrade silently
func TestStorageErrorFallsBack(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("connection refused")
	st, _ := newTestStore(kv)

	snap := st.Read(context.Background(), "session-1")
	assert.Equal(t, DefaultSnapshot(), snap)

	// Writes and clears swallow the error too
	st.Write(context.Background(), "session-1", nil, 1, true, nil)
	st.Clear(context.Background(), "session-1")
}

// TestFreshAtBoundary checks the freshness window edge exactly
func TestFreshAtBoundary(t *testing.T) {
	written := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{LastFetched: &written}

	assert.True(t, snap.FreshAt(written))                           // Just written
	assert.True(t, snap.FreshAt(written.Add(CacheDuration-1)))      // Inside the window
	assert.False(t, snap.FreshAt(written.Add(CacheDuration)))       // Exactly at the boundary
	assert.False(t, snap.FreshAt(written.Add(CacheDuration+1)))     // Past the window
	assert.False(t, Snapshot{}.FreshAt(written))                    // Never written
}
