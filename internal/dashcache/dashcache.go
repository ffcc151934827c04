// Package dashcache keeps the last dashboard post listing per browsing
// session so navigating away and back does not refetch within a short
// window. The cache is never authoritative: it is always safe to discard
// and recompute from the database.
package dashcache

import (
	"context"       // Context for storage operations
	"encoding/json" // Snapshot serialization
	"time"          // Freshness window

	"github.com/sirupsen/logrus" // Logging library

	"ganamos/internal/domain" // Importing domain models
)

// CacheDuration is how long a written snapshot counts as fresh
const CacheDuration = 5 * time.Minute

const keyPrefix = "dashboard:cache:session:" // One snapshot per session

// Filters is the filter set the cached listing was fetched with
type Filters struct {
	DateFilter  string  `json:"date_filter"`  // Date range filter
	RewardMin   int64   `json:"reward_min"`   // Lower bound of the reward range
	RewardMax   int64   `json:"reward_max"`   // Upper bound of the reward range
	Location    string  `json:"location"`     // Location filter
	Latitude    float64 `json:"latitude"`     // Viewer latitude, used by the proximity sort
	Longitude   float64 `json:"longitude"`    // Viewer longitude, used by the proximity sort
	SearchQuery string  `json:"search_query"` // Free-text search
	SortBy      string  `json:"sort_by"`      // proximity, recency or reward
}

// Snapshot is the last cached page of posts for one session
type Snapshot struct {
	Posts       []domain.Post `json:"posts"`        // Cached posts
	CurrentPage int           `json:"current_page"` // Page the posts belong to
	HasMore     bool          `json:"has_more"`     // Whether more pages exist
	Filters     *Filters      `json:"filters"`      // Filters applied at fetch time
	LastFetched *time.Time    `json:"last_fetched"` // When the snapshot was written, nil if never
}

// DefaultSnapshot is the empty state: no posts, page 1, more pages assumed,
// no filters, never fetched
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Posts:       []domain.Post{}, // No cached posts
		CurrentPage: 1,               // First page
		HasMore:     true,            // Assume more pages exist
		Filters:     nil,             // No filters applied
		LastFetched: nil,             // Never written
	}
}

// FreshAt reports whether the snapshot is fresh at the given instant.
// A snapshot that was never written is always stale.
func (s Snapshot) FreshAt(now time.Time) bool {
	if s.LastFetched == nil {
		return false // Never written
	}
	return now.Sub(*s.LastFetched) < CacheDuration
}

// KV is the storage the cache persists snapshots to
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error) // Fetch a value, false if absent
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store reads and writes per-session listing snapshots. All storage and
// serialization failures degrade to the default empty state and are never
// surfaced to the caller.
type Store struct {
	kv  KV               // Backing storage
	now func() time.Time // Clock, overridable in tests
}

// NewStore creates a Store over the given storage
func NewStore(kv KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Read returns the cached snapshot for the session, or the default empty
// state if nothing usable is cached
func (st *Store) Read(ctx context.Context, sessionID string) Snapshot {
	data, found, err := st.kv.Get(ctx, keyPrefix+sessionID)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("Error loading dashboard cache")
		return DefaultSnapshot() // Degrade to a miss
	}
	if !found {
		return DefaultSnapshot() // Nothing cached yet
	}
	var snap Snapshot
	// A corrupted snapshot falls back to the default without raising
	if err := json.Unmarshal(data, &snap); err != nil {
		logrus.WithField("error", err.Error()).Error("Error parsing dashboard cache")
		return DefaultSnapshot()
	}
	return snap
}

// Write replaces the session's snapshot atomically, stamped with the
// current time. Last write wins; there is no history.
func (st *Store) Write(ctx context.Context, sessionID string, posts []domain.Post, page int, hasMore bool, filters *Filters) {
	fetched := st.now()
	snap := Snapshot{
		Posts:       posts,    // Cached posts
		CurrentPage: page,     // Page the posts belong to
		HasMore:     hasMore,  // Whether more pages exist
		Filters:     filters,  // Filters applied at fetch time
		LastFetched: &fetched, // Stamp with the current time
	}
	data, err := json.Marshal(snap)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("Error saving dashboard cache")
		return // Never blocks rendering
	}
	// The storage TTL doubles as the session cleanup: stale snapshots expire
	if err := st.kv.Set(ctx, keyPrefix+sessionID, data, CacheDuration); err != nil {
		logrus.WithField("error", err.Error()).Error("Error saving dashboard cache")
	}
}

// Clear resets the session's snapshot to the default empty state
func (st *Store) Clear(ctx context.Context, sessionID string) {
	if err := st.kv.Del(ctx, keyPrefix+sessionID); err != nil {
		logrus.WithField("error", err.Error()).Error("Error clearing dashboard cache")
	}
}

// IsFresh reports whether the snapshot is still inside the freshness window
func (st *Store) IsFresh(snap Snapshot) bool {
	return snap.FreshAt(st.now())
}
