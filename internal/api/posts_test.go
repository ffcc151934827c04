package api

import (
	"context"           // KV operations
	"encoding/json"     // Response decoding
	"net/http"          // Status codes
	"net/http/httptest" // Response recorders
	"testing"           // Testing package
	"time"              // KV TTLs

	"github.com/DATA-DOG/go-sqlmock"      // SQL mocking
	"github.com/gin-gonic/gin"            // Gin web framework
	"github.com/stretchr/testify/assert"  // Assertion library
	"github.com/stretchr/testify/require" // Hard assertions
	"gorm.io/gorm"                        // GORM ORM library

	"ganamos/internal/dashcache" // Session-scoped listing cache
)

// memoryKV is an in-memory stand-in for the Redis-backed listing cache
type memoryKV struct {
	data map[string][]byte
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string][]byte{}}
}

func (m *memoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *memoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memoryKV) Del(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// newListingRouter builds a router with the session already resolved
func newListingRouter(db *gorm.DB, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID) // Stand-in for the JWT middleware
		c.Next()
	})
	r.GET("/api/posts", ListPostsHandler(db, dashcache.NewStore(newMemoryKV())))
	return r
}

func getListing(t *testing.T, r *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

// postColumns are the columns the listing reads back from the posts table
var postColumns = []string{"id", "title", "city", "reward", "fixed", "created_by"}

// TestListPostsProximityOrder checks that the proximity sort orders by
// coordinate distance to the viewer
func TestListPostsProximityOrder(t *testing.T) {
	db, mock := newMockDB(t)
	r := newListingRouter(db, "user-1")

	mock.ExpectQuery("SELECT count(.+)FROM `posts`").
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	// The viewer's coordinates must drive the ordering expression
	mock.ExpectQuery("SELECT(.+)FROM `posts`(.+)ORDER BY POW\\(latitude - \\?, 2\\) \\+ POW\\(longitude - \\?, 2\\)").
		WithArgs(false, 37.5, -122.3, 20).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow("p-near", "Broken bench", "Palo Alto", 500, false, "user-2").
			AddRow("p-far", "Graffiti", "Oakland", 1000, false, "user-3"))

	code, resp := getListing(t, r, "/api/posts?sort=proximity&lat=37.5&lng=-122.3")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["cached"])
	posts := resp["posts"].([]any)
	require.Len(t, posts, 2)
	assert.Equal(t, "p-near", posts[0].(map[string]any)["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestListPostsProximityWithoutLocationFallsBack checks that a proximity
// request without viewer coordinates sorts by recency instead
func TestListPostsProximityWithoutLocationFallsBack(t *testing.T) {
	db, mock := newMockDB(t)
	r := newListingRouter(db, "user-1")

	mock.ExpectQuery("SELECT count(.+)FROM `posts`").
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT(.+)FROM `posts`(.+)ORDER BY created_at desc").
		WithArgs(false, 20).
		WillReturnRows(sqlmock.NewRows(postColumns))

	code, _ := getListing(t, r, "/api/posts?sort=proximity")

	assert.Equal(t, http.StatusOK, code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestListPostsServedFromSessionCache checks that a repeated request
// inside the freshness window never touches the database again
func TestListPostsServedFromSessionCache(t *testing.T) {
	db, mock := newMockDB(t)
	r := newListingRouter(db, "user-1")

	// Only one pair of queries is expected across both requests
	mock.ExpectQuery("SELECT count(.+)FROM `posts`").
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT(.+)FROM `posts`").
		WithArgs(false, 20).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow("p-1", "Broken bench", "Palo Alto", 500, false, "user-2"))

	code, resp := getListing(t, r, "/api/posts")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["cached"])

	code, resp = getListing(t, r, "/api/posts")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["cached"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
