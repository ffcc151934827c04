package api

import (
	"bytes"             // Request bodies
	"encoding/json"     // Response decoding
	"net/http"          // Status codes
	"net/http/httptest" // Response recorders
	"testing"           // Testing package

	"github.com/DATA-DOG/go-sqlmock"      // SQL mocking
	"github.com/gin-gonic/gin"            // Gin web framework
	"github.com/stretchr/testify/assert"  // Assertion library
	"github.com/stretchr/testify/require" // Hard assertions
	"gorm.io/driver/mysql"                // MySQL driver for GORM
	"gorm.io/gorm"                        // GORM ORM library
)

// newMockDB opens a GORM connection over a sqlmock database
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB, // Mocked connection
		SkipInitializeWithVersion: true,  // No version handshake against the mock
	}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

// newDeviceRouter builds a router with the session already resolved
func newDeviceRouter(db *gorm.DB, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID) // Stand-in for the JWT middleware
		c.Next()
	})
	r.POST("/api/device/register", RegisterDeviceHandler(db))
	r.POST("/api/device/update", UpdateDeviceHandler(db))
	r.POST("/api/device/remove", RemoveDeviceHandler(db))
	return r
}

// postJSON performs a JSON POST against the router
func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// deviceColumns are the columns handlers read back from the devices table
var deviceColumns = []string{"id", "user_id", "pairing_code", "pet_name", "pet_type", "status"}

// TestRegisterDeviceConflict checks that a code held by another user's
// paired device answers 409
func TestRegisterDeviceConflict(t *testing.T) {
	db, mock := newMockDB(t)
	r := newDeviceRouter(db, "user-1")

	mock.ExpectQuery("SELECT(.+)FROM `devices`").
		WithArgs("ABC123", "paired", 1).
		WillReturnRows(sqlmock.NewRows(deviceColumns).
			AddRow("dev-1", "user-2", "ABC123", "Whiskers", "cat", "paired"))

	w := postJSON(r, "/api/device/register", gin.H{
		"device_code": "abc123", // Lowercase input must still conflict
		"pet_name":    "Rex",
		"pet_type":    "dog",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "already connected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRegisterDeviceReconnectOwn checks that re-pairing an own device
// updates it in place instead of conflicting
func TestRegisterDeviceReconnectOwn(t *testing.T) {
	db, mock := newMockDB(t)
	r := newDeviceRouter(db, "user-1")

	mock.ExpectQuery("SELECT(.+)FROM `devices`").
		WithArgs("ABC123", "paired", 1).
		WillReturnRows(sqlmock.NewRows(deviceColumns).
			AddRow("dev-1", "user-1", "ABC123", "Whiskers", "cat", "paired"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `devices` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := postJSON(r, "/api/device/register", gin.H{
		"device_code": "ABC123",
		"pet_name":    "Rex",
		"pet_type":    "dog",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "dev-1", resp["device_id"])
	assert.Contains(t, resp["message"], "reconnected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRegisterDeviceFreedCode checks that a code with no paired holder
// pairs a fresh device, even if an unpaired row once used it
func TestRegisterDeviceFreedCode(t *testing.T) {
	db, mock := newMockDB(t)
	r := newDeviceRouter(db, "user-1")

	// No currently-paired device holds the code
	mock.ExpectQuery("SELECT(.+)FROM `devices`").
		WithArgs("XYZ789", "paired", 1).
		WillReturnRows(sqlmock.NewRows(deviceColumns))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `devices`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := postJSON(r, "/api/device/register", gin.H{
		"device_code": "xyz789",
		"pet_name":    "Shelly",
		"pet_type":    "turtle",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["device_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRegisterDeviceValidation checks the input guards short-circuit
// before touching the database
func TestRegisterDeviceValidation(t *testing.T) {
	db, mock := newMockDB(t)
	r := newDeviceRouter(db, "user-1")

	// Wrong code length
	w := postJSON(r, "/api/device/register", gin.H{
		"device_code": "ABCD",
		"pet_name":    "Rex",
		"pet_type":    "dog",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Pet type outside the enum
	w = postJSON(r, "/api/device/register", gin.H{
		"device_code": "ABC123",
		"pet_name":    "Rex",
		"pet_type":    "dragon",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUpdateDeviceOwnershipMismatch checks that another user's device
// answers exactly like a missing one
func TestUpdateDeviceOwnershipMismatch(t *testing.T) {
	db, mock := newMockDB(t)
	r := newDeviceRouter(db, "user-1")

	mock.ExpectQuery("SELECT(.+)FROM `devices`").
		WithArgs("dev-2", 1).
		WillReturnRows(sqlmock.NewRows(deviceColumns).
			AddRow("dev-2", "user-2", "DEF456", "Flopsy", "rabbit", "paired"))

	w := postJSON(r, "/api/device/update", gin.H{
		"device_id": "dev-2",
		"pet_name":  "Hijacked",
		"pet_type":  "cat",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Device not found", resp["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRemoveDeviceNotFound checks the missing-device answer
func TestRemoveDeviceNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := newDeviceRouter(db, "user-1")

	mock.ExpectQuery("SELECT(.+)FROM `devices`").
		WithArgs("dev-404", 1).
		WillReturnRows(sqlmock.NewRows(deviceColumns))

	w := postJSON(r, "/api/device/remove", gin.H{"device_id": "dev-404"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Device not found", resp["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRemoveDeviceOwn checks that the owner can unpair their device
func TestRemoveDeviceOwn(t *testing.T) {
	db, mock := newMockDB(t)
	r := newDeviceRouter(db, "user-1")

	mock.ExpectQuery("SELECT(.+)FROM `devices`").
		WithArgs("dev-1", 1).
		WillReturnRows(sqlmock.NewRows(deviceColumns).
			AddRow("dev-1", "user-1", "ABC123", "Whiskers", "cat", "paired"))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `devices`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := postJSON(r, "/api/device/remove", gin.H{"device_id": "dev-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
