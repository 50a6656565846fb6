package router

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"clarity/config"
	"clarity/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	// gorm pings once on open
	mock.ExpectPing()
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		Database: config.DatabaseConfig{AcquireTimeoutSeconds: 5},
		JWT:      config.JWTConfig{Secret: "router-test-secret", ExpireTime: time.Hour},
		CORS:     config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	middleware.InitJWT(cfg)

	return SetupRouter(cfg, db), mock
}

func do(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, mock := setupRouter(t)

	mock.ExpectPing()
	w := do(r, "GET", "/health", "")
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"up"}`, w.Body.String())

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	w = do(r, "GET", "/health", "")
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"status":"degraded","database":"down"}`, w.Body.String())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactions_RejectBadTokensBeforeStore(t *testing.T) {
	r, mock := setupRouter(t)

	expired, err := middleware.GenerateToken(1, "ada@example.com", -time.Minute)
	require.NoError(t, err)

	requests := []struct {
		method, path, token string
	}{
		{"GET", "/api/transactions", ""},
		{"GET", "/api/transactions/1", expired},
		{"PUT", "/api/transactions/1", "not.a.jwt"},
		{"DELETE", "/api/transactions/1", expired},
		{"POST", "/api/transactions", expired},
		{"GET", "/api/transactions/summary", ""},
		{"GET", "/api/transactions/export/csv", expired},
		{"GET", "/api/auth/me", expired},
	}
	for _, req := range requests {
		w := do(r, req.method, req.path, req.token)
		assert.Equal(t, 401, w.Code, "%s %s", req.method, req.path)
	}

	// no statement was issued
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactions_StaticRoutesBeforeID(t *testing.T) {
	r, mock := setupRouter(t)

	token, err := middleware.GenerateToken(4, "ada@example.com", time.Hour)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT type, COALESCE").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"type", "total", "count"}))
	w := do(r, "GET", "/api/transactions/summary", token)
	assert.Equal(t, 200, w.Code)

	mock.ExpectQuery("SELECT DISTINCT `category`").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"category"}))
	w = do(r, "GET", "/api/transactions/categories", token)
	assert.Equal(t, 200, w.Code)

	w = do(r, "GET", "/api/transactions/summary-ish", token)
	assert.Equal(t, 400, w.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCORSMiddleware(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest("OPTIONS", "/api/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest("OPTIONS", "/api/transactions", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, 403, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_Wildcard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"*"}))
	r.GET("/", func(c *gin.Context) { c.Status(200) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://anything.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}
