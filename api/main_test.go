package api

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"clarity/config"
	"clarity/middleware"
	"clarity/models"
	"clarity/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() { sqlDB.Close() })
	return gormDB, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	}
	middleware.InitJWT(cfg)
	return cfg
}

// withUser stands in for JWTAuth
func withUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(middleware.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func newTransactionRouter(t *testing.T, userID uint) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := setupMockDB(t)
	h := NewTransactionHandler(store.NewTransactionStore(db, time.Second))

	router := gin.New()
	router.Use(middleware.RequestID(), withUser(userID))
	router.POST("/transactions", h.Create)
	router.GET("/transactions", h.List)
	router.GET("/transactions/summary", h.Summary)
	router.GET("/transactions/categories", h.Categories)
	router.GET("/transactions/:id", h.Get)
	router.PUT("/transactions/:id", h.Update)
	router.DELETE("/transactions/:id", h.Delete)
	return router, mock
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func fieldOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var fe FieldError
	decode(t, w, &fe)
	return fe.Field
}

// dateArg matches a bound date argument by calendar day
type dateArg string

func (d dateArg) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	return ok && t.Format(models.DateLayout) == string(d)
}
