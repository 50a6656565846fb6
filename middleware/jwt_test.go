package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clarity/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initJWTTestConfig() {
	InitJWT(&config.Config{
		JWT: config.JWTConfig{Secret: "test-jwt-secret-key"},
	})
}

func TestGenerateToken(t *testing.T) {
	initJWTTestConfig()

	token, err := GenerateToken(1, "ada@example.com", 24*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, len(token), 20)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestParseToken(t *testing.T) {
	initJWTTestConfig()

	// valid
	token, _ := GenerateToken(100, "admin@example.com", time.Hour)
	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(100), claims.UserID)

	// empty
	_, err = ParseToken("")
	assert.ErrorIs(t, err, ErrMissingAuthorization)

	// malformed
	_, err = ParseToken("not.a.valid.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseToken("eyJhbGciOiJmb29iIn0.xxxx.yyyy")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// expired
	expired, _ := GenerateToken(100, "admin@example.com", -time.Minute)
	_, err = ParseToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	// signed with another secret
	InitJWT(&config.Config{JWT: config.JWTConfig{Secret: "other-secret"}})
	forged, _ := GenerateToken(100, "admin@example.com", time.Hour)
	initJWTTestConfig()
	_, err = ParseToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	initJWTTestConfig()

	claims := Claims{
		UserID: 5,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		err    error
	}{
		{"", "", ErrMissingAuthorization},
		{"Basic xyz", "", ErrMissingAuthorization},
		{"Bearer", "", ErrMissingAuthorization},
		{"Bearer ", "", ErrMissingAuthorization},
		{"Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"bearer abc", "abc", nil},
	}
	for _, tt := range tests {
		token, err := BearerToken(tt.header)
		assert.Equalf(t, tt.token, token, "BearerToken(%q)", tt.header)
		assert.Equalf(t, tt.err, err, "BearerToken(%q)", tt.header)
	}
}

func TestJWTAuth(t *testing.T) {
	initJWTTestConfig()
	gin.SetMode(gin.TestMode)

	reached := 0
	router := gin.New()
	router.Use(JWTAuth())
	router.GET("/protected", func(c *gin.Context) {
		reached++
		c.String(200, "id:%d", GetCurrentUserID(c))
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// no header
	w := do("")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authorization header missing")

	// not Bearer
	assert.Equal(t, http.StatusUnauthorized, do("Basic xyz").Code)

	// Bearer without token
	assert.Equal(t, http.StatusUnauthorized, do("Bearer ").Code)

	// malformed token
	w = do("Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")

	// expired token
	expired, _ := GenerateToken(42, "u@example.com", -time.Second)
	w = do("Bearer " + expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")

	assert.Equal(t, 0, reached)

	// valid
	token, _ := GenerateToken(42, "u@example.com", time.Hour)
	w = do("Bearer " + token)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "id:42", w.Body.String())
	assert.Equal(t, 1, reached)
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), 99))
	assert.True(t, ok)
	assert.Equal(t, uint(99), id)

	_, ok = UserIDFromContext(WithUserID(context.Background(), 0))
	assert.False(t, ok)
}

func TestGetCurrentUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, uint(0), GetCurrentUserID(c))

	c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), 99))
	assert.Equal(t, uint(99), GetCurrentUserID(c))
}
