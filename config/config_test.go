package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeErrorMessage(t *testing.T) {
	fallback := "operation failed"
	testErr := errors.New("internal database error")

	// nil err returns fallback
	assert.Equal(t, fallback, SafeErrorMessage(nil, fallback))

	// release mode hides detail
	GlobalConfig = &Config{Server: ServerConfig{Mode: "release"}}
	defer func() { GlobalConfig = nil }()
	assert.Equal(t, fallback, SafeErrorMessage(testErr, fallback))

	// debug mode returns err.Error()
	GlobalConfig = &Config{Server: ServerConfig{Mode: "debug"}}
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))

	// unset config is treated as development
	GlobalConfig = nil
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 100, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout())
	assert.Equal(t, 10*time.Second, cfg.Database.AcquireTimeout())
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Same(t, cfg, GlobalConfig)
}

func TestLoadConfig_EnvAndFileOverride(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt:\n  expire_hours: 2\ndatabase:\n  dbname: ledger\n"), 0o600))

	t.Setenv("CLARITY_DATABASE_DRIVER", "postgres")
	t.Setenv("CLARITY_DATABASE_PORT", "5432")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "ledger", cfg.Database.DBName)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Mode: "debug"},
		Database: DatabaseConfig{Driver: "mysql"},
		JWT:      JWTConfig{Secret: "secret"},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Database.Driver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "postgres"
	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())

	cfg.Server.Mode = "release"
	cfg.JWT.Secret = defaultJWTSecret
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_CORSOrigins(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "mysql"},
		JWT:      JWTConfig{Secret: "secret"},
		CORS:     CORSConfig{AllowedOrigins: []string{"*", "http://localhost:3000", "https://app.example.com"}},
	}
	assert.NoError(t, cfg.Validate())

	cfg.CORS.AllowedOrigins = []string{"https://app.example.com", "example.com"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "example.com")
}
