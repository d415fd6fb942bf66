package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "HTTP_PORT", "GRPC_ENABLED", "GRPC_PORT", "DB_DRIVER", "DB_PATH", "HISTORY_LIMIT", "RATE_LIMIT_BACKEND", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := LoadFromEnv()

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.True(t, cfg.GRPCEnabled)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "./data/cgpa.db", cfg.DBPath)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("GRPC_ENABLED", "false")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_PATH", "user:pass@tcp(db:3306)/cgpa")
	t.Setenv("HISTORY_LIMIT", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://cgpa.example.org ,")
	t.Setenv("RATE_LIMIT_BACKEND", "REDIS")
	t.Setenv("RATE_LIMIT_REQUESTS", "30")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadFromEnv()

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.False(t, cfg.GRPCEnabled)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "user:pass@tcp(db:3306)/cgpa", cfg.DBPath)
	assert.Equal(t, 5, cfg.HistoryLimit)
	assert.Equal(t, []string{"http://localhost:3000", "https://cgpa.example.org"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.Equal(t, 30, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")
	t.Setenv("HISTORY_LIMIT", "-3")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg := LoadFromEnv()

	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestNewLogger(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		logger, err := NewLogger(&Config{AppEnv: "development"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("production with file sink", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")

		logger, err := NewLogger(&Config{AppEnv: "production", LogFile: path})
		require.NoError(t, err)

		logger.Info("calculation stored")
		_ = logger.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "calculation stored")
	})
}
