package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DSN", "postgres://hub@localhost/hub")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GEMINI_API_KEY", "key-from-legacy-name")
	t.Setenv("STORAGE_BUCKET", "uploads")
	t.Setenv("AI_RETRY_DELAY", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://hub@localhost/hub", cfg.Database.DSN)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 10080, cfg.JWT.ExpiresMin)
	assert.Equal(t, "key-from-legacy-name", cfg.AI.APIKey)
	assert.Equal(t, "uploads", cfg.Storage.Bucket)
	assert.Equal(t, 500*time.Millisecond, cfg.AI.RetryDelay)
	assert.Equal(t, 8, cfg.AI.HistorySize)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, int64(25<<20), cfg.App.MaxUploadSize)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_ExpiresMin(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{DSN: "x"},
		JWT:      JWTConfig{Secret: "y", ExpiresMin: 0},
	}
	assert.Error(t, cfg.Validate())

	cfg.JWT.ExpiresMin = 60
	assert.NoError(t, cfg.Validate())
}
