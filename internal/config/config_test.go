package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.PermissionCacheTTL)
	assert.True(t, cfg.BookingStrictTransitions)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.True(t, cfg.InsecureSecret())
	assert.Contains(t, cfg.DSN(), "dbname=elocation")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PERMISSION_CACHE_TTL", "30s")
	t.Setenv("BOOKING_STRICT_TRANSITIONS", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ORIGINS", "https://a.bj,https://b.bj")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.PermissionCacheTTL)
	assert.False(t, cfg.BookingStrictTransitions)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"https://a.bj", "https://b.bj"}, cfg.CORSOrigins)
	assert.False(t, cfg.InsecureSecret())
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=from_file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DB_NAME") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.DBName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
