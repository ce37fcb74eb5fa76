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

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenLife.Duration())
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshTokenLife.Duration())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 64, cfg.Auth.RefreshTokenBytes)
	assert.False(t, cfg.Auth.StrictDeviceCheck)
	assert.Equal(t, 20, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_REFRESH_EXPIRES_IN", "7d")
	t.Setenv("JWT_ACCESS_EXPIRES_IN", "30s")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_DRIVER", "Mongo")
	t.Setenv("AUTH_STRICT_DEVICE_CHECK", "true")
	t.Setenv("RATE_LIMIT_WINDOW", "2m")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenLife.Duration())
	assert.Equal(t, 30*time.Second, cfg.JWT.AccessTokenLife.Duration())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.True(t, cfg.Auth.StrictDeviceCheck)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Window)
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("SERVER_PORT", "")
	os.Unsetenv("SERVER_PORT")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nSERVER_PORT=4000\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("SERVER_PORT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "4000", cfg.Server.Port)
}

func TestLoad_MalformedRefreshLifetime(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_REFRESH_EXPIRES_IN", "one day")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if !errors.Is(err, ErrInvalidLifetime) {
		t.Fatalf("expected ErrInvalidLifetime, got %v", err)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestValidate_UnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}
