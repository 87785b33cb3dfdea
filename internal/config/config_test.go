package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"solarshop/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("MONGODB_URI", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "nzeoma_solar", cfg.MongoDatabase)
	assert.Equal(t, "products", cfg.MongoCollection)
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "http://localhost:8080/api", cfg.APIBaseURL)
	assert.Equal(t, 2, cfg.ClientRetries)
	assert.False(t, cfg.EventsEnabled())
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("API_BASE_URL", "http://shop.local/api/")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("JWT_SECRET", "jwt")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "file::memory:?cache=shared", cfg.DatabaseDSN)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "http://shop.local/api", cfg.APIBaseURL)
	assert.True(t, cfg.AuthEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solarshop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER: memory\nAPP_PORT: \":9090\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("APP_PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.StoreDriver)
	assert.Equal(t, ":9090", cfg.AppPort)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = config.Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.DriverMongo, RequestTimeout: time.Second}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGODB_URI is required")

	cfg = &config.Config{StoreDriver: "cassandra", RequestTimeout: time.Second}
	assert.Error(t, cfg.Validate())

	cfg = &config.Config{StoreDriver: config.DriverPostgres, RequestTimeout: time.Second}
	assert.Error(t, cfg.Validate())

	cfg = &config.Config{
		StoreDriver:    config.DriverMemory,
		RequestTimeout: time.Second,
		AdminUsername:  "admin",
		AdminPassword:  "secret",
	}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.JWTSecret = "jwt"
	assert.NoError(t, cfg.Validate())
}
