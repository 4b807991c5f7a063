package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"FORESTCRM_APP_NAME":          os.Getenv("FORESTCRM_APP_NAME"),
		"FORESTCRM_APP_ENV":           os.Getenv("FORESTCRM_APP_ENV"),
		"FORESTCRM_APP_PORT":          os.Getenv("FORESTCRM_APP_PORT"),
		"FORESTCRM_DATABASE_HOST":     os.Getenv("FORESTCRM_DATABASE_HOST"),
		"FORESTCRM_DATABASE_PORT":     os.Getenv("FORESTCRM_DATABASE_PORT"),
		"FORESTCRM_DATABASE_USER":     os.Getenv("FORESTCRM_DATABASE_USER"),
		"FORESTCRM_DATABASE_PASSWORD": os.Getenv("FORESTCRM_DATABASE_PASSWORD"),
		"FORESTCRM_DATABASE_DBNAME":   os.Getenv("FORESTCRM_DATABASE_DBNAME"),
		"FORESTCRM_DATABASE_SSLMODE":  os.Getenv("FORESTCRM_DATABASE_SSLMODE"),
		"FORESTCRM_JWT_SECRET":        os.Getenv("FORESTCRM_JWT_SECRET"),
		"FORESTCRM_TASKQUEUE_WORKERS": os.Getenv("FORESTCRM_TASKQUEUE_WORKERS"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "forestcrm-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "forestcrm", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 4, cfg.TaskQueue.Workers)
		assert.Equal(t, 256, cfg.TaskQueue.QueueSize)
	})

	t.Run("loads values from environment variables", func(t *testing.T) {
		clearEnv()
		os.Setenv("FORESTCRM_APP_NAME", "test-app")
		os.Setenv("FORESTCRM_APP_PORT", "9000")
		os.Setenv("FORESTCRM_DATABASE_HOST", "testdb.local")
		os.Setenv("FORESTCRM_DATABASE_PORT", "5433")
		os.Setenv("FORESTCRM_DATABASE_USER", "testuser")
		os.Setenv("FORESTCRM_DATABASE_PASSWORD", "testpass")
		os.Setenv("FORESTCRM_DATABASE_DBNAME", "testdb")
		os.Setenv("FORESTCRM_TASKQUEUE_WORKERS", "8")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, 8, cfg.TaskQueue.Workers)
	})

	t.Run("production requires jwt secret", func(t *testing.T) {
		clearEnv()
		os.Setenv("FORESTCRM_APP_ENV", "production")
		os.Setenv("FORESTCRM_DATABASE_PASSWORD", "secret")
		os.Setenv("FORESTCRM_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("production rejects short jwt secret", func(t *testing.T) {
		clearEnv()
		os.Setenv("FORESTCRM_APP_ENV", "production")
		os.Setenv("FORESTCRM_JWT_SECRET", "short")
		os.Setenv("FORESTCRM_DATABASE_PASSWORD", "secret")
		os.Setenv("FORESTCRM_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 characters")
	})
}

func TestDatabaseConfigDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		User:     "crm",
		Password: "p@ss/word",
		DBName:   "forestcrm",
		SSLMode:  "require",
	}

	dsn := d.DSN()

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.local:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", r.RedisAddr())
}
