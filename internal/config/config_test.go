package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv sets every key of env for the duration of the test; an empty value unsets the key
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{
		"STORE_DRIVER", "SESSION_STORE", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "SERVER_PORT", "NODE_ID", "LOG_LEVEL", "LOG_FILE",
		"CORS_ALLOWED_ORIGINS", "SESSION_SECRET", "SESSION_TTL", "SESSION_COOKIE_SECURE", "PAYMENT_API_KEY",
		"PENDING_PAYMENT_TTL", "PAYMENT_SWEEP_SCHEDULE", "PROTECT_LAST_ADMIN",
		"SEED_ADMIN_EMAIL", "SEED_ADMIN_PASSWORD", "SEED_ADMIN_NAME",
	} {
		t.Setenv(key, env[key])
	}
}

func TestLoad(t *testing.T) {
	mysqlEnv := map[string]string{
		"DB_HOST":        "db",
		"DB_PORT":        "3306",
		"DB_USER":        "growup",
		"DB_PASSWORD":    "pw",
		"DB_NAME":        "portal",
		"SESSION_SECRET": "s3cret",
	}

	tests := []struct {
		name        string
		env         map[string]string
		expectedErr string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			env:  mysqlEnv,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DriverMySQL, cfg.StoreDriver)
				assert.Equal(t, DriverMemory, cfg.SessionStore)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 1, cfg.Server.NodeID)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
				assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
				assert.True(t, cfg.Session.SecureCookie)
				assert.Equal(t, 30*time.Minute, cfg.Payments.PendingTTL)
				assert.Equal(t, "@every 5m", cfg.Payments.SweepSchedule)
				assert.True(t, cfg.Admin.ProtectLastAdmin)
				assert.Equal(t, "localhost:6379", cfg.RedisAddr())
				assert.Equal(t, "growup:pw@tcp(db:3306)/portal?parseTime=true&charset=utf8mb4&multiStatements=true", cfg.DSN())
			},
		},
		{
			name: "memory store needs no database",
			env: map[string]string{
				"STORE_DRIVER":           "MEMORY",
				"SESSION_STORE":          "redis",
				"SESSION_SECRET":         "s3cret",
				"SESSION_TTL":            "2h",
				"CORS_ALLOWED_ORIGINS":   "https://a.test, ,https://b.test",
				"PROTECT_LAST_ADMIN":     "false",
				"PAYMENT_SWEEP_SCHEDULE": "*/10 * * * *",
				"SEED_ADMIN_EMAIL":       "admin@growup.test",
				"SEED_ADMIN_PASSWORD":    "secret123",
				"REDIS_DB":               "2",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DriverMemory, cfg.StoreDriver)
				assert.Equal(t, DriverRedis, cfg.SessionStore)
				assert.Empty(t, cfg.DSN())
				assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
				assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
				assert.False(t, cfg.Admin.ProtectLastAdmin)
				assert.Equal(t, "*/10 * * * *", cfg.Payments.SweepSchedule)
				assert.Equal(t, "Administrator", cfg.Admin.SeedName)
				assert.Equal(t, 2, cfg.Redis.DB)
			},
		},
		{
			name:        "missing secret",
			env:         map[string]string{"STORE_DRIVER": "memory"},
			expectedErr: "SESSION_SECRET is required",
		},
		{
			name:        "missing database host",
			env:         map[string]string{"SESSION_SECRET": "s3cret"},
			expectedErr: "DB_HOST is required",
		},
		{
			name:        "unknown store driver",
			env:         map[string]string{"STORE_DRIVER": "postgres", "SESSION_SECRET": "s3cret"},
			expectedErr: "invalid STORE_DRIVER",
		},
		{
			name:        "unknown session store",
			env:         map[string]string{"STORE_DRIVER": "memory", "SESSION_STORE": "file", "SESSION_SECRET": "s3cret"},
			expectedErr: "invalid SESSION_STORE",
		},
		{
			name:        "invalid ttl",
			env:         map[string]string{"STORE_DRIVER": "memory", "SESSION_SECRET": "s3cret", "SESSION_TTL": "-1h"},
			expectedErr: "invalid SESSION_TTL",
		},
		{
			name:        "invalid port",
			env:         map[string]string{"STORE_DRIVER": "memory", "SESSION_SECRET": "s3cret", "SERVER_PORT": "http"},
			expectedErr: "invalid SERVER_PORT",
		},
		{
			name:        "node id out of range",
			env:         map[string]string{"STORE_DRIVER": "memory", "SESSION_SECRET": "s3cret", "NODE_ID": "1024"},
			expectedErr: "NODE_ID must be between 0 and 1023",
		},
		{
			name:        "invalid bool",
			env:         map[string]string{"STORE_DRIVER": "memory", "SESSION_SECRET": "s3cret", "PROTECT_LAST_ADMIN": "maybe"},
			expectedErr: "invalid PROTECT_LAST_ADMIN",
		},
		{
			name:        "seed email without password",
			env:         map[string]string{"STORE_DRIVER": "memory", "SESSION_SECRET": "s3cret", "SEED_ADMIN_EMAIL": "admin@growup.test"},
			expectedErr: "must be set together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)

			cfg, err := Load()

			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadTestConfig(t *testing.T) {
	for _, key := range []string{"TEST_DB_HOST", "TEST_REDIS_HOST", "TEST_REDIS_PORT", "TEST_REDIS_PASSWORD", "TEST_REDIS_DB"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadTestConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.DSN())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, 1, cfg.Redis.DB)

	t.Setenv("TEST_REDIS_HOST", "cache")
	t.Setenv("TEST_REDIS_DB", "3")
	cfg, err = LoadTestConfig()
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.Equal(t, 3, cfg.Redis.DB)

	t.Setenv("TEST_REDIS_PORT", "redis")
	_, err = LoadTestConfig()
	assert.Error(t, err)
	t.Setenv("TEST_REDIS_PORT", "")

	t.Setenv("TEST_DB_HOST", "localhost")
	t.Setenv("TEST_DB_PORT", "3307")
	t.Setenv("TEST_DB_USER", "root")
	t.Setenv("TEST_DB_PASSWORD", "pw")
	t.Setenv("TEST_DB_NAME", "portal_test")
	cfg, err = LoadTestConfig()
	require.NoError(t, err)
	assert.Equal(t, "root:pw@tcp(localhost:3307)/portal_test?parseTime=true&charset=utf8mb4&multiStatements=true", cfg.DSN())

	t.Setenv("TEST_DB_PORT", "abc")
	_, err = LoadTestConfig()
	assert.Error(t, err)
}
