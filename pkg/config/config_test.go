package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
}

func TestLoad_Defaults(t *testing.T) {
	setSecrets(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, "products", cfg.Search.Index)
	assert.False(t, cfg.Production())
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_FromEnv(t *testing.T) {
	setSecrets(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	os.Unsetenv("JWT_ACCESS_SECRET")
	t.Setenv("JWT_REFRESH_SECRET", "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	content := "JWT_ACCESS_SECRET=from-file\nJWT_REFRESH_SECRET=ignored\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() { os.Unsetenv("JWT_ACCESS_SECRET") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWT.AccessSecret)
	assert.Equal(t, "from-env", cfg.JWT.RefreshSecret)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing secrets",
			env:  map[string]string{"JWT_ACCESS_SECRET": "", "JWT_REFRESH_SECRET": ""},
		},
		{
			name: "same secrets",
			env:  map[string]string{"JWT_ACCESS_SECRET": "x", "JWT_REFRESH_SECRET": "x"},
		},
		{
			name: "access outlives refresh",
			env: map[string]string{
				"JWT_ACCESS_SECRET":  "a",
				"JWT_REFRESH_SECRET": "r",
				"JWT_ACCESS_TTL":     "200h",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
				if v == "" {
					os.Unsetenv(k)
				}
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
