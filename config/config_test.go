package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "CORS_ALLOWED_ORIGINS", "REDIS_ADDR", "AWS_REGION", "POLL_ARCHIVE_BUCKET", "POLL_HISTORY_LIMIT", "POLL_RETENTION_SEC"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10, cfg.Poll.HistoryLimit)
	assert.Equal(t, 300, cfg.Poll.RetentionSec)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.AWS.ArchiveEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://polls.example.com , http://localhost:5173 ")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("POLL_ARCHIVE_BUCKET", "poll-archive")
	t.Setenv("POLL_HISTORY_LIMIT", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, []string{"https://polls.example.com", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.AWS.ArchiveEnabled())
	assert.Equal(t, 25, cfg.Poll.HistoryLimit)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non numeric port", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"origin without scheme", "CORS_ALLOWED_ORIGINS", "localhost:3000"},
		{"origin list empty", "CORS_ALLOWED_ORIGINS", " , "},
		{"history limit too large", "POLL_HISTORY_LIMIT", "500"},
		{"unparsable timeout", "POLL_PERSIST_TIMEOUT_SEC", "ten"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_WildcardOrigin(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "*")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}
