package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adi-253/parley/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_STATS_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.RateStatsEnabled)
}

func TestLoadFallsBackToDevSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfg := Load()
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestDefaultPolicyIsValid(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())
	assert.Equal(t, 5, p.RateLimit.Limit)
	assert.Equal(t, time.Minute, p.RateLimit.Window)
	assert.Equal(t, []models.Role{models.RoleAdmin, models.RoleHost}, p.Roles.Allowed)
}

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPolicyOverlaysFile(t *testing.T) {
	path := writePolicy(t, `
time_window:
  mode: allow_only
  start_hour: 18
  end_hour: 21
rate_limit:
  limit: 10
  window: 30s
roles:
  allowed: [admin, moderator]
`)
	p, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, WindowAllowOnly, p.TimeWindow.Mode)
	assert.Equal(t, 18, p.TimeWindow.StartHour)
	assert.Equal(t, 21, p.TimeWindow.EndHour)
	assert.NotEmpty(t, p.TimeWindow.Routes, "routes not named in the file keep their defaults")
	assert.Equal(t, 10, p.RateLimit.Limit)
	assert.Equal(t, 30*time.Second, p.RateLimit.Window)
	assert.Equal(t, []models.Role{models.RoleAdmin, models.RoleModerator}, p.Roles.Allowed)
}

func TestLoadPolicyRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"mode":    "time_window:\n  mode: sometimes\n",
		"cron":    "time_window:\n  cron: \"not a cron\"\n",
		"hours":   "time_window:\n  start_hour: 30\n",
		"limit":   "rate_limit:\n  limit: 0\n",
		"backend": "rate_limit:\n  backend: etcd\n",
		"role":    "roles:\n  allowed: [superuser]\n",
		"route":   "roles:\n  routes: [\"(\"]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPolicy(writePolicy(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicyEmptyPath(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy().RateLimit, p.RateLimit)
}
