package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  host: db
  name: reservations
jwt:
  secret: file-secret
  expiry_hours: 2
payments:
  pending_ttl: 45m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "reservations", cfg.Database.Name)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 2, cfg.JWT.ExpiryHours)
	assert.Equal(t, "file-secret", cfg.JWT.RefreshSecret)
	assert.Equal(t, 45*time.Minute, cfg.Payments.PendingTTL)
	assert.Equal(t, 72*time.Hour, cfg.Payments.OfflinePendingTTL)
	assert.Equal(t, "@every 15m", cfg.Worker.ExpirySchedule)
}

func TestLoadEnvOverlay(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: file-secret
database:
  host: db
`)
	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("REFRESH_SECRET_KEY", "env-refresh")
	t.Setenv("DB_HOST", "postgres.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("PAYPAL_CLIENT_ID", "client")
	t.Setenv("PAYPAL_CLIENT_SECRET", "secret")
	t.Setenv("STATIC_ROOT", "/srv/static")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-refresh", cfg.JWT.RefreshSecret)
	assert.Equal(t, "postgres.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.PayPal.Enabled())
	assert.Equal(t, "/srv/static", cfg.StaticRoot)
	assert.Equal(t, "postgres://postgres:@postgres.internal:6543/clinic?sslmode=disable", cfg.Database.URL())
}

func TestLoadRequiresSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8000\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "SECRET_KEY")
}

func TestLocation(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "Not/AZone"
	_, err = cfg.Location()
	assert.Error(t, err)
}
