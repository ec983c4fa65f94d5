package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CLINIC_JWT_SECRET", testSecret)

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24, cfg.JWT.ExpiryHours)
	assert.Equal(t, testSecret, cfg.JWT.Secret)
	assert.Equal(t, 30*time.Second, cfg.Auth.IdentityCacheTTL)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 9000
  read_timeout: 5s
database:
  host: db.internal
  password: from-file
jwt:
  secret: file-secret-long-enough
  expiry_hours: 2
audit:
  cleanup_interval: 1h
`)
	t.Setenv("CLINIC_DB_PASSWORD", "from-env")
	t.Setenv("CLINIC_REDIS_URL", "redis://cache:6379/1")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "file-secret-long-enough", cfg.JWT.Secret)
	assert.Equal(t, 2, cfg.JWT.ExpiryHours)
	assert.Equal(t, time.Hour, cfg.Audit.CleanupInterval)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.ToBrokerConfig().URL)
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "jwt secret is required")
}

func TestLoadConfig_BadYAML(t *testing.T) {
	dir := writeConfig(t, "server: [unclosed")
	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	base := Config{
		Server: ServerConfig{Port: 8080},
		JWT:    JWTConfig{Secret: testSecret},
	}
	require.NoError(t, base.Validate())

	short := base
	short.JWT.Secret = "short"
	assert.Error(t, short.Validate())

	badPort := base
	badPort.Server.Port = 70000
	assert.Error(t, badPort.Validate())

	smtp := base
	smtp.SMTP.Enabled = true
	assert.Error(t, smtp.Validate())
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())
}
