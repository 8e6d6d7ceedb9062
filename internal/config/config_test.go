package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
api:
  environment: development
  port: "8080"
  base_url: localhost:8080
  allowed_cors_domains:
    - http://localhost:3000
  jwt_signing_key: secret
  jwt_ttl: 24h
gin:
  mode: debug
log:
  level: debug
postgres:
  host: localhost
  port: "5432"
  user: innopoints
  password: innopoints
  db: innopoints
  sslmode: disable
innopoints:
  points_per_hour: 70
  reminder_schedule: "0 10 * * *"
`

func writeConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "development", conf.API.Environment)
	assert.Equal(t, "8080", conf.API.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, conf.API.AllowedCORSDomains)
	assert.Equal(t, 24*time.Hour, conf.API.JWTTTL)
	assert.Equal(t, "debug", conf.Gin.Mode)
	assert.Equal(t, 70, conf.Innopoints.PointsPerHour)
	assert.Equal(t, "0 10 * * *", conf.Innopoints.ReminderSchedule)
	assert.Equal(t, "host=localhost port=5432 user=innopoints password=innopoints dbname=innopoints sslmode=disable",
		conf.Postgres.DSN())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("POSTGRES_HOST", "db")

	conf, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "9090", conf.API.Port)
	assert.Equal(t, "db", conf.Postgres.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
