package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8088
database:
  host: "db.internal"
  user: "screening"
  password: "secret"
  db_name: "lngdb"
redis:
  addr: "cache.internal:6379"
kafka:
  brokers: ["broker-1:9092", "broker-2:9092"]
providers:
  lloyds:
    base_url: "https://api.lloydslistintelligence.com/v1"
    api_key: "token"
log:
  level: "debug"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "lngdb", cfg.Database.DBName)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "https://api.lloydslistintelligence.com/v1", cfg.Providers.Lloyds.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset fields pick up defaults.
	assert.Equal(t, DefaultKafkaGroupID, cfg.Kafka.GroupID)
	assert.Equal(t, DefaultMaxInFlight, cfg.Screening.MaxInFlight)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidContent(t *testing.T) {
	_, err := Load(writeTempConfig(t, "log:\n  level: verbose\ndatabase:\n  user: u\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SCREEN_DATABASE_HOST", "env-db")
	t.Setenv("SCREEN_DATABASE_USER", "env-user")
	t.Setenv("SCREEN_DATABASE_DB_NAME", "env-name")
	t.Setenv("SCREEN_REDIS_ADDR", "env-redis:6379")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, "env-user", cfg.Database.User)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "absent.yaml"))
	})
}
