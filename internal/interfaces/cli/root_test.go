package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand_MountsSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "worker", "resolve", "migrate", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVersionCommand_PrintsJSON(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &payload))
	assert.Equal(t, Version, payload["version"])
	assert.NotEmpty(t, payload["go_version"])
}

func TestMigrateCommand_MountsActions(t *testing.T) {
	cmd := NewRootCommand()
	migrate, _, err := cmd.Find([]string{"migrate"})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, sub := range migrate.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["up"])
	assert.True(t, names["down"])
	assert.True(t, names["status"])
}

func TestLoadConfig_MissingFileFails(t *testing.T) {
	_, err := loadConfig(&RootOptions{ConfigPath: "/nonexistent/config.yaml"})
	assert.Error(t, err)
}

func TestLoadConfig_LogLevelOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 8080
database:
  host: localhost
  port: 5432
  user: screening
  db_name: screening
  max_conns: 10
redis:
  addr: localhost:6379
kafka:
  brokers: ["localhost:9092"]
  group_id: screening-workers
screening:
  default_window_days: 365
  max_in_flight: 8
worker:
  concurrency: 4
log:
  level: info
  format: json
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := loadConfig(&RootOptions{ConfigPath: path, LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
}
