package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/store"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
owner_id: op1
database:
  driver: Postgres
  dsn: postgres://planner@localhost/planner
durations:
  callback_minutes: 15
export:
  cron: ""
  weeks_ahead: -3
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "op1", cfg.OwnerID)
	assert.Equal(t, store.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 15, cfg.Durations.CallbackMinutes)
	assert.Equal(t, 60, cfg.Durations.AppointmentMinutes)
	assert.Equal(t, "Europe/Paris", cfg.Timezone)
	assert.Equal(t, "", cfg.Export.Cron, "empty cron disables export")
	assert.Equal(t, 0, cfg.Export.WeeksAhead)
	assert.Equal(t, "./planner.ics", cfg.Export.Path)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [oops"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveErrors(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}

func TestApplyEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PLANNER_DB_DRIVER", "MEMORY")
	t.Setenv("PLANNER_DB_DSN", "")
	t.Setenv("PLANNER_LISTEN", ":7000")
	t.Setenv("PLANNER_LOG_LEVEL", "debug")
	t.Setenv("PLANNER_OWNER_ID", "op9")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, store.DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "./planner.db", cfg.Database.DSN)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "op9", cfg.OwnerID)
}

func TestApplyEnvReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PLANNER_DB_DSN", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PLANNER_DB_DSN=file:test.db\n"), 0o600))
	// godotenv never overrides variables that are already set, so unset the
	// one registered by t.Setenv above.
	require.NoError(t, os.Unsetenv("PLANNER_DB_DSN"))

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
}

func TestBasicAuthEnabled(t *testing.T) {
	var none *BasicAuthConfig
	assert.False(t, none.Enabled())
	assert.False(t, (&BasicAuthConfig{Username: "op"}).Enabled())
	assert.False(t, (&BasicAuthConfig{Password: "secret"}).Enabled())
	assert.True(t, (&BasicAuthConfig{Username: "op", Password: "secret"}).Enabled())
}
