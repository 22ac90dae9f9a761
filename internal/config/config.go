package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"planner/internal/store"
)

// DurationsConfig gives appointments and callbacks a default length, since
// both only store a start time.
type DurationsConfig struct {
	AppointmentMinutes int `yaml:"appointment_minutes" json:"appointment_minutes"`
	CallbackMinutes    int `yaml:"callback_minutes" json:"callback_minutes"`
}

// ExportConfig controls the periodic ICS export of the planner.
type ExportConfig struct {
	// Cron is a cron-style schedule (e.g. "*/15 * * * *"). Empty disables
	// the periodic export.
	Cron string `yaml:"cron" json:"cron"`
	// Path is the .ics file written on every run.
	Path string `yaml:"path" json:"path"`
	// WeeksAhead is how many weeks after the current one are included.
	WeeksAhead int `yaml:"weeks_ahead" json:"weeks_ahead"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Enabled reports whether both credentials are set; a half-filled block
// leaves the API open.
func (b *BasicAuthConfig) Enabled() bool {
	return b != nil && b.Username != "" && b.Password != ""
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used to place timed events in the ICS export.
	Timezone string `yaml:"timezone" json:"timezone"`

	// OwnerID scopes planning blocks to one operator. Empty means all.
	OwnerID string `yaml:"owner_id" json:"owner_id"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Database  store.Config    `yaml:"database" json:"database"`
	Durations DurationsConfig `yaml:"durations" json:"durations"`
	Export    ExportConfig    `yaml:"export" json:"export"`

	// BasicAuth, when both fields are set, protects the /api routes.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		Timezone: "Europe/Paris",
		LogLevel: "info",
		Database: store.DefaultConfig(),
		Durations: DurationsConfig{
			AppointmentMinutes: 60,
			CallbackMinutes:    30,
		},
		Export: ExportConfig{
			Cron:       "*/15 * * * *",
			Path:       "./planner.ics",
			WeeksAhead: 1,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled files still behave.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database = def.Database
	}
	if c.Durations.AppointmentMinutes <= 0 {
		c.Durations.AppointmentMinutes = def.Durations.AppointmentMinutes
	}
	if c.Durations.CallbackMinutes <= 0 {
		c.Durations.CallbackMinutes = def.Durations.CallbackMinutes
	}
	if c.Export.Path == "" {
		c.Export.Path = def.Export.Path
	}
	if c.Export.WeeksAhead < 0 {
		c.Export.WeeksAhead = 0
	}
}

// ApplyEnv overrides file values with PLANNER_* variables, reading a .env
// file in the working directory first when present.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("PLANNER_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("PLANNER_DB_DRIVER"); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("PLANNER_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("PLANNER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PLANNER_OWNER_ID"); v != "" {
		c.OwnerID = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory with 0700 if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".planner-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
