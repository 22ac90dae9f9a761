// Package store persists the four planner record types. It implements the
// schedule.Store port on top of database/sql (SQLite or PostgreSQL) and
// also offers an in-memory variant for tests and demos.
package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an update or delete targets a missing row.
var ErrNotFound = errors.New("record not found")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config selects and locates the backing database.
type Config struct {
	Driver string `yaml:"driver" json:"driver"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

func DefaultConfig() Config {
	return Config{
		Driver: DriverSQLite,
		DSN:    "./planner.db",
	}
}

// Validate checks the driver name and that a DSN is present when needed.
func (c Config) Validate() error {
	switch strings.ToLower(c.Driver) {
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("store: dsn is required for driver %q", c.Driver)
		}
		return nil
	case DriverMemory:
		return nil
	default:
		return fmt.Errorf("store: unsupported driver %q", c.Driver)
	}
}
