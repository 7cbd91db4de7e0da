// Package config provides configuration management for the sqlconvert CLI.
//
// Configuration is layered: built-in defaults, then sqlconvert.yaml, then
// SQLCONVERT_* environment variables, then explicitly set flags.
package config

import (
	"time"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
)

// Default configuration values.
const (
	DefaultSourceDialect = "tsql"
	DefaultStateFile     = ".sqlconvert/state.db"
	DefaultKeywordCase   = "preserve"
	DefaultDebounce      = 200 * time.Millisecond
	DefaultOutput        = "auto" // terminal: text, otherwise markdown
)

// Config holds all CLI configuration options.
type Config struct {
	SourceDialect string        `koanf:"source_dialect"`
	TargetDialect string        `koanf:"target_dialect"`
	OutputDir     string        `koanf:"output_dir"`
	StatePath     string        `koanf:"state_path"`
	NoState       bool          `koanf:"no_state"`
	Workers       int           `koanf:"workers"`
	KeywordCase   string        `koanf:"keyword_case"`
	Debounce      time.Duration `koanf:"debounce"`
	Exclude       []string      `koanf:"exclude"`
	Environment   string        `koanf:"environment"`
	Verbose       bool          `koanf:"verbose"`
	OutputFormat  string        `koanf:"output"`

	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	TargetDialect string        `koanf:"target_dialect"`
	OutputDir     string        `koanf:"output_dir"`
	Target        *TargetConfig `koanf:"target"`
}

// TargetConfig describes the database `apply` executes rendered scripts on.
type TargetConfig struct {
	Type     string            `koanf:"type"` // postgres, mysql
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Database string            `koanf:"database"`
	DSN      string            `koanf:"dsn"`
	Options  map[string]string `koanf:"options"`
}

// AdapterConfig converts the target into the adapter connection settings.
func (t *TargetConfig) AdapterConfig() core.AdapterConfig {
	if t == nil {
		return core.AdapterConfig{}
	}
	return core.AdapterConfig{
		Type:     t.Type,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
		DSN:      t.DSN,
	}
}

// ApplyDefaults fills in the port for known target types.
func (t *TargetConfig) ApplyDefaults() {
	if t == nil || t.Port != 0 || t.DSN != "" {
		return
	}
	switch t.Type {
	case "postgres":
		t.Port = 5432
	case "mysql":
		t.Port = 3306
	}
}
