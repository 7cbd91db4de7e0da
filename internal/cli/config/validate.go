package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlconvert/internal/cli/output"
	"github.com/leapstack-labs/sqlconvert/pkg/adapter"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/format"
)

// Validate checks values that commands cannot recover from.
func (c *Config) Validate() error {
	if c.SourceDialect == "" {
		return fmt.Errorf("source_dialect is required")
	}
	if _, ok := dialect.Get(c.SourceDialect); !ok {
		return fmt.Errorf("source_dialect: %w", &dialect.UnknownDialectError{Name: c.SourceDialect, Available: dialect.List()})
	}
	if c.TargetDialect != "" {
		if _, ok := dialect.Get(c.TargetDialect); !ok {
			return fmt.Errorf("target_dialect: %w", &dialect.UnknownDialectError{Name: c.TargetDialect, Available: dialect.List()})
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", c.Debounce)
	}
	if _, err := format.ParseKeywordCase(c.KeywordCase); err != nil {
		return fmt.Errorf("keyword_case: %w", err)
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// Validate checks that the target names a registered adapter.
func (t *TargetConfig) Validate() error {
	if t == nil || strings.TrimSpace(t.Type) == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.ListAdapters()}
	}
	return nil
}
