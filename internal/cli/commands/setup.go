// Package commands implements the sqlconvert subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/sqlconvert/internal/cli/config"
	"github.com/leapstack-labs/sqlconvert/internal/cli/output"
	"github.com/leapstack-labs/sqlconvert/internal/engine"
	"github.com/leapstack-labs/sqlconvert/internal/state"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/format"
	"github.com/spf13/cobra"
)

// CommandContext holds the dependencies shared by commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds the context for cmd from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	mode, _ := output.ParseMode(cfg.OutputFormat)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// getConfig returns the loaded configuration, or defaults when commands run
// without the root command (as in unit tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		SourceDialect: config.DefaultSourceDialect,
		StatePath:     config.DefaultStateFile,
		KeywordCase:   config.DefaultKeywordCase,
		Debounce:      config.DefaultDebounce,
		OutputFormat:  config.DefaultOutput,
	}
}

// engineOptions adjusts the engine configuration built from Config.
type engineOptions struct {
	target    string
	outputDir string
	noStore   bool
}

// newEngine creates an engine and, unless disabled, opens the state store.
// The returned cleanup closes the store.
func (c *CommandContext) newEngine(opts engineOptions) (*engine.Engine, func(), error) {
	kc, err := format.ParseKeywordCase(c.Cfg.KeywordCase)
	if err != nil {
		return nil, nil, err
	}

	ecfg := engine.Config{
		Source:      c.Cfg.SourceDialect,
		Target:      opts.target,
		Workers:     c.Cfg.Workers,
		KeywordCase: kc,
		OutputDir:   opts.outputDir,
		Exclude:     c.Cfg.Exclude,
		Logger:      c.Logger,
	}

	cleanup := func() {}
	if !opts.noStore && !c.Cfg.NoState && c.Cfg.StatePath != "" {
		store, err := openStore(c.Cfg.StatePath, c.Logger)
		if err != nil {
			return nil, nil, err
		}
		ecfg.Store = store
		cleanup = func() { _ = store.Close() }
	}

	eng, err := engine.New(ecfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}

// openStore opens the state database, creating its directory.
func openStore(path string, logger *slog.Logger) (core.Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store, err := state.OpenStore(path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, nil
}

// requireTarget returns the configured target dialect or an error naming
// the flag that sets it.
func (c *CommandContext) requireTarget() (string, error) {
	if c.Cfg.TargetDialect == "" {
		return "", fmt.Errorf("target dialect is required: use --to or set target_dialect in sqlconvert.yaml")
	}
	return c.Cfg.TargetDialect, nil
}
