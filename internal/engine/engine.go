// Package engine converts directories of T-SQL scripts. Scripts are
// discovered and analysed concurrently, ordered by the objects they define
// and reference, rendered in the target dialect and written in dependency
// order. Each batch can be recorded as a run in the state store.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/leapstack-labs/sqlconvert/internal/loader"
	"github.com/leapstack-labs/sqlconvert/pkg/convert"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/format"
)

// DefaultSource is the source dialect used when Config.Source is empty.
const DefaultSource = "tsql"

// Config holds engine configuration.
type Config struct {
	// Source is the dialect scripts are written in.
	Source string
	// Target is the dialect scripts are rendered in. Planning works without it.
	Target string
	// Workers bounds concurrent analysis and rendering. Zero means one per CPU.
	Workers int
	// KeywordCase is applied by the final formatting pass.
	KeywordCase format.KeywordCase
	// OutputDir receives rendered files, mirroring the input layout. Empty
	// keeps output in memory.
	OutputDir string
	// Exclude skips matching files (see loader.Loader.Exclude).
	Exclude []string
	// Store records runs when set.
	Store core.Store
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Engine runs batch conversions.
type Engine struct {
	cfg       Config
	source    *dialect.Dialect
	loader    *loader.Loader
	converter *convert.Converter
	logger    *slog.Logger
}

// New validates cfg and creates an engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	source, err := dialect.Lookup(cfg.Source)
	if err != nil {
		return nil, err
	}
	if source.Analyser() == nil {
		return nil, fmt.Errorf("%s: %w", source.Name, convert.ErrCannotAnalyse)
	}
	if cfg.Target != "" {
		target, err := dialect.Lookup(cfg.Target)
		if err != nil {
			return nil, err
		}
		if target.Generator() == nil {
			return nil, fmt.Errorf("%s: %w", target.Name, convert.ErrCannotRender)
		}
		cfg.Target = target.Name
	}
	cfg.Source = source.Name

	ld := loader.New(source.Analyser(), logger)
	if err := ld.Exclude(cfg.Exclude...); err != nil {
		return nil, err
	}

	logger.Debug("initializing engine", "source", cfg.Source, "target", cfg.Target, "workers", cfg.Workers)

	return &Engine{
		cfg:       cfg,
		source:    source,
		loader:    ld,
		converter: convert.New(logger),
		logger:    logger,
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}
