// Package postgres provides a PostgreSQL database adapter that applies
// scripts rendered in the postgres dialect.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/sqlconvert/pkg/adapter"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	pgdialect "github.com/leapstack-labs/sqlconvert/pkg/dialects/postgres"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
	names *pgdialect.Generator
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
		names:          pgdialect.NewGenerator(pgdialect.Postgres, logger),
	}
}

// Dialect returns the dialect scripts must be rendered in.
func (a *Adapter) Dialect() string {
	return pgdialect.Postgres.Name
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))
	return a.Open(ctx, "pgx", buildPostgresDSN(cfg), cfg)
}

// DropStatements drops the trigger a trigger script creates. Functions,
// procedures and views are recreated with CREATE OR REPLACE.
func (a *Adapter) DropStatements(script core.Script) []string {
	s, ok := script.(*core.TriggerScript)
	if !ok || s.Name == nil || s.TableName == nil {
		return nil
	}
	return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", a.names.Text(s.Name), a.names.Table(s.TableName))}
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	// Build key=value format: host=localhost port=5432 user=postgres ...
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

var (
	_ adapter.Adapter  = (*Adapter)(nil)
	_ adapter.Replacer = (*Adapter)(nil)
)
