// Package mysql provides a MySQL database adapter that applies scripts
// rendered in the mysql dialect.
package mysql

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/sqlconvert/pkg/adapter"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	mysqldialect "github.com/leapstack-labs/sqlconvert/pkg/dialects/mysql"
)

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
	names *mysqldialect.Generator
}

// New creates a new MySQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
		names:          mysqldialect.NewGenerator(mysqldialect.MySQL, logger),
	}
}

// Dialect returns the dialect scripts must be rendered in.
func (a *Adapter) Dialect() string {
	return mysqldialect.MySQL.Name
}

// Connect establishes a connection to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return err
	}
	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))
	return a.Open(ctx, "mysql", dsn, cfg)
}

// DropStatements drops the routine or triggers a script creates. MySQL has
// no CREATE OR REPLACE for procedures, functions or triggers.
func (a *Adapter) DropStatements(script core.Script) []string {
	c := script.Common()
	if c.Name == nil {
		return nil
	}
	name := a.names.ScriptName(c)
	switch s := script.(type) {
	case *core.RoutineScript:
		if s.Kind == core.KindFunction {
			return []string{"DROP FUNCTION IF EXISTS " + name}
		}
		return []string{"DROP PROCEDURE IF EXISTS " + name}
	case *core.TriggerScript:
		names := mysqldialect.TriggerNames(name, s.Events)
		stmts := make([]string, len(names))
		for i, n := range names {
			stmts[i] = "DROP TRIGGER IF EXISTS " + n
		}
		return stmts
	}
	return nil
}

// buildMySQLDSN constructs a go-sql-driver DSN. Multi-statement mode is
// always on because a trigger script holds one CREATE per event.
func buildMySQLDSN(cfg adapter.Config) (string, error) {
	var c *mysql.Config
	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		c = parsed
	} else {
		host := cfg.Host
		if host == "" {
			host = "localhost"
		}
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		c = mysql.NewConfig()
		c.Net = "tcp"
		c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
		c.DBName = cfg.Database
		c.User = cfg.Username
		c.Passwd = cfg.Password
		if len(cfg.Options) > 0 {
			c.Params = make(map[string]string, len(cfg.Options))
			for k, v := range cfg.Options {
				c.Params[k] = v
			}
		}
	}
	c.MultiStatements = true
	c.ParseTime = true
	return c.FormatDSN(), nil
}

var (
	_ adapter.Adapter  = (*Adapter)(nil)
	_ adapter.Replacer = (*Adapter)(nil)
)
