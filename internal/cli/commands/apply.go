package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/sqlconvert/internal/cli/config"
	"github.com/leapstack-labs/sqlconvert/internal/engine"
	"github.com/leapstack-labs/sqlconvert/pkg/adapter"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/spf13/cobra"
)

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	var replace, dryRun bool

	cmd := &cobra.Command{
		Use:   "apply <file|dir>",
		Short: "Convert scripts and create them in a database",
		Long: `Convert scripts into the target dialect and execute the result against the
database configured under target in sqlconvert.yaml (or --dsn).

Scripts are created in dependency order. Nothing is executed when any
script fails to convert. With --replace existing objects are dropped first
on databases that cannot replace them in place.`,
		Example: `  # Create converted procedures in PostgreSQL
  sqlconvert apply ./sql --to postgres --dsn "postgres://app@localhost/app"

  # Show the statements without connecting
  sqlconvert apply ./sql --to mysql --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], replace, dryRun)
		},
	}

	cmd.Flags().String("to", "", "Target dialect (defaults to the target type)")
	cmd.Flags().String("dsn", "", "Connection string of the target database")
	cmd.Flags().BoolVar(&replace, "replace", false, "Drop existing objects before creating them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statements instead of executing them")
	_ = cmd.RegisterFlagCompletionFunc("to", completeTargets)
	return cmd
}

func runApply(cmd *cobra.Command, path string, replace, dryRun bool) error {
	c := NewCommandContext(cmd)
	ctx := cmd.Context()

	target, err := c.applyTarget()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	a, err := adapter.NewAdapter(target.AdapterConfig(), c.Logger)
	if err != nil {
		return err
	}
	dialectName := c.Cfg.TargetDialect
	if dialectName == "" {
		dialectName = a.Dialect()
	} else if !strings.EqualFold(dialectName, a.Dialect()) {
		return fmt.Errorf("target dialect %q does not match the %s database", dialectName, a.Dialect())
	}

	eng, cleanup, err := c.newEngine(engineOptions{target: dialectName})
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := eng.Convert(ctx, path)
	if err != nil {
		return err
	}
	if report.HasFailures() {
		c.printReport(report)
		return fmt.Errorf("%w: nothing was applied", ErrScriptsFailed)
	}

	r := c.Renderer
	items := convertedItems(report)
	if dryRun {
		for _, it := range items {
			for _, stmt := range adapter.SplitScript(it.Text) {
				r.Printf("-- %s\n%s\n\n", it.ID(), stmt)
			}
		}
		r.Muted(fmt.Sprintf("%d script(s) would be applied", len(items)))
		return nil
	}

	if err := a.Connect(ctx, target.AdapterConfig()); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", target.Type, err)
	}
	defer func() { _ = a.Close() }()

	total := 0
	for _, it := range items {
		n, err := adapter.Apply(ctx, a, it.Analysed, it.Text, adapter.ApplyOptions{Replace: replace})
		total += n
		if err != nil {
			r.Error(fmt.Sprintf("%s: %v", it.ID(), err))
			return fmt.Errorf("%w: %s: %w", ErrScriptsFailed, it.ID(), err)
		}
		c.Logger.Debug("applied script", "path", it.ID(), "statements", n)
		if c.Cfg.Verbose {
			r.Muted(fmt.Sprintf("applied %s", it.ID()))
		}
	}
	r.Success(fmt.Sprintf("Applied %d script(s), %d statement(s)", len(items), total))
	return nil
}

// applyTarget returns the database target, taking its type from the target
// dialect when only a DSN is configured.
func (c *CommandContext) applyTarget() (*config.TargetConfig, error) {
	var target config.TargetConfig
	if c.Cfg.Target != nil {
		target = *c.Cfg.Target
	}
	if target.Type == "" {
		target.Type = strings.ToLower(c.Cfg.TargetDialect)
	}
	if target.Type == "" {
		return nil, fmt.Errorf("target database is required: use --to with --dsn or set target in sqlconvert.yaml")
	}
	target.ApplyDefaults()
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return &target, nil
}

func convertedItems(report *engine.Report) []*engine.Item {
	var items []*engine.Item
	for _, it := range report.Items {
		if it.Status == core.RecordStatusConverted {
			items = append(items, it)
		}
	}
	return items
}
