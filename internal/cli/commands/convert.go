package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/sqlconvert/internal/engine"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/spf13/cobra"
)

// ErrScriptsFailed is returned when a batch finished with failed scripts.
var ErrScriptsFailed = errors.New("conversion failed")

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "convert <file|dir>",
		Short: "Convert scripts into another dialect",
		Long: `Convert T-SQL procedures, functions, views and triggers into the target
dialect.

A directory is searched recursively for .sql files. Scripts are analysed
concurrently, ordered so that every script follows the objects it uses and
written under --out with the same layout. Without --out the rendered text
is printed.

With --watch the conversion is repeated whenever a script changes; only the
changed scripts and the scripts that depend on them are converted again.`,
		Example: `  # Print a procedure converted for PostgreSQL
  sqlconvert convert procs/get_orders.sql --to postgres

  # Convert a directory for MySQL
  sqlconvert convert ./sql --to mysql --out ./build/mysql

  # Keep converting while editing
  sqlconvert convert ./sql --to postgres --out ./build/pg --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], watch)
		},
	}

	cmd.Flags().String("to", "", "Target dialect")
	cmd.Flags().String("out", "", "Output directory (prints to stdout when empty)")
	cmd.Flags().String("keyword-case", "", "Keyword case: upper, lower or preserve")
	cmd.Flags().Int("workers", 0, "Concurrent workers (default: one per CPU)")
	cmd.Flags().StringSlice("exclude", nil, "Skip files matching these patterns")
	cmd.Flags().Duration("debounce", 0, "Wait this long for changes to settle in --watch mode")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-convert when scripts change")
	_ = cmd.RegisterFlagCompletionFunc("to", completeTargets)
	_ = cmd.RegisterFlagCompletionFunc("keyword-case", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"upper", "lower", "preserve"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runConvert(cmd *cobra.Command, path string, watch bool) error {
	c := NewCommandContext(cmd)
	target, err := c.requireTarget()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	eng, cleanup, err := c.newEngine(engineOptions{target: target, outputDir: c.Cfg.OutputDir})
	if err != nil {
		return err
	}
	defer cleanup()

	if watch {
		return c.watch(cmd.Context(), eng, path)
	}

	report, err := eng.Convert(cmd.Context(), path)
	if err != nil {
		return err
	}
	c.printReport(report)
	if report.HasFailures() {
		return fmt.Errorf("%w: %d script(s) failed", ErrScriptsFailed, report.Failed+len(report.Plan.LoadErrors))
	}
	return nil
}

func (c *CommandContext) watch(ctx context.Context, eng *engine.Engine, path string) error {
	r := c.Renderer
	r.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", path))
	fn := func(report *engine.Report, err error) {
		if err != nil {
			r.Error(err.Error())
			return
		}
		c.printReport(report)
	}
	if c.Cfg.Debounce > 0 {
		return eng.WatchWithDebounce(ctx, path, c.Cfg.Debounce, fn)
	}
	return eng.Watch(ctx, path, fn)
}

// printReport prints rendered text when nothing was written to disk, then
// the per-script problems and a summary.
func (c *CommandContext) printReport(report *engine.Report) {
	r := c.Renderer

	if ok, err := r.Structured(reportView(report)); ok {
		if err != nil {
			r.Error(err.Error())
		}
		return
	}

	if c.Cfg.OutputDir == "" {
		converted := 0
		for _, it := range report.Items {
			if it.Status == core.RecordStatusConverted {
				converted++
			}
		}
		for _, it := range report.Items {
			if it.Status != core.RecordStatusConverted {
				continue
			}
			if converted > 1 {
				r.Printf("-- %s\n", it.ID())
			}
			r.Printf("%s", it.Text)
			if converted > 1 {
				r.Println()
			}
		}
	}

	for _, le := range report.Plan.LoadErrors {
		r.Error(le.Error())
	}
	for _, it := range report.Items {
		switch {
		case it.Status == core.RecordStatusFailed:
			r.Error(fmt.Sprintf("%s: %v", it.ID(), it.Err))
		case it.Status == core.RecordStatusSkipped && it.Err != nil:
			r.Warning(fmt.Sprintf("%s: skipped: %v", it.ID(), it.Err))
		case it.Status == core.RecordStatusSkipped:
			r.Muted(fmt.Sprintf("%s: skipped", it.ID()))
		}
		for _, w := range it.Warnings {
			r.Warning(fmt.Sprintf("%s:%d:%d: %s: %s", it.ID(), w.Line, w.Column, w.Construct, w.Message))
		}
		if it.OutputPath != "" && c.Cfg.Verbose {
			r.Muted(fmt.Sprintf("wrote %s", it.OutputPath))
		}
	}

	summary := report.Summary()
	if report.Run != nil {
		summary += " | Run: " + report.Run.ID
	}
	if report.HasFailures() {
		r.Error(summary)
	} else {
		r.Success(summary)
	}
}

// itemView is the machine-readable form of one processed script.
type itemView struct {
	Path       string           `json:"path" yaml:"path"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Kind       core.ScriptKind  `json:"kind,omitempty" yaml:"kind,omitempty"`
	Status     string           `json:"status" yaml:"status"`
	Output     string           `json:"output,omitempty" yaml:"output,omitempty"`
	Text       string           `json:"text,omitempty" yaml:"text,omitempty"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
	Warnings   []core.Warning   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	References []core.Reference `json:"references,omitempty" yaml:"references,omitempty"`
}

type reportJSON struct {
	RunID     string     `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Converted int        `json:"converted" yaml:"converted"`
	Failed    int        `json:"failed" yaml:"failed"`
	Skipped   int        `json:"skipped" yaml:"skipped"`
	Items     []itemView `json:"items" yaml:"items"`
}

func reportView(report *engine.Report) reportJSON {
	out := reportJSON{
		Converted: report.Converted,
		Failed:    report.Failed,
		Skipped:   report.Skipped,
		Items:     make([]itemView, 0, len(report.Items)),
	}
	if report.Run != nil {
		out.RunID = report.Run.ID
	}
	for _, it := range report.Items {
		v := itemView{
			Path:       it.ID(),
			Name:       it.Name,
			Kind:       it.Script.Kind,
			Status:     string(it.Status),
			Output:     it.OutputPath,
			Warnings:   it.Warnings,
			References: it.References,
		}
		if it.OutputPath == "" {
			v.Text = it.Text
		}
		if it.Err != nil {
			v.Error = it.Err.Error()
		}
		out.Items = append(out.Items, v)
	}
	for _, le := range report.Plan.LoadErrors {
		out.Failed++
		out.Items = append(out.Items, itemView{Path: le.Path, Status: string(core.RecordStatusFailed), Error: le.Error()})
	}
	return out
}

func completeTargets(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return renderableDialects(), cobra.ShellCompDirectiveNoFileComp
}
