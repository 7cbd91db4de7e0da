package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past conversion runs",
		Long: `List recent conversion runs from the state database, newest first.
Given a run ID, show the scripts converted in that run with their status
and references.`,
		Example: `  # Recent runs
  sqlconvert history

  # Scripts of one run as JSON
  sqlconvert history 1b4e28ba-2fa1-11d2-883f-0016d3cca427 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryRun(cmd, args[0])
			}
			return runHistory(cmd, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	return cmd
}

type runView struct {
	ID          string     `json:"id" yaml:"id"`
	Source      string     `json:"source" yaml:"source"`
	Target      string     `json:"target" yaml:"target"`
	Status      string     `json:"status" yaml:"status"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

type recordView struct {
	Path       string           `json:"path" yaml:"path"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Kind       string           `json:"kind,omitempty" yaml:"kind,omitempty"`
	Status     string           `json:"status" yaml:"status"`
	Hash       string           `json:"hash,omitempty" yaml:"hash,omitempty"`
	Warnings   int              `json:"warnings" yaml:"warnings"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
	References []core.Reference `json:"references,omitempty" yaml:"references,omitempty"`
}

func newRunView(run *core.Run) runView {
	return runView{
		ID:          run.ID,
		Source:      run.SourceDialect,
		Target:      run.TargetDialect,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Error,
	}
}

// openHistory opens the state database, failing when it does not exist yet.
func (c *CommandContext) openHistory() (core.Store, error) {
	if c.Cfg.StatePath == "" {
		return nil, errors.New("no state database configured")
	}
	if _, err := os.Stat(c.Cfg.StatePath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no conversion history at %s: run convert first", c.Cfg.StatePath)
		}
		return nil, err
	}
	return openStore(c.Cfg.StatePath, c.Logger)
}

func runHistory(cmd *cobra.Command, limit int) error {
	c := NewCommandContext(cmd)
	store, err := c.openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	views := make([]runView, len(runs))
	for i, run := range runs {
		views[i] = newRunView(run)
	}

	r := c.Renderer
	if ok, err := r.Structured(views); ok {
		return err
	}
	if len(views) == 0 {
		r.Muted("no runs recorded")
		return nil
	}
	rows := make([][]string, len(views))
	for i, v := range views {
		rows[i] = []string{v.ID, v.Source + " → " + v.Target, v.Status, v.StartedAt.Local().Format(time.DateTime), duration(v)}
	}
	r.Table([]string{"Run", "Dialects", "Status", "Started", "Duration"}, rows)
	return nil
}

func runHistoryRun(cmd *cobra.Command, id string) error {
	c := NewCommandContext(cmd)
	ctx := cmd.Context()
	store, err := c.openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	records, err := store.GetScriptRecords(ctx, id)
	if err != nil {
		return err
	}

	out := struct {
		Run     runView      `json:"run" yaml:"run"`
		Scripts []recordView `json:"scripts" yaml:"scripts"`
	}{Run: newRunView(run), Scripts: make([]recordView, len(records))}
	for i, rec := range records {
		out.Scripts[i] = recordView{
			Path:       rec.Path,
			Name:       rec.Name,
			Kind:       string(rec.Kind),
			Status:     string(rec.Status),
			Hash:       rec.ContentHash,
			Warnings:   rec.WarningCount,
			Error:      rec.Error,
			References: rec.References,
		}
	}

	r := c.Renderer
	if ok, err := r.Structured(out); ok {
		return err
	}

	r.Header(1, "Run "+run.ID)
	r.Println(r.FormatKeyValue("dialects", run.SourceDialect+" → "+run.TargetDialect))
	r.Println(r.FormatKeyValue("status", string(run.Status)))
	r.Println(r.FormatKeyValue("started", run.StartedAt.Local().Format(time.DateTime)))
	if run.Error != "" {
		r.Println(r.FormatKeyValue("error", run.Error))
	}
	r.Println()

	rows := make([][]string, len(out.Scripts))
	for i, s := range out.Scripts {
		rows[i] = []string{s.Path, s.Name, s.Kind, s.Status, strconv.Itoa(s.Warnings), strconv.Itoa(len(s.References)), s.Error}
	}
	r.Table([]string{"Script", "Name", "Kind", "Status", "Warnings", "Refs", "Error"}, rows)
	return nil
}

func duration(v runView) string {
	if v.CompletedAt == nil {
		return "-"
	}
	return v.CompletedAt.Sub(v.StartedAt).Round(time.Millisecond).String()
}
