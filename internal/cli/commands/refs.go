package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlconvert/internal/engine"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/spf13/cobra"
)

// NewRefsCommand creates the refs command.
func NewRefsCommand() *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "refs <file|dir>",
		Short: "List the objects scripts reference",
		Long: `List every table, column, routine, variable and parameter reference found
in the scripts, with its position in the source.`,
		Example: `  # References of one procedure
  sqlconvert refs procs/get_orders.sql

  # Only routine calls and tables, as YAML
  sqlconvert refs ./sql --type routine --type table -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefs(cmd, args[0], types)
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "Only list these reference types (table, column, routine, variable, parameter, ...)")
	return cmd
}

type scriptRefs struct {
	Path       string           `json:"path" yaml:"path"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	References []core.Reference `json:"references" yaml:"references"`
}

func runRefs(cmd *cobra.Command, path string, types []string) error {
	c := NewCommandContext(cmd)
	eng, cleanup, err := c.newEngine(engineOptions{noStore: true})
	if err != nil {
		return err
	}
	defer cleanup()

	plan, err := eng.Plan(cmd.Context(), path)
	if err != nil {
		return err
	}

	keep := func(core.Reference) bool { return true }
	if len(types) > 0 {
		want := make(map[string]bool, len(types))
		for _, t := range types {
			want[normalizeRefType(t)] = true
		}
		keep = func(ref core.Reference) bool { return want[normalizeRefType(ref.Type.String())] }
	}

	var all []scriptRefs
	for _, it := range sortedItems(plan) {
		sr := scriptRefs{Path: it.ID(), Name: it.Name, References: []core.Reference{}}
		for _, ref := range it.References {
			if keep(ref) {
				sr.References = append(sr.References, ref)
			}
		}
		all = append(all, sr)
	}

	r := c.Renderer
	if ok, err := r.Structured(all); ok {
		if err != nil {
			return err
		}
		return problems(c, plan)
	}

	var rows [][]string
	for _, sr := range all {
		for _, ref := range sr.References {
			rows = append(rows, []string{sr.Path, position(ref.Line, ref.Column), ref.Type.String(), ref.Name})
		}
	}
	if len(rows) == 0 {
		r.Muted("no references found")
		return problems(c, plan)
	}
	r.Table([]string{"Script", "Position", "Type", "Name"}, rows)
	r.Muted(fmt.Sprintf("%d reference(s) in %d script(s)", len(rows), len(all)))
	return problems(c, plan)
}

// normalizeRefType lets "routine", "routine_name" and "RoutineName" match.
func normalizeRefType(s string) string {
	s = strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	return strings.TrimSuffix(s, "name")
}

// sortedItems returns plan items ordered by path.
func sortedItems(plan *engine.Plan) []*engine.Item {
	items := make([]*engine.Item, 0, len(plan.Items))
	for _, n := range plan.Graph.Nodes() {
		items = append(items, n.Data)
	}
	return items
}

// problems reports scripts that could not be analysed. It returns an error
// when any script failed.
func problems(c *CommandContext, plan *engine.Plan) error {
	failed := len(plan.LoadErrors)
	for _, le := range plan.LoadErrors {
		c.Renderer.Error(le.Error())
	}
	for _, it := range sortedItems(plan) {
		if it.Status == core.RecordStatusFailed {
			failed++
			c.Renderer.Error(fmt.Sprintf("%s: %v", it.ID(), it.Err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d script(s) could not be analysed", ErrScriptsFailed, failed)
	}
	return nil
}
