package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlconvert/internal/cli/output"
	"github.com/leapstack-labs/sqlconvert/internal/engine"
	"github.com/spf13/cobra"
)

// NewDepsCommand creates the deps command.
func NewDepsCommand() *cobra.Command {
	var upstream, downstream string

	cmd := &cobra.Command{
		Use:     "deps <dir>",
		Aliases: []string{"dag"},
		Short:   "Show the dependency order of scripts",
		Long: `Show the order scripts are converted in. Scripts in the same level do not
depend on each other; every script comes after the scripts defining the
routines, views and tables it uses.

Names that no script defines are listed as unresolved; they usually refer
to base tables or to objects outside the directory.`,
		Example: `  # Dependency levels
  sqlconvert deps ./sql

  # Everything that must be re-converted when a helper changes
  sqlconvert deps ./sql --downstream procs/helper.sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args[0], upstream, downstream)
		},
	}
	cmd.Flags().StringVar(&upstream, "upstream", "", "Only show this script and the scripts it depends on")
	cmd.Flags().StringVar(&downstream, "downstream", "", "Only show this script and the scripts depending on it")
	return cmd
}

type depsNode struct {
	Path      string   `json:"path" yaml:"path"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Status    string   `json:"status,omitempty" yaml:"status,omitempty"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	UsedBy    []string `json:"used_by,omitempty" yaml:"used_by,omitempty"`
}

type depsUnresolved struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name" yaml:"name"`
}

type depsOutput struct {
	Levels     [][]depsNode     `json:"levels" yaml:"levels"`
	Edges      int              `json:"edges" yaml:"edges"`
	Unresolved []depsUnresolved `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
}

func runDeps(cmd *cobra.Command, path, upstream, downstream string) error {
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

	include, err := depsFilter(plan, upstream, downstream)
	if err != nil {
		return err
	}
	out := depsView(plan, include)

	r := c.Renderer
	if ok, err := r.Structured(out); ok {
		return err
	}
	printDeps(r, out)
	return nil
}

// depsFilter returns the IDs to show, or nil for all.
func depsFilter(plan *engine.Plan, upstream, downstream string) (map[string]bool, error) {
	var ids []string
	switch {
	case upstream != "" && downstream != "":
		return nil, fmt.Errorf("--upstream and --downstream cannot be combined")
	case upstream != "":
		if _, ok := plan.Item(upstream); !ok {
			return nil, fmt.Errorf("script %q not found", upstream)
		}
		ids = append(plan.Graph.Upstream(upstream), upstream)
	case downstream != "":
		if _, ok := plan.Item(downstream); !ok {
			return nil, fmt.Errorf("script %q not found", downstream)
		}
		ids = plan.Graph.Affected([]string{downstream})
	default:
		return nil, nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func depsView(plan *engine.Plan, include map[string]bool) depsOutput {
	out := depsOutput{Levels: [][]depsNode{}, Edges: plan.Graph.EdgeCount()}
	for _, level := range plan.Levels {
		var nodes []depsNode
		for _, id := range level {
			if include != nil && !include[id] {
				continue
			}
			it, _ := plan.Item(id)
			nodes = append(nodes, depsNode{
				Path:      id,
				Name:      it.Name,
				Status:    string(it.Status),
				DependsOn: plan.Graph.Parents(id),
				UsedBy:    plan.Graph.Children(id),
			})
		}
		if len(nodes) > 0 {
			out.Levels = append(out.Levels, nodes)
		}
	}
	for _, u := range plan.Unresolved {
		if include != nil && !include[u.ID] {
			continue
		}
		out.Unresolved = append(out.Unresolved, depsUnresolved{Path: u.ID, Name: u.Name})
	}
	return out
}

func printDeps(r *output.Renderer, out depsOutput) {
	styles := r.Styles()
	markdown := r.EffectiveMode() == output.ModeMarkdown
	total := 0
	for i, level := range out.Levels {
		r.Header(2, fmt.Sprintf("Level %d", i))
		for _, n := range level {
			total++
			label := n.Path
			if n.Name != "" {
				label += " (" + n.Name + ")"
			}
			if markdown {
				r.Println("- " + label)
			} else {
				r.Println("  " + styles.Path.Render(n.Path) + strings.TrimPrefix(label, n.Path))
			}
			if len(n.DependsOn) > 0 {
				r.Println("    " + r.FormatKeyValue("depends on", strings.Join(n.DependsOn, ", ")))
			}
			if len(n.UsedBy) > 0 {
				r.Println("    " + r.FormatKeyValue("used by", strings.Join(n.UsedBy, ", ")))
			}
		}
		r.Println()
	}
	if len(out.Unresolved) > 0 {
		r.Header(2, "Unresolved")
		rows := make([][]string, len(out.Unresolved))
		for i, u := range out.Unresolved {
			rows[i] = []string{u.Path, u.Name}
		}
		r.Table([]string{"Script", "Name"}, rows)
		r.Println()
	}
	r.Printf("Total: %d script(s), %d dependencies\n", total, out.Edges)
}
