package commands

import (
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/adapter"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/spf13/cobra"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the supported dialects",
		Long: `List every registered dialect with what it supports: "analyse" dialects
can be read with --from, "render" dialects can be produced with --to and
"apply" dialects have a database adapter for the apply command.`,
		Args: cobra.NoArgs,
		RunE: runDialects,
	}
}

type dialectInfo struct {
	Name         string   `json:"name" yaml:"name"`
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
}

func runDialects(cmd *cobra.Command, _ []string) error {
	c := NewCommandContext(cmd)

	var infos []dialectInfo
	for _, name := range dialect.List() {
		d, ok := dialect.Get(name)
		if !ok {
			continue
		}
		caps := append([]string{}, d.Capabilities()...)
		if adapter.IsRegistered(name) {
			caps = append(caps, "apply")
		}
		infos = append(infos, dialectInfo{Name: name, Capabilities: caps})
	}

	r := c.Renderer
	if ok, err := r.Structured(infos); ok {
		return err
	}
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{info.Name, strings.Join(info.Capabilities, ", ")}
	}
	r.Table([]string{"Dialect", "Capabilities"}, rows)
	return nil
}

// renderableDialects lists the dialects that can be used as --to.
func renderableDialects() []string {
	var names []string
	for _, name := range dialect.List() {
		if d, ok := dialect.Get(name); ok && d.Generator() != nil {
			names = append(names, name)
		}
	}
	return names
}
