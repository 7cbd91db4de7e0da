package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlconvert/internal/cli/output"
	"github.com/leapstack-labs/sqlconvert/internal/loader"
	"github.com/leapstack-labs/sqlconvert/pkg/convert"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/spf13/cobra"
)

// NewAnalyseCommand creates the analyse command.
func NewAnalyseCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:     "analyse <file|->",
		Aliases: []string{"analyze"},
		Short:   "Analyse a script and print its structure",
		Long: `Parse one T-SQL create statement and print the analysed script: its
header, parameters, body statements, warnings and references.

A syntax error is reported with its line and column and exits non-zero.
Use - to read the script from standard input.`,
		Example: `  # Analyse a procedure
  sqlconvert analyse procs/get_orders.sql

  # Print the analysis as JSON
  sqlconvert analyse procs/get_orders.sql -o json

  # Analyse from stdin
  cat view.sql | sqlconvert analyse - --kind view`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyse(cmd, args[0], kind)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Script kind (procedure|function|view|trigger); detected when empty")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"procedure", "function", "view", "trigger"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runAnalyse(cmd *cobra.Command, path, kindFlag string) error {
	c := NewCommandContext(cmd)
	kind, err := parseKind(kindFlag)
	if err != nil {
		return err
	}

	script, err := readScript(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	if kind == "" {
		kind = script.Kind
	}
	source := c.Cfg.SourceDialect
	if script.Config != nil && script.Config.Dialect != "" {
		source = script.Config.Dialect
	}

	c.Logger.Debug("analysing script", "path", path, "source", source, "kind", kind)
	res, err := convert.Analyse(cmd.Context(), source, kind, script.SQL)
	if err != nil {
		return err
	}

	if ok, err := c.Renderer.Structured(res); ok || err != nil {
		if err != nil {
			return err
		}
		if !res.OK() {
			return fmt.Errorf("%s: %w", path, res.Error)
		}
		return nil
	}

	if !res.OK() {
		return fmt.Errorf("%s: %w", path, res.Error)
	}
	printAnalysis(c.Renderer, res)
	return nil
}

// readScript loads path through the frontmatter-aware loader. "-" reads
// standard input.
func readScript(stdin io.Reader, path string) (*loader.Script, error) {
	l := loader.New(nil, nil)
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		s, lerr := l.Parse(string(data))
		if lerr != nil {
			return nil, lerr
		}
		return s, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory; analyse takes a single file", path)
	}
	s, lerr := l.LoadFile(path, filepath.Base(path))
	if lerr != nil {
		return nil, lerr
	}
	return s, nil
}

func parseKind(s string) (core.ScriptKind, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "procedure", "proc":
		return core.KindProcedure, nil
	case "function":
		return core.KindFunction, nil
	case "view":
		return core.KindView, nil
	case "trigger":
		return core.KindTrigger, nil
	default:
		return "", fmt.Errorf("invalid kind %q (want procedure, function, view or trigger)", s)
	}
}

func printAnalysis(r *output.Renderer, res *core.AnalyseResult) {
	common := res.Script.Common()
	r.Header(1, fmt.Sprintf("%s %s", res.Script.ScriptKind(), common.FullName()))

	switch s := res.Script.(type) {
	case *core.RoutineScript:
		switch {
		case s.ReturnDataType != nil:
			r.Println(r.FormatKeyValue("returns", s.ReturnDataType.Symbol))
		case s.ReturnTable != nil:
			r.Println(r.FormatKeyValue("returns", "table "+s.ReturnTable.Name.Symbol))
		case s.InlineTable:
			r.Println(r.FormatKeyValue("returns", "inline table"))
		}
	case *core.TriggerScript:
		events := make([]string, len(s.Events))
		for i, e := range s.Events {
			events[i] = string(e)
		}
		if s.TableName != nil {
			r.Println(r.FormatKeyValue("table", s.TableName.Symbol))
		}
		r.Println(r.FormatKeyValue("fires", fmt.Sprintf("%s %s", s.Time, strings.Join(events, ", "))))
	}
	r.Println(r.FormatKeyValue("statements", fmt.Sprint(len(common.Statements))))
	r.Println()

	if len(common.Parameters) > 0 {
		r.Header(2, "Parameters")
		rows := make([][]string, len(common.Parameters))
		for i, p := range common.Parameters {
			def := ""
			if p.DefaultValue != nil {
				def = p.DefaultValue.Symbol
			}
			rows[i] = []string{p.Name.Symbol, p.DataType.Symbol, string(p.Direction), def}
		}
		r.Table([]string{"Name", "Type", "Direction", "Default"}, rows)
		r.Println()
	}

	if len(common.Warnings) > 0 {
		r.Header(2, "Warnings")
		rows := make([][]string, len(common.Warnings))
		for i, w := range common.Warnings {
			rows[i] = []string{position(w.Line, w.Column), w.Severity.String(), w.Construct, w.Message}
		}
		r.Table([]string{"Position", "Severity", "Construct", "Message"}, rows)
		r.Println()
	}

	if len(res.References) > 0 {
		r.Header(2, "References")
		r.Table([]string{"Position", "Type", "Name"}, referenceRows(res.References))
	}
}

func referenceRows(refs []core.Reference) [][]string {
	rows := make([][]string, len(refs))
	for i, ref := range refs {
		rows[i] = []string{position(ref.Line, ref.Column), ref.Type.String(), ref.Name}
	}
	return rows
}

func position(line, col int) string {
	return fmt.Sprintf("%d:%d", line, col)
}
