package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlconvert/internal/cli/config"
	"github.com/leapstack-labs/sqlconvert/internal/cli/testutil"
	"github.com/leapstack-labs/sqlconvert/internal/engine"
	"github.com/leapstack-labs/sqlconvert/internal/loader"
	"github.com/leapstack-labs/sqlconvert/pkg/adapter"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/sqlconvert/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/sqlconvert/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqlconvert/pkg/dialects/mysql"
	_ "github.com/leapstack-labs/sqlconvert/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/sqlconvert/pkg/dialects/tsql"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewAnalyseCommand(), "analyse <file|->", []string{"kind"}},
		{NewConvertCommand(), "convert <file|dir>", []string{"to", "out", "keyword-case", "workers", "exclude", "debounce", "watch"}},
		{NewRefsCommand(), "refs <file|dir>", []string{"type"}},
		{NewDepsCommand(), "deps <dir>", []string{"upstream", "downstream"}},
		{NewApplyCommand(), "apply <file|dir>", []string{"to", "dsn", "replace", "dry-run"}},
		{NewHistoryCommand(), "history [run-id]", []string{"limit"}},
		{NewDialectsCommand(), "dialects", nil},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}

	assert.Equal(t, []string{"analyze"}, NewAnalyseCommand().Aliases)
	assert.Equal(t, []string{"dag"}, NewDepsCommand().Aliases)
}

// run executes a command outside the root, so the default configuration
// applies and output is markdown.
func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAnalyseCommand(t *testing.T) {
	out, _, err := run(t, NewAnalyseCommand(), testutil.ProjectScripts["procs/get_orders.sql"], "-")
	require.NoError(t, err)

	assert.Contains(t, out, "# PROCEDURE dbo.GetOrders")
	assert.Contains(t, out, "## Parameters")
	assert.Contains(t, out, "@CustomerId")
	assert.Contains(t, out, "## References")
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
}

func TestAnalyseCommand_InvalidKind(t *testing.T) {
	_, _, err := run(t, NewAnalyseCommand(), "SELECT 1", "-", "--kind", "package")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kind")
}

func TestAnalyseCommand_Directory(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	_, _, err := run(t, NewAnalyseCommand(), "", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    core.ScriptKind
		wantErr bool
	}{
		{"", "", false},
		{"proc", core.KindProcedure, false},
		{"PROCEDURE", core.KindProcedure, false},
		{"function", core.KindFunction, false},
		{"view", core.KindView, false},
		{"trigger", core.KindTrigger, false},
		{"table", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRefType(t *testing.T) {
	for _, in := range []string{"routine", "routine_name", "RoutineName", "Routine-Name"} {
		assert.Equal(t, "routine", normalizeRefType(in), in)
	}
	assert.Equal(t, "table", normalizeRefType(core.TokenTableName.String()))
}

func TestRefsCommand_TypeFilter(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, _, err := run(t, NewRefsCommand(), "", dir, "--type", "routine")
	require.NoError(t, err)
	assert.Contains(t, out, "Helper")
	assert.Contains(t, out, "RoutineName")
	assert.NotContains(t, out, "TableName")
}

func TestDepsCommand_Filters(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	t.Run("upstream", func(t *testing.T) {
		out, _, err := run(t, NewDepsCommand(), "", dir, "--upstream", "procs/get_orders.sql")
		require.NoError(t, err)
		assert.Contains(t, out, "procs/helper.sql")
		assert.Contains(t, out, "views/v_orders.sql")
		assert.Contains(t, out, "Total: 3 script(s)")
	})

	t.Run("downstream", func(t *testing.T) {
		out, _, err := run(t, NewDepsCommand(), "", dir, "--downstream", "procs/helper.sql")
		require.NoError(t, err)
		assert.Contains(t, out, "- procs/get_orders.sql")
		assert.NotContains(t, out, "- views/v_orders.sql")
		assert.Contains(t, out, "Total: 2 script(s)")
	})

	t.Run("both", func(t *testing.T) {
		_, _, err := run(t, NewDepsCommand(), "", dir, "--upstream", "a.sql", "--downstream", "b.sql")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be combined")
	})

	t.Run("unknown script", func(t *testing.T) {
		_, _, err := run(t, NewDepsCommand(), "", dir, "--downstream", "missing.sql")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"missing.sql" not found`)
	})
}

func TestConvertCommand_NoTarget(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	_, _, err := run(t, NewConvertCommand(), "", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target dialect is required")
}

func TestApplyTarget(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantType string
		wantPort int
		wantErr  string
	}{
		{
			name:     "type from target dialect",
			cfg:      config.Config{TargetDialect: "MySQL"},
			wantType: "mysql",
			wantPort: 3306,
		},
		{
			name:     "configured target",
			cfg:      config.Config{Target: &config.TargetConfig{Type: "postgres", Port: 6543}},
			wantType: "postgres",
			wantPort: 6543,
		},
		{
			name:    "nothing configured",
			cfg:     config.Config{},
			wantErr: "target database is required",
		},
		{
			name:    "no adapter",
			cfg:     config.Config{TargetDialect: "oracle"},
			wantErr: "no database adapter for",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &CommandContext{Cfg: &tt.cfg}
			target, err := c.applyTarget()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, target.Type)
			assert.Equal(t, tt.wantPort, target.Port)
		})
	}

	var ue *adapter.UnknownAdapterError
	_, err := (&CommandContext{Cfg: &config.Config{TargetDialect: "oracle"}}).applyTarget()
	assert.True(t, errors.As(err, &ue))
}

func reportItem(path string, status core.RecordStatus, text string, err error) *engine.Item {
	return &engine.Item{Script: &loader.Script{RelPath: path}, Status: status, Text: text, Err: err}
}

func TestPrintReport(t *testing.T) {
	report := &engine.Report{
		Plan: &engine.Plan{},
		Items: []*engine.Item{
			reportItem("a.sql", core.RecordStatusConverted, "CREATE VIEW a AS SELECT 1;\n", nil),
			reportItem("b.sql", core.RecordStatusConverted, "CREATE VIEW b AS SELECT 2;\n", nil),
			reportItem("c.sql", core.RecordStatusFailed, "", core.ErrUnsupportedConstruct),
		},
		Converted: 2,
		Failed:    1,
	}
	report.Items[0].Warnings = []core.Warning{{Construct: "WAITFOR", Message: "not supported", Line: 3, Column: 5}}

	tr := testutil.NewTestRendererMarkdown()
	c := &CommandContext{Cfg: &config.Config{}, Renderer: tr.Renderer}
	c.printReport(report)

	out := tr.Output()
	assert.Contains(t, out, "-- a.sql\nCREATE VIEW a AS SELECT 1;\n")
	assert.Contains(t, out, "-- b.sql\n")
	assert.NotContains(t, out, "c.sql")

	errOut := tr.ErrorOutput()
	assert.Contains(t, errOut, "c.sql:")
	assert.Contains(t, errOut, "a.sql:3:5: WAITFOR: not supported")
	assert.Contains(t, errOut, "2 converted, 1 failed")
	testutil.AssertNoANSI(t, out+errOut)
}

func TestPrintReport_JSON(t *testing.T) {
	report := &engine.Report{
		Plan:      &engine.Plan{LoadErrors: []*loader.LoadError{{Path: "bad.sql", Type: "read", Err: errors.New("denied")}}},
		Items:     []*engine.Item{reportItem("a.sql", core.RecordStatusConverted, "CREATE VIEW a AS SELECT 1;\n", nil)},
		Converted: 1,
	}

	tr := testutil.NewTestRendererJSON()
	c := &CommandContext{Cfg: &config.Config{}, Renderer: tr.Renderer}
	c.printReport(report)

	out := tr.Output()
	assert.Contains(t, out, `"converted": 1`)
	assert.Contains(t, out, `"failed": 1`)
	assert.Contains(t, out, `"path": "bad.sql"`)
	assert.Empty(t, tr.ErrorOutput())
}

func TestRenderableDialects(t *testing.T) {
	names := renderableDialects()
	assert.Contains(t, names, "postgres")
	assert.Contains(t, names, "mysql")
}
