package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlconvert/internal/cli"
	"github.com/leapstack-labs/sqlconvert/internal/cli/config"
	"github.com/leapstack-labs/sqlconvert/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command inside dir and returns stdout and stderr.
func execute(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlconvert v")
}

func TestHelpCommand(t *testing.T) {
	out, _, err := execute(t, t.TempDir(), "--help")
	require.NoError(t, err)
	for _, want := range []string{"analyse", "convert", "refs", "deps", "apply", "history", "dialects"} {
		assert.Contains(t, out, want)
	}
}

func TestConvertCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, errOut, err := execute(t, dir, "convert", ".", "--to", "postgres", "-o", "markdown")
	require.NoError(t, err, errOut)
	assert.Contains(t, out, "-- procs/get_orders.sql")
	assert.Contains(t, out, "CREATE OR REPLACE PROCEDURE")
	assert.Contains(t, out, "CREATE OR REPLACE VIEW")
	assert.Contains(t, errOut, "3 converted")
	testutil.AssertNoANSI(t, out+errOut)

	_, err = os.Stat(filepath.Join(dir, config.DefaultStateFile))
	assert.NoError(t, err, "state database should be created")
}

func TestConvertCommand_OutputDir(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	_, errOut, err := execute(t, dir, "convert", ".", "--to", "mysql", "--out", "build", "--no-state")
	require.NoError(t, err, errOut)

	text, err := os.ReadFile(filepath.Join(dir, "build", "procs", "get_orders.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "CALL Helper(")

	_, err = os.Stat(filepath.Join(dir, config.DefaultStateFile))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConvertCommand_RequiresTarget(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	_, _, err := execute(t, dir, "convert", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target dialect is required")
}

func TestConvertCommand_ConfigFile(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlconvert.yaml"),
		[]byte("target_dialect: mysql\noutput_dir: out\nno_state: true\n"), 0o600))

	_, errOut, err := execute(t, dir, "convert", ".")
	require.NoError(t, err, errOut)
	_, err = os.Stat(filepath.Join(dir, "out", "views", "v_orders.sql"))
	assert.NoError(t, err)
}

func TestAnalyseCommand_JSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, errOut, err := execute(t, dir, "analyse", "procs/get_orders.sql", "-o", "json")
	require.NoError(t, err, errOut)
	assert.True(t, json.Valid([]byte(out)), out)
	assert.Contains(t, out, "GetOrders")
}

func TestAnalyseCommand_SyntaxError(t *testing.T) {
	dir := testutil.WriteProject(t, map[string]string{
		"broken.sql": "CREATE PROCEDURE dbo.Broken AS SELECT FROM WHERE",
	})
	_, _, err := execute(t, dir, "analyse", "broken.sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.sql")
}

func TestDepsCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, errOut, err := execute(t, dir, "deps", ".", "-o", "markdown")
	require.NoError(t, err, errOut)
	assert.Contains(t, out, "## Level 0")
	assert.Contains(t, out, "## Level 1")
	assert.Contains(t, out, "procs/get_orders.sql")
	assert.True(t, strings.Index(out, "procs/helper.sql") < strings.Index(out, "- procs/get_orders.sql"))
	testutil.AssertValidMarkdown(t, out)
}

func TestHistoryCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	_, _, err := execute(t, dir, "history")
	require.Error(t, err, "no history before the first run")

	_, errOut, err := execute(t, dir, "convert", ".", "--to", "postgres", "--out", "build")
	require.NoError(t, err, errOut)

	out, errOut, err := execute(t, dir, "history", "-o", "json")
	require.NoError(t, err, errOut)
	var runs []struct {
		ID     string `json:"id"`
		Target string `json:"target"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "postgres", runs[0].Target)
	assert.Equal(t, "completed", runs[0].Status)

	out, errOut, err = execute(t, dir, "history", runs[0].ID, "-o", "markdown")
	require.NoError(t, err, errOut)
	assert.Contains(t, out, "procs/get_orders.sql")
	assert.Contains(t, out, "converted")
}

func TestDialectsCommand(t *testing.T) {
	out, _, err := execute(t, t.TempDir(), "dialects", "-o", "json")
	require.NoError(t, err)
	var infos []struct {
		Name         string   `json:"name"`
		Capabilities []string `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &infos))

	caps := map[string][]string{}
	for _, i := range infos {
		caps[i.Name] = i.Capabilities
	}
	assert.Contains(t, caps["tsql"], "analyse")
	assert.Contains(t, caps["postgres"], "render")
	assert.Contains(t, caps["postgres"], "apply")
	assert.Contains(t, caps["mysql"], "apply")
}
