package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register dialects and adapters via init()
	_ "github.com/leapstack-labs/sqlconvert/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/sqlconvert/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqlconvert/pkg/dialects/mysql"
	_ "github.com/leapstack-labs/sqlconvert/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/sqlconvert/pkg/dialects/tsql"
)

// inDir runs the test with dir as working directory.
func inDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "sqlconvert.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("from", "", "")
	flags.String("to", "", "")
	flags.String("out", "", "")
	flags.String("state", "", "")
	flags.String("env", "", "")
	flags.String("dsn", "", "")
	flags.String("keyword-case", "", "")
	flags.Int("workers", 0, "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	inDir(t, dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceDialect, cfg.SourceDialect)
	assert.Empty(t, cfg.TargetDialect)
	assert.Equal(t, DefaultKeywordCase, cfg.KeywordCase)
	assert.Equal(t, DefaultDebounce, cfg.Debounce)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Nil(t, cfg.Target)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())

	wantRoot, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wantRoot, DefaultStateFile), cfg.StatePath)
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `source_dialect: tsql
target_dialect: postgres
output_dir: out
workers: 4
keyword_case: upper
debounce: 1s
exclude: ["*_backup.sql", "legacy/*"]
target:
  type: Postgres
  host: db.local
  user: app
  password: ${SQLCONVERT_TEST_PASSWORD}
  database: sales
`)
	t.Setenv("SQLCONVERT_TEST_PASSWORD", "s3cret")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	root, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, "postgres", cfg.TargetDialect)
	assert.Equal(t, filepath.Join(root, "out"), cfg.OutputDir)
	assert.Equal(t, filepath.Join(root, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "upper", cfg.KeywordCase)
	assert.Equal(t, time.Second, cfg.Debounce)
	assert.Equal(t, []string{"*_backup.sql", "legacy/*"}, cfg.Exclude)

	require.NotNil(t, cfg.Target)
	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, 5432, cfg.Target.Port, "port defaults by target type")
	assert.Equal(t, "s3cret", cfg.Target.Password)

	ac := cfg.Target.AdapterConfig()
	assert.Equal(t, "app", ac.Username)
	assert.Equal(t, "sales", ac.Database)
}

func TestLoadConfig_FindsFileUpward(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	writeConfig(t, dir, "target_dialect: mysql\n")
	sub := filepath.Join(dir, "procs", "sales")
	require.NoError(t, os.MkdirAll(sub, 0750))
	inDir(t, sub)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.TargetDialect)
	assert.NotEmpty(t, GetConfigFileUsed())
}

func TestLoadConfig_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		flagVal string
		want    string
	}{
		{name: "file only", want: "mysql"},
		{name: "env overrides file", env: "postgres", want: "postgres"},
		{name: "flag overrides env", env: "postgres", flagVal: "tsql", want: "tsql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			dir := t.TempDir()
			cfgPath := writeConfig(t, dir, "target_dialect: mysql\n")
			if tt.env != "" {
				t.Setenv("SQLCONVERT_TARGET_DIALECT", tt.env)
			}
			flags := testFlags()
			if tt.flagVal != "" {
				require.NoError(t, flags.Set("to", tt.flagVal))
			}

			cfg, err := LoadConfig(cfgPath, flags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.TargetDialect)
		})
	}
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "workers: 2\n")
	t.Setenv("SQLCONVERT_WORKERS", "8")

	cfg, err := LoadConfig(cfgPath, testFlags())
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers, "unset flags must not shadow env vars")
}

func TestLoadConfig_NestedEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "target:\n  type: mysql\n")
	t.Setenv("SQLCONVERT_TARGET__HOST", "mysql.internal")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "mysql.internal", cfg.Target.Host)
	assert.Equal(t, 3306, cfg.Target.Port)
}

func TestLoadConfig_FlagPaths(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "output_dir: from_file\n")
	cwd := t.TempDir()
	inDir(t, cwd)

	flags := testFlags()
	require.NoError(t, flags.Set("out", "converted"))
	require.NoError(t, flags.Set("dsn", "postgres://localhost/db"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "converted"), cfg.OutputDir, "flag paths are relative to the working directory")
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "postgres://localhost/db", cfg.Target.DSN)
}

func TestLoadConfig_Environment(t *testing.T) {
	cfgContent := `target_dialect: mysql
target:
  type: mysql
  host: localhost
  database: dev
environments:
  prod:
    target_dialect: postgres
    output_dir: build/prod
    target:
      type: postgres
      host: prod.db
      options:
        sslmode: require
`
	t.Run("selected by flag", func(t *testing.T) {
		ResetConfig()
		dir := t.TempDir()
		cfgPath := writeConfig(t, dir, cfgContent)
		flags := testFlags()
		require.NoError(t, flags.Set("env", "prod"))

		cfg, err := LoadConfig(cfgPath, flags)
		require.NoError(t, err)

		root, _ := filepath.Abs(dir)
		assert.Equal(t, "postgres", cfg.TargetDialect)
		assert.Equal(t, filepath.Join(root, "build", "prod"), cfg.OutputDir)
		assert.Equal(t, "postgres", cfg.Target.Type)
		assert.Equal(t, "prod.db", cfg.Target.Host)
		assert.Equal(t, "dev", cfg.Target.Database, "unset fields keep the base value")
		assert.Equal(t, "require", cfg.Target.Options["sslmode"])
	})

	t.Run("flag beats environment", func(t *testing.T) {
		ResetConfig()
		dir := t.TempDir()
		cfgPath := writeConfig(t, dir, cfgContent)
		flags := testFlags()
		require.NoError(t, flags.Set("env", "prod"))
		require.NoError(t, flags.Set("to", "tsql"))

		cfg, err := LoadConfig(cfgPath, flags)
		require.NoError(t, err)
		assert.Equal(t, "tsql", cfg.TargetDialect)
	})

	t.Run("unknown environment", func(t *testing.T) {
		ResetConfig()
		dir := t.TempDir()
		cfgPath := writeConfig(t, dir, cfgContent)
		flags := testFlags()
		require.NoError(t, flags.Set("env", "staging"))

		_, err := LoadConfig(cfgPath, flags)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `environment "staging"`)
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errSub  string
	}{
		{"unknown source", "source_dialect: cobol\n", "unknown dialect"},
		{"unknown target", "target_dialect: oracle\n", "unknown dialect"},
		{"bad keyword case", "keyword_case: title\n", "keyword_case"},
		{"bad output", "output: xml\n", "output"},
		{"negative workers", "workers: -1\n", "workers"},
		{"bad yaml", "target: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			dir := t.TempDir()
			cfgPath := writeConfig(t, dir, tt.content)

			_, err := LoadConfig(cfgPath, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestTargetConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		target  *TargetConfig
		wantErr string
	}{
		{"nil", nil, "target type is required"},
		{"empty type", &TargetConfig{}, "target type is required"},
		{"postgres", &TargetConfig{Type: "postgres"}, ""},
		{"mysql uppercase", &TargetConfig{Type: "MySQL"}, ""},
		{"unknown", &TargetConfig{Type: "oracle"}, "no database adapter for"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTargetConfig_ApplyDefaults(t *testing.T) {
	tests := []struct {
		target TargetConfig
		want   int
	}{
		{TargetConfig{Type: "postgres"}, 5432},
		{TargetConfig{Type: "mysql"}, 3306},
		{TargetConfig{Type: "mysql", Port: 3307}, 3307},
		{TargetConfig{Type: "postgres", DSN: "postgres://x"}, 0},
		{TargetConfig{Type: "other"}, 0},
	}
	for _, tt := range tests {
		tt.target.ApplyDefaults()
		assert.Equal(t, tt.want, tt.target.Port, tt.target.Type)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single variable", "${TEST_VAR_ONE}", "value_one"},
		{"multiple variables", "${TEST_VAR_ONE}/${TEST_VAR_TWO}", "value_one/value_two"},
		{"unset variable stays as-is", "${UNSET_VARIABLE}", "${UNSET_VARIABLE}"},
		{"no variables", "plain string", "plain string"},
		{"empty string", "", ""},
		{"mixed set and unset", "${TEST_VAR_ONE}:${UNSET_VAR}", "value_one:${UNSET_VAR}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestMergeTargetConfig(t *testing.T) {
	base := &TargetConfig{Type: "mysql", Host: "a", Port: 3306, Options: map[string]string{"tls": "false", "x": "1"}}

	assert.Same(t, base, MergeTargetConfig(base, nil))
	assert.Same(t, base, MergeTargetConfig(nil, base))

	merged := MergeTargetConfig(base, &TargetConfig{Host: "b", Options: map[string]string{"tls": "true"}})
	assert.Equal(t, "mysql", merged.Type)
	assert.Equal(t, "b", merged.Host)
	assert.Equal(t, 3306, merged.Port)
	assert.Equal(t, map[string]string{"tls": "true", "x": "1"}, merged.Options)
	assert.Equal(t, "false", base.Options["tls"], "base is not modified")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	l := GetLogger(context.Background())
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, GetLogger(ctx))
	assert.Same(t, l, ctx.Value(LoggerKey()))
}
