package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leapdml/internal/source/lakehouse"
	_ "github.com/leapstack-labs/leapdml/internal/source/memory"
	"github.com/leapstack-labs/leapdml/pkg/core"
)

const sampleConfig = `
state_path: state/meta.db
user: alice
default_source: lake
options:
  bulk_load_enabled: true
access:
  enforce: true
  grants:
    - principal: alice
      path: lake
      privileges: [insert]
sources:
  - name: lake
    type: lakehouse
    default_branch: main
  - name: rdbms
    type: memory
    password: ${LEAPDML_TEST_PASSWORD}
    partitions:
      customers: [region]
    tables:
      - name: customers
        columns:
          - name: id
            type: bigint
          - name: region
            type: varchar
versions:
  lake: branch:dev
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "")
	flags.String("user", "", "")
	flags.String("output", "", "")
	flags.String("default-source", "", "")
	flags.Bool("verbose", false, "")
	flags.Bool("bulk-load", false, "")
	flags.Bool("display-only", false, "")
	return flags
}

func TestLoad_FromFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	t.Setenv("LEAPDML_TEST_PASSWORD", "s3cret")
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
	assert.Equal(t, filepath.Dir(path), cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "state", "meta.db"), cfg.StatePath)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.True(t, cfg.Options.BulkLoadEnabled)
	assert.False(t, cfg.Options.DisplayResultOnly)

	require.Len(t, cfg.Sources, 2)
	rdbms, ok := cfg.Source("rdbms")
	require.True(t, ok)
	assert.Equal(t, "s3cret", rdbms.Password)
	assert.Equal(t, []string{"region"}, rdbms.Partitions["customers"])
	require.Len(t, rdbms.Tables, 1)
	assert.Len(t, rdbms.Tables[0].Columns, 2)

	assert.True(t, cfg.Access.Enforce)
	require.Len(t, cfg.Access.Grants, 1)
	assert.Equal(t, []string{"insert"}, cfg.Access.Grants[0].Privileges)

	assert.Equal(t, core.Branch("dev"), cfg.Versions["lake"])
}

func TestLoad_Precedence(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, sampleConfig)

	t.Setenv("LEAPDML_USER", "bob")
	t.Setenv("LEAPDML_OUTPUT", "json")
	t.Setenv("LEAPDML_OPTIONS__DISPLAY_RESULT_ONLY", "true")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--user", "carol", "--state", "other.db"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "carol", cfg.User, "flag beats env")
	assert.Equal(t, "json", cfg.OutputFormat, "env beats file default")
	assert.True(t, cfg.Options.DisplayResultOnly)
	assert.True(t, cfg.Options.BulkLoadEnabled, "file value kept")

	wantState, err := filepath.Abs("other.db")
	require.NoError(t, err)
	assert.Equal(t, wantState, cfg.StatePath, "flag paths are relative to the working directory")
}

func TestLoad_FlagMappings(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "sources:\n  - name: mem\n    type: memory\n")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--bulk-load", "--display-only", "--default-source", "mem"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.True(t, cfg.Options.BulkLoadEnabled)
	assert.True(t, cfg.Options.DisplayResultOnly)
	assert.Equal(t, "mem", cfg.DefaultSource)
}

func TestLoad_Defaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-dir-marker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.NotEmpty(t, cfg.User)
	assert.Empty(t, cfg.Sources)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{
			name:      "unknown source type",
			content:   "sources:\n  - name: x\n    type: oracle\n",
			errSubstr: "unknown source type",
		},
		{
			name:      "missing source name",
			content:   "sources:\n  - type: memory\n",
			errSubstr: "name is required",
		},
		{
			name:      "duplicate source",
			content:   "sources:\n  - name: a\n    type: memory\n  - name: A\n    type: memory\n",
			errSubstr: "more than once",
		},
		{
			name:      "unknown default source",
			content:   "default_source: ghost\n",
			errSubstr: "default_source ghost",
		},
		{
			name:      "version for unknown source",
			content:   "versions:\n  ghost: main\n",
			errSubstr: "ghost is not a configured source",
		},
		{
			name:      "bad version reference",
			content:   "sources:\n  - name: lake\n    type: lakehouse\nversions:\n  lake: \"snapshot:1\"\n",
			errSubstr: "unknown type",
		},
		{
			name:      "bad output",
			content:   "output: markdown\n",
			errSubstr: "invalid output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(ResetConfig)
			_, err := Load(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Session(t *testing.T) {
	cfg := &Config{
		User:          "alice",
		DefaultSource: "lake",
		Options:       core.Options{BulkLoadEnabled: true},
		Versions:      map[string]core.VersionContext{"lake": core.Tag("v1")},
	}

	sess := cfg.Session()
	assert.Equal(t, "alice", sess.User)
	assert.Equal(t, "lake", sess.DefaultSource)
	assert.True(t, sess.Options.BulkLoadEnabled)
	assert.Equal(t, core.Tag("v1"), sess.VersionFor("lake"))
	assert.Equal(t, core.NotSpecified(), sess.VersionFor("rdbms"))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEAPDML_TEST_HOST", "db.internal")
	assert.Equal(t, "db.internal:5432", expandEnvVars("${LEAPDML_TEST_HOST}:5432"))
	assert.Equal(t, "${LEAPDML_TEST_UNSET}", expandEnvVars("${LEAPDML_TEST_UNSET}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.Equal(t, loggerKey{}, LoggerKey())
}
