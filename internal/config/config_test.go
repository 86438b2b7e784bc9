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

	"github.com/leapstack-labs/leaptoken/pkg/lexsub"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("language", "l", "", "")
	fs.String("policy", "", "")
	fs.String("profiles-dir", "", "")
	fs.String("profile-db", "", "")
	fs.String("output-dir", "", "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.String("addr", "", "")
	fs.Bool("watch", false, "")
	fs.Duration("shutdown-timeout", 0, "")
	fs.Bool("stdout", false, "")
	return fs
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "Python", cfg.Language)
	assert.Equal(t, lexsub.Passthrough, cfg.Policy)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	assert.Empty(t, cfg.ConfigFile)
	assert.Empty(t, cfg.ProfileDB, "store is disabled by default")
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultProfilesDir), cfg.ProfilesDir)
	assert.False(t, cfg.HistoryEnabled())
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
language: Go
policy: drop
profiles_dir: tables
profile_db: state/profiles.db
history: true
server:
  addr: ":9000"
  watch: true
  shutdown_timeout: 2s
  rate_limit: 2.5
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	absDir, err := filepath.Abs(dir)
	require.NoError(t, err)

	assert.Equal(t, "Go", cfg.Language)
	assert.Equal(t, lexsub.Drop, cfg.Policy)
	assert.Equal(t, filepath.Join(absDir, "tables"), cfg.ProfilesDir)
	assert.Equal(t, filepath.Join(absDir, "state", "profiles.db"), cfg.ProfileDB)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.InDelta(t, 2.5, cfg.Server.RateLimit, 0.0001)
	assert.Equal(t, DefaultRateBurst, cfg.Server.RateBurst)
	assert.True(t, cfg.HistoryEnabled())
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadConfig_SearchUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "language: JavaScript\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "JavaScript", cfg.Language)
	assert.NotEmpty(t, cfg.ConfigFile)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "language: Go\npolicy: drop\noutput: text\n")

	t.Setenv("LEAPTOKEN_LANGUAGE", "C++")
	t.Setenv("LEAPTOKEN_SERVER__ADDR", ":7000")

	t.Run("env overrides file", func(t *testing.T) {
		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "C++", cfg.Language)
		assert.Equal(t, ":7000", cfg.Server.Addr)
		assert.Equal(t, lexsub.Drop, cfg.Policy)
	})

	t.Run("changed flags override env", func(t *testing.T) {
		fs := testFlags()
		require.NoError(t, fs.Parse([]string{"-l", "JavaScript", "--policy", "passthrough", "--addr", ":6000", "--stdout"}))

		cfg, err := LoadConfig(path, fs)
		require.NoError(t, err)
		assert.Equal(t, "JavaScript", cfg.Language)
		assert.Equal(t, lexsub.Passthrough, cfg.Policy)
		assert.Equal(t, ":6000", cfg.Server.Addr)
		assert.Equal(t, "text", cfg.OutputFormat, "unchanged flags keep file values")
	})

	t.Run("flag paths are relative to the working directory", func(t *testing.T) {
		fs := testFlags()
		require.NoError(t, fs.Parse([]string{"--output-dir", "out"}))

		cfg, err := LoadConfig(path, fs)
		require.NoError(t, err)
		cwd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, "out"), cfg.OutputDir)
	})
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	tests := []struct {
		name      string
		body      string
		errSubstr string
	}{
		{"bad policy", "policy: sometimes\n", "unable to decode config"},
		{"bad duration", "server:\n  shutdown_timeout: soon\n", "unable to decode config"},
		{"bad output", "output: html\n", "unknown output format"},
		{"negative rate", "server:\n  rate_limit: -1\n", "rate_limit must not be negative"},
		{"empty language", "language: \"\"\n", "language is required"},
		{"malformed yaml", "language: [\n", "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, dir, tt.body)
			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestResolvePathRelativeTo(t *testing.T) {
	assert.Equal(t, "", resolvePathRelativeTo("", "/base"))
	assert.Equal(t, ":memory:", resolvePathRelativeTo(":memory:", "/base"))
	assert.Equal(t, "/abs/x", resolvePathRelativeTo("/abs/x", "/base"))
	assert.Equal(t, filepath.Join("/base", "rel"), resolvePathRelativeTo("rel", "/base"))
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, GetLogger(ctx), "falls back to a discard logger")
	assert.Nil(t, FromContext(ctx))

	cfg := &Config{Language: "Go"}
	logger := NewLogger(os.Stderr, true)
	ctx = WithConfig(WithLogger(ctx, logger), cfg)
	assert.Same(t, logger, GetLogger(ctx))
	assert.Same(t, cfg, FromContext(ctx))
}
