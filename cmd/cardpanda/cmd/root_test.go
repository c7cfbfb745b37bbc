package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/cardpanda/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the XDG directories at a temp dir so that neither
// a user config file nor a user card store leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

// resetFlags returns every flag of c and its children to its default, since
// the command tree is shared between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			// Set appends to slices once they have been set.
			def := strings.Trim(f.DefValue, "[]")
			vals := []string{}
			if def != "" {
				vals = strings.Split(def, ",")
			}
			_ = sv.Replace(vals)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "cardpanda", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommandHelp(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "loyalty cards")
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "Usage:")
}

func TestRootCommandVersion(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "--version")
	require.NoError(t, err)

	assert.Contains(t, out, "cardpanda version")
	assert.Contains(t, out, "Commit:")
}

func TestRootCommandSubcommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}

	for _, expected := range []string{"batch", "card", "config", "export", "normalize", "render", "serve"} {
		assert.Contains(t, names, expected, "Expected subcommand '%s' not found", expected)
	}
}

func TestRootCommandInvalidFlag(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "--invalid-flag")
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		verbose bool
		want    string
	}{
		{"debug", "debug", false, "DEBUG"},
		{"warn", "warn", false, "WARN"},
		{"error", "error", false, "ERROR"},
		{"unknown falls back to info", "loud", false, "INFO"},
		{"verbose wins", "error", true, "DEBUG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.LogLevel = tt.level
			cfg.Verbose = tt.verbose
			assert.Equal(t, tt.want, logLevel(&cfg).String())
		})
	}
}

func TestStoreFlagOverridesDefaultPath(t *testing.T) {
	dir := isolate(t)
	store := filepath.Join(dir, "elsewhere", "cards.yaml")

	_, _, err := execute(t, "card", "add", "--store", store, "--payload", "123", "--type", "qr")
	require.NoError(t, err)

	assert.FileExists(t, store)
	assert.NoFileExists(t, filepath.Join(dir, "data", "cardpanda", "cards.yaml"))
}
