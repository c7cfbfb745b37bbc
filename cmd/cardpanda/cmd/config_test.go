package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigShow(t *testing.T) {
	dir := isolate(t)
	t.Setenv("CARDPANDA_SERVER_PORT", "9191")

	out, _, err := execute(t, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "Configuration file used: (none)")
	assert.Contains(t, out, "Environment prefix: CARDPANDA")
	assert.Contains(t, out, "port: 9191")
	assert.Contains(t, out, "page_size: A4")
	assert.Contains(t, out, filepath.Join(dir, "data", "cardpanda", "cards.yaml"))
}

func TestConfigInit(t *testing.T) {
	dir := isolate(t)
	// Not named cardpanda.yaml: a file on the search path would be picked up
	// by the next execution and cached by viper.
	path := filepath.Join(dir, "generated.yaml")

	out, _, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "info", doc["log_level"])
	assert.Contains(t, doc, "server")

	_, _, err = execute(t, "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = execute(t, "config", "init", path, "--force")
	require.NoError(t, err)
}

func TestServeCommandRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"port zero", []string{"serve", "--port", "0"}, "invalid port number"},
		{"port too large", []string{"serve", "--port", "70000"}, "invalid port number"},
		{"timeout", []string{"serve", "--timeout", "0"}, "invalid timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestServeCommandFlags(t *testing.T) {
	for _, name := range []string{"host", "port", "cors-origin", "max-body-kb", "timeout", "shutdown-timeout", "rate-limit"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), "missing flag --%s", name)
	}
}
