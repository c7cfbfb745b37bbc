package support

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnvBinary names the environment variable holding the cardpanda binary
// path, set by TestMain.
const EnvBinary = "CARDPANDA_TEST_BIN"

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string // stdout and stderr
	LastStdout    string
	LastStderr    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	BinPath    string
	WorkingDir string // commands run here; relative output paths land here
	TempDir    string
	HomeDir    string
	EnvVars    []string

	// Cards created by steps, by name
	CardIDs map[string]string

	// Server management
	ServerProcess  *os.Process
	ServerPort     int
	ServerHost     string
	ServerDone     chan error
	HTTPTestServer *HTTPTestServerWrapper

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPBody       []byte
	LastHTTPHeaders    map[string]string

	// WebSocket capture state
	Capture *captureClient
}

// NewTestContext creates a test context with its own HOME, XDG directories
// and working directory, so scenarios never share a card store or config.
func NewTestContext() (*TestContext, error) {
	bin := os.Getenv(EnvBinary)
	if bin == "" {
		return nil, errors.New(EnvBinary + " is not set")
	}

	tempDir, err := os.MkdirTemp("", "cardpanda-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	ctx := &TestContext{
		BinPath:    bin,
		WorkingDir: filepath.Join(tempDir, "work"),
		TempDir:    tempDir,
		HomeDir:    filepath.Join(tempDir, "home"),
		CardIDs:    map[string]string{},
		ServerHost: "localhost",
	}
	for _, dir := range []string{ctx.WorkingDir, ctx.HomeDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	ctx.AddEnvVar("HOME", ctx.HomeDir)
	ctx.AddEnvVar("XDG_CONFIG_HOME", filepath.Join(ctx.HomeDir, ".config"))
	ctx.AddEnvVar("XDG_DATA_HOME", filepath.Join(ctx.HomeDir, ".local", "share"))

	return ctx, nil
}

// StorePath is where the CLI keeps cards for this scenario.
func (testCtx *TestContext) StorePath() string {
	return filepath.Join(testCtx.HomeDir, ".local", "share", "cardpanda", "cards.yaml")
}

// StopServer stops the in-process or spawned server, if any.
func (testCtx *TestContext) StopServer() error {
	if testCtx.HTTPTestServer != nil {
		return testCtx.stopTestHTTPServer()
	}
	return testCtx.StopServerProcess()
}

// Cleanup stops servers and removes the scenario's temp directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.Capture != nil {
		_ = testCtx.Capture.close()
		testCtx.Capture = nil
	}
	if err := testCtx.StopServer(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}
	return errors.Join(errs...)
}

// AddEnvVar adds an environment variable for command execution. Later
// values win.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// Path resolves a scenario path: relative paths are inside the working
// directory.
func (testCtx *TestContext) Path(name string) string {
	name = testCtx.substitute(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.WorkingDir, name)
}

// substitute expands {tmp}, {home}, {store} and {id:NAME} placeholders.
func (testCtx *TestContext) substitute(s string) string {
	s = strings.ReplaceAll(s, "{tmp}", testCtx.TempDir)
	s = strings.ReplaceAll(s, "{home}", testCtx.HomeDir)
	s = strings.ReplaceAll(s, "{store}", testCtx.StorePath())
	for name, id := range testCtx.CardIDs {
		s = strings.ReplaceAll(s, "{id:"+name+"}", id)
	}
	return s
}
