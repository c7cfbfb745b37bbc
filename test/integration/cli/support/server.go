package support

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// StartServer starts "cardpanda serve" on a free port. Extra arguments are
// appended after the port flag.
func (testCtx *TestContext) StartServer(extraArgs string) error {
	port, err := freePort()
	if err != nil {
		return err
	}
	testCtx.ServerPort = port
	testCtx.ServerHost = "127.0.0.1"

	args := []string{"serve", "--host", testCtx.ServerHost, "--port", strconv.Itoa(port)}
	args = append(args, strings.Fields(testCtx.substitute(extraArgs))...)

	cmd := exec.Command(testCtx.BinPath, args...)
	cmd.Dir = testCtx.WorkingDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	var logs bytes.Buffer
	cmd.Stdout = &logs
	cmd.Stderr = &logs

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	testCtx.ServerProcess = cmd.Process

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	testCtx.ServerDone = done

	if err := testCtx.waitForServerReady(); err != nil {
		if stopErr := testCtx.StopServerProcess(); stopErr != nil {
			return fmt.Errorf("server failed to start and also failed to stop: %w; stop error: %w", err, stopErr)
		}
		return fmt.Errorf("server failed to start: %w\nLogs: %s", err, logs.String())
	}
	return nil
}

// StopServerProcess sends SIGTERM and waits for a graceful exit.
func (testCtx *TestContext) StopServerProcess() error {
	if testCtx.ServerProcess == nil {
		return nil
	}
	defer func() {
		testCtx.ServerProcess = nil
		testCtx.ServerDone = nil
	}()

	if err := testCtx.ServerProcess.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		if killErr := testCtx.ServerProcess.Kill(); killErr != nil {
			return fmt.Errorf("failed to kill server process: %w", killErr)
		}
	}

	select {
	case err := <-testCtx.ServerDone:
		return err
	case <-time.After(15 * time.Second):
		_ = testCtx.ServerProcess.Kill()
		return errors.New("server did not exit after SIGTERM")
	}
}

// freePort asks the kernel for an unused TCP port.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find a free port: %w", err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// waitForServerReady waits for the server to respond to health checks.
func (testCtx *TestContext) waitForServerReady() error {
	timeout := time.Now().Add(10 * time.Second)

	for time.Now().Before(timeout) {
		select {
		case err := <-testCtx.ServerDone:
			return fmt.Errorf("server exited early: %w", err)
		default:
		}
		if testCtx.isServerHealthy() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return errors.New("server did not become ready within timeout")
}

// isServerHealthy checks if the server responds to the health endpoint.
func (testCtx *TestContext) isServerHealthy() bool {
	client := &http.Client{Timeout: time.Second}

	resp, err := client.Get(testCtx.GetServerURL() + "/health")
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// GetServerURL returns the base URL for the running server.
func (testCtx *TestContext) GetServerURL() string {
	if testCtx.HTTPTestServer != nil && testCtx.HTTPTestServer.Server != nil {
		return testCtx.HTTPTestServer.Server.URL
	}
	return fmt.Sprintf("http://%s:%d", testCtx.ServerHost, testCtx.ServerPort)
}
