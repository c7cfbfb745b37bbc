package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/testutil"
	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
)

const httpTimeout = 10 * time.Second

// theServerIsRunning starts the cardpanda binary in serve mode.
func (testCtx *TestContext) theServerIsRunning() error {
	return testCtx.StartServer("")
}

// theServerIsRunningWith starts the binary with extra serve flags.
func (testCtx *TestContext) theServerIsRunningWith(args string) error {
	return testCtx.StartServer(args)
}

// anInProcessServer starts the handlers in-process over a memory store.
func (testCtx *TestContext) anInProcessServer() error {
	return testCtx.createTestHTTPServer()
}

// anInProcessServerWithout starts an in-process server whose registry lacks
// the named encoders.
func (testCtx *TestContext) anInProcessServerWithout(list string) error {
	var disabled []barcode.Algorithm
	for _, name := range strings.Split(list, ",") {
		alg, err := barcode.ParseAlgorithm(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		disabled = append(disabled, alg)
	}
	return testCtx.createTestHTTPServer(disabled...)
}

// iStopTheServer sends SIGTERM to the spawned server and waits for it.
func (testCtx *TestContext) iStopTheServer() error {
	return testCtx.StopServer()
}

// theServerShouldHaveStopped checks the server no longer answers.
func (testCtx *TestContext) theServerShouldHaveStopped() error {
	if testCtx.ServerProcess != nil {
		return errors.New("server process is still tracked")
	}
	if testCtx.isServerHealthy() {
		return errors.New("server still answers health checks")
	}
	return nil
}

// doRequest performs a request and stores the response.
func (testCtx *TestContext) doRequest(method, path string, body io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, testCtx.GetServerURL()+testCtx.substitute(path), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPBody = data
	testCtx.LastHTTPResponse = string(data)
	testCtx.LastHTTPHeaders = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(k)] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) iSendAGETRequestTo(path string) error {
	return testCtx.doRequest(http.MethodGet, path, nil, "")
}

func (testCtx *TestContext) iSendADELETERequestTo(path string) error {
	return testCtx.doRequest(http.MethodDelete, path, nil, "")
}

func (testCtx *TestContext) iSendAPOSTRequestWithJSON(path string, doc *godog.DocString) error {
	body := strings.NewReader(testCtx.substitute(doc.Content))
	return testCtx.doRequest(http.MethodPost, path, body, "application/json")
}

func (testCtx *TestContext) iSendAPUTRequestWithJSON(path string, doc *godog.DocString) error {
	body := strings.NewReader(testCtx.substitute(doc.Content))
	return testCtx.doRequest(http.MethodPut, path, body, "application/json")
}

// iCreateACardViaHTTP posts a card and remembers its ID under name.
func (testCtx *TestContext) iCreateACardViaHTTP(name, payload, typ string) error {
	doc, err := json.Marshal(map[string]string{"name": name, "payload": payload, "type": typ})
	if err != nil {
		return err
	}
	if err := testCtx.doRequest(http.MethodPost, "/cards", bytes.NewReader(doc), "application/json"); err != nil {
		return err
	}
	if testCtx.LastHTTPStatusCode != http.StatusCreated {
		return fmt.Errorf("card creation returned %d: %s", testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return testCtx.rememberCardID(name, testCtx.LastHTTPBody)
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", code, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	got, ok := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]
	if !ok {
		return fmt.Errorf("response has no %s header", name)
	}
	if got != value {
		return fmt.Errorf("header %s is %q, want %q", name, got, value)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, testCtx.substitute(text)) {
		return fmt.Errorf("response does not contain %q\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseJSONFieldShouldBe(path, value string) error {
	var data any
	if err := json.Unmarshal(testCtx.LastHTTPBody, &data); err != nil {
		return fmt.Errorf("response is not valid JSON: %w\nBody: %s", err, testCtx.LastHTTPResponse)
	}
	return checkJSONField(data, path, testCtx.substitute(value))
}

// theResponseImageShouldScan decodes the PNG body and reads it back.
func (testCtx *TestContext) theResponseImageShouldScan(symbology, text string) error {
	path := filepath.Join(testCtx.TempDir, "response.png")
	if err := os.WriteFile(path, testCtx.LastHTTPBody, 0o600); err != nil {
		return err
	}
	return scanFileAs(path, symbology, text)
}

// captureClient is one WebSocket connection to /capture.
type captureClient struct {
	conn *websocket.Conn
	last map[string]any
}

func (c *captureClient) close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *captureClient) send(msg map[string]string) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(httpTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *captureClient) receive() error {
	_ = c.conn.SetReadDeadline(time.Now().Add(httpTimeout))
	var reply map[string]any
	if err := c.conn.ReadJSON(&reply); err != nil {
		return fmt.Errorf("failed to read capture reply: %w", err)
	}
	c.last = reply
	return nil
}

// iOpenACaptureSession dials /capture for the given source.
func (testCtx *TestContext) iOpenACaptureSession(source string) error {
	url := "ws" + strings.TrimPrefix(testCtx.GetServerURL(), "http") + "/capture?source=" + source
	dialer := websocket.Dialer{HandshakeTimeout: httpTimeout}

	conn, resp, err := dialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to open capture session: %w", err)
	}
	testCtx.Capture = &captureClient{conn: conn}
	return testCtx.Capture.receive()
}

func (testCtx *TestContext) iReportADetection(payload, rawType string) error {
	if testCtx.Capture == nil {
		return errors.New("no capture session open")
	}
	if err := testCtx.Capture.send(map[string]string{"type": "detection", "payload": payload, "raw_type": rawType}); err != nil {
		return err
	}
	return testCtx.Capture.receive()
}

func (testCtx *TestContext) iSaveTheCaptureAs(name string) error {
	if testCtx.Capture == nil {
		return errors.New("no capture session open")
	}
	if err := testCtx.Capture.send(map[string]string{"type": "save", "name": name}); err != nil {
		return err
	}
	if err := testCtx.Capture.receive(); err != nil {
		return err
	}
	if card, ok := testCtx.Capture.last["card"].(map[string]any); ok {
		if id, ok := card["id"].(string); ok {
			testCtx.CardIDs[name] = id
		}
	}
	return nil
}

func (testCtx *TestContext) iStopTheCaptureSession() error {
	if testCtx.Capture == nil {
		return errors.New("no capture session open")
	}
	if err := testCtx.Capture.send(map[string]string{"type": "stop"}); err != nil {
		return err
	}
	return testCtx.Capture.receive()
}

func (testCtx *TestContext) theCaptureReplyFieldShouldBe(path, value string) error {
	if testCtx.Capture == nil || testCtx.Capture.last == nil {
		return errors.New("no capture reply received")
	}
	return checkJSONField(testCtx.Capture.last, path, value)
}

// RegisterServerSteps registers HTTP and WebSocket steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^the server is running with "([^"]*)"$`, testCtx.theServerIsRunningWith)
	sc.Step(`^an in-process server$`, testCtx.anInProcessServer)
	sc.Step(`^an in-process server without "([^"]*)"$`, testCtx.anInProcessServerWithout)
	sc.Step(`^I stop the server$`, testCtx.iStopTheServer)
	sc.Step(`^the server should have stopped$`, testCtx.theServerShouldHaveStopped)

	sc.Step(`^I send a GET request to "([^"]*)"$`, testCtx.iSendAGETRequestTo)
	sc.Step(`^I send a DELETE request to "([^"]*)"$`, testCtx.iSendADELETERequestTo)
	sc.Step(`^I send a POST request to "([^"]*)" with JSON:$`, testCtx.iSendAPOSTRequestWithJSON)
	sc.Step(`^I send a PUT request to "([^"]*)" with JSON:$`, testCtx.iSendAPUTRequestWithJSON)
	sc.Step(`^I create a card "([^"]*)" with payload "([^"]*)" and type "([^"]*)" via HTTP$`, testCtx.iCreateACardViaHTTP)

	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the response image should scan as (QR|Code 128) "([^"]*)"$`, testCtx.theResponseImageShouldScan)

	sc.Step(`^I open a capture session for "([^"]*)"$`, testCtx.iOpenACaptureSession)
	sc.Step(`^I report a detection of "([^"]*)" with raw type "([^"]*)"$`, testCtx.iReportADetection)
	sc.Step(`^I save the capture as "([^"]*)"$`, testCtx.iSaveTheCaptureAs)
	sc.Step(`^I stop the capture session$`, testCtx.iStopTheCaptureSession)
	sc.Step(`^the capture reply field "([^"]*)" should be "([^"]*)"$`, testCtx.theCaptureReplyFieldShouldBe)
}

// scanFileAs reads a PNG and compares its decoded text.
func scanFileAs(path, symbology, want string) error {
	format, err := zxingFormat(symbology)
	if err != nil {
		return err
	}
	got, err := testutil.ScanFile(path, format)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", filepath.Base(path), err)
	}
	if got != want {
		return fmt.Errorf("%s scanned as %q, want %q", filepath.Base(path), got, want)
	}
	return nil
}
