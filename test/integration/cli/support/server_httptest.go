package support

import (
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/MeKo-Tech/cardpanda/internal/server"
)

// HTTPTestServerWrapper runs the real handlers in-process over a memory
// store, for scenarios that need no binary.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
	Store      *cards.MemoryStore
}

// createTestHTTPServer starts an in-process server. Disabled algorithms are
// left out of the encoder registry.
func (testCtx *TestContext) createTestHTTPServer(disabled ...barcode.Algorithm) error {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	renderer := barcode.NewRenderer(barcode.DefaultRegistry().Without(disabled...), barcode.WithLogger(logger))

	store := cards.NewMemoryStore()
	srv, err := server.NewServer(server.Config{MaxBodyKB: 64, TimeoutSec: 10, PageSize: "A4"}, store, renderer)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(srv.Handler()),
		TestServer: srv,
		Store:      store,
	}
	return nil
}

// stopTestHTTPServer stops the httptest server.
func (testCtx *TestContext) stopTestHTTPServer() error {
	if testCtx.HTTPTestServer != nil && testCtx.HTTPTestServer.Server != nil {
		testCtx.HTTPTestServer.Server.CloseClientConnections()
		testCtx.HTTPTestServer.Server.Close()
		testCtx.HTTPTestServer = nil
	}
	return nil
}
