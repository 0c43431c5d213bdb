package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/loda-lang/loda-mcp/internal/platform/config"
)

var listenTCP = net.Listen

// mcpHTTPEnv holds env-parsed configuration for MCP HTTP transport.
type mcpHTTPEnv struct {
	AllowedHosts []string `env:"LODA_MCP_ALLOWED_HOSTS" envSeparator:","`
}

const (
	// defaultChannelBufferSize is the buffer size for request, response, and notification channels.
	// This allows some buffering of messages before blocking, improving throughput under load.
	defaultChannelBufferSize = 10

	// defaultShutdownTimeout is the maximum time to wait for graceful HTTP
	// server shutdown, giving in-flight requests a chance to complete.
	defaultShutdownTimeout = 35 * time.Second

	// sessionCleanupInterval is how often the cleanup goroutine runs to remove expired sessions.
	sessionCleanupInterval = 5 * time.Minute

	// sessionExpirationTime is how long a session can be inactive before being cleaned up.
	sessionExpirationTime = 1 * time.Hour

	// sseHeartbeatInterval is how often to update lastUsed for active SSE connections.
	sseHeartbeatInterval = 30 * time.Second

	// defaultSessionReadyTimeout bounds how long we wait for a session connection
	// to become ready before request handling continues.
	defaultSessionReadyTimeout = 100 * time.Millisecond
)

// HTTPTransport implements mcp.Transport for HTTP-based MCP communication.
// It provides an HTTP server that handles JSON-RPC messages over POST requests
// and supports Server-Sent Events (SSE) for streaming notifications.
// The implementation is intentionally explicit about session lifecycle and cleanup so
// long-lived local MCP clients cannot leak resources even when the upstream API
// stops responding.
type HTTPTransport struct {
	addr         string
	allowedHosts map[string]struct{}
	server       *mcp.Server
	sessions     map[string]*httpSession
	sessionsMu   sync.RWMutex
	httpServer   *http.Server
	serverCtx    context.Context
	serverCancel context.CancelFunc
	serverOnceMu sync.Mutex
	serverOnce   map[string]*sync.Once

	serverReadyTimeout time.Duration
	randomReader       func([]byte) (int, error)
	readyAfter         func(time.Duration) <-chan time.Time
}

// httpSession maintains state for a single MCP session in memory.
// It tracks liveness and the active connection so cleanup and SSE delivery can
// be scoped to one client session.
type httpSession struct {
	id        string
	conn      *httpConnection
	createdAt time.Time
	lastUsed  time.Time
}

// NewHTTPTransport creates a new HTTP transport that will serve MCP over HTTP.
// It defaults to localhost-only binding to keep the default footprint constrained
// to local development unless explicit host configuration broadens access.
func NewHTTPTransport(addr string) *HTTPTransport {
	// Default to localhost-only binding for security
	if addr == "" {
		addr = "localhost:8081"
	}
	var raw mcpHTTPEnv
	_ = config.ParseEnv(&raw)
	ctx, cancel := context.WithCancel(context.Background())
	return &HTTPTransport{
		addr:               addr,
		allowedHosts:       parseAllowedHosts(raw.AllowedHosts),
		sessions:           make(map[string]*httpSession),
		serverCtx:          ctx,
		serverCancel:       cancel,
		serverOnce:         make(map[string]*sync.Once),
		serverReadyTimeout: defaultSessionReadyTimeout,
		randomReader:       rand.Read,
		readyAfter:         time.After,
	}
}

// NewHTTPTransportWithServer creates a new HTTP transport with a reference to the MCP server.
//
// Callers use this when they need to inject a preconfigured MCP runtime without
// re-running registration, which keeps tests and process lifecycle simpler.
func NewHTTPTransportWithServer(addr string, server *mcp.Server) *HTTPTransport {
	transport := NewHTTPTransport(addr)
	transport.server = server
	return transport
}

// Start binds the listener and begins handling requests, blocking until the
// context is cancelled or the server fails. A bind failure (for example the
// port already being in use) is reported before any request handling starts.
// The same server instance multiplexes POST requests, SSE streams, and session
// termination while sharing host validation and session lifecycle enforcement.
func (t *HTTPTransport) Start(ctx context.Context) error {
	// Update server context to use the provided context
	t.serverCtx, t.serverCancel = context.WithCancel(ctx)

	listener, err := listenTCP("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", t.addr, err)
	}

	// Start session cleanup goroutine
	go t.cleanupSessions(ctx)

	mux := http.NewServeMux()

	// /mcp handles POST (messages), GET (SSE), and DELETE (session termination)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			t.handleSSE(w, r)
		case http.MethodPost:
			t.handleMessages(w, r)
		case http.MethodDelete:
			t.handleSessionDelete(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// GET /mcp/health - Health check endpoint
	mux.HandleFunc("/mcp/health", t.handleHealth)

	t.httpServer = &http.Server{
		Addr:    t.addr,
		Handler: mux,
	}

	log.Printf("Starting MCP HTTP server on %s", t.addr)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := t.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		log.Printf("Shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		// Cancel server context to stop all server.Connect goroutines
		if t.serverCancel != nil {
			t.serverCancel()
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}
