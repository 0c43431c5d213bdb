package service

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// handleMessages handles POST /mcp for JSON-RPC requests.
// It maps transport-agnostic JSON-RPC payloads onto session-local MCP
// connection state so one client stays contiguous across multiple HTTP
// round-trips. It is the write path for all request/notification traffic
// and performs per-session validation before routing into the MCP runtime.
func (t *HTTPTransport) handleMessages(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Read request body
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Failed to read request body: %v", err)
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Parse JSON-RPC message using the SDK's decoder
	msg, err := jsonrpc.DecodeMessage(body)
	if err != nil {
		log.Printf("Invalid JSON-RPC message: %v", err)
		http.Error(w, "Invalid JSON-RPC message", http.StatusBadRequest)
		return
	}

	// Determine if this is an initialization request.
	// The MCP HTTP transport requires initialize before other methods.
	isInitialize := false
	if req, ok := msg.(*jsonrpc.Request); ok {
		isInitialize = req.Method == "initialize"
	}

	// Resolve the session from the Mcp-Session-Id header. Only an initialize
	// request may arrive without a usable session; anything else is rejected
	// before it can touch connection state.
	var session *httpSession
	var exists bool

	sessionID := strings.TrimSpace(r.Header.Get("Mcp-Session-Id"))
	if sessionID != "" {
		session, exists = t.lookupSession(sessionID)
		if !exists || session == nil {
			if !isInitialize {
				writeSessionError(w, "Invalid session ID")
				return
			}
			session = nil
			exists = false
			sessionID = ""
		}
	}

	if !exists || session == nil {
		if !isInitialize {
			writeSessionError(w, "Invalid or missing session ID")
			return
		}
		// Create new session for this request
		conn, err := t.Connect(r.Context())
		if err != nil {
			log.Printf("Failed to create session: %v", err)
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}
		sessionID = conn.SessionID()
		session, _ = t.lookupSession(sessionID)

		// Return the session identity for subsequent requests
		w.Header().Set("Mcp-Session-Id", sessionID)
	}

	if session == nil {
		http.Error(w, "Failed to retrieve session after creation", http.StatusInternalServerError)
		return
	}

	t.touchSession(sessionID)

	// Ensure the MCP server session is running for this connection
	t.ensureServerRunning(session)

	// Check if message is a request (has ID) or notification (no ID)
	var isRequest bool
	switch v := msg.(type) {
	case *jsonrpc.Request:
		// In JSON-RPC 2.0, notifications have null ID, requests have non-null ID.
		// The zero value of jsonrpc.ID represents a null/empty ID (notification).
		isRequest = v.ID != jsonrpc.ID{}
	case *jsonrpc.Response:
		// Response shouldn't come in as a request
		http.Error(w, "Invalid message type: response", http.StatusBadRequest)
		return
	default:
		// For other types, assume it's a request and wait for response
		isRequest = true
	}

	if isRequest {
		// Request - wait for response matching this request ID
		req, ok := msg.(*jsonrpc.Request)
		if !ok {
			http.Error(w, "Invalid request type", http.StatusBadRequest)
			return
		}

		// Create a channel to receive the response for this specific request
		respChan := make(chan jsonrpc.Message, 1)
		session.conn.pendingMu.Lock()
		session.conn.pendingReqs[req.ID] = respChan
		session.conn.pendingMu.Unlock()

		clearPending := func() {
			session.conn.pendingMu.Lock()
			delete(session.conn.pendingReqs, req.ID)
			session.conn.pendingMu.Unlock()
		}

		// Send message to connection's request channel (read by the MCP server)
		select {
		case session.conn.reqChan <- msg:
		case <-session.conn.closed:
			clearPending()
			http.Error(w, "Session closed", http.StatusGone)
			return
		case <-r.Context().Done():
			clearPending()
			http.Error(w, "Request cancelled", http.StatusRequestTimeout)
			return
		}

		// Wait for the response. There is no server-side deadline here; a
		// slow remote evaluation finishes in its own time and the client's
		// disconnect or the session ending are the only ways out.
		select {
		case resp := <-respChan:
			clearPending()

			// Encode JSON-RPC response using SDK's encoder
			data, err := jsonrpc.EncodeMessage(resp)
			if err != nil {
				log.Printf("Failed to encode response: %v", err)
				http.Error(w, "Failed to encode response", http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			if _, err := w.Write(data); err != nil {
				log.Printf("Failed to write response: %v", err)
			}
		case <-session.conn.closed:
			clearPending()
			http.Error(w, "Session closed", http.StatusGone)
			return
		case <-r.Context().Done():
			clearPending()
			http.Error(w, "Request cancelled", http.StatusRequestTimeout)
			return
		}
	} else {
		// Send message to connection's request channel (read by the MCP server)
		select {
		case session.conn.reqChan <- msg:
		case <-session.conn.closed:
			http.Error(w, "Session closed", http.StatusGone)
			return
		case <-r.Context().Done():
			http.Error(w, "Request cancelled", http.StatusRequestTimeout)
			return
		}

		// Notification - no response
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleSessionDelete handles DELETE /mcp for explicit session termination.
// A known session is closed and removed from the table; a missing or unknown
// ID is reported the same way as on the message path.
func (t *HTTPTransport) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionID := strings.TrimSpace(r.Header.Get("Mcp-Session-Id"))
	if sessionID == "" {
		writeSessionError(w, "Invalid or missing session ID")
		return
	}
	if _, exists := t.lookupSession(sessionID); !exists {
		writeSessionError(w, "Invalid session ID")
		return
	}

	t.removeSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func writeSessionError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    -32000,
			"message": message,
		},
		"id": nil,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		_, _ = w.Write([]byte("{\"jsonrpc\":\"2.0\",\"error\":{\"code\":-32000,\"message\":\"Session error\"},\"id\":null}"))
		return
	}
	_, _ = w.Write(data)
}
