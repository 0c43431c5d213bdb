package service

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// handleSSE handles GET /mcp for Server-Sent Events streaming.
// SSE is intentionally kept as a notification-only path so request/reply
// operations stay decoupled from streaming delivery.
func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionID := strings.TrimSpace(r.Header.Get("Mcp-Session-Id"))
	var session *httpSession
	var exists bool
	if sessionID != "" {
		session, exists = t.lookupSession(sessionID)
	}
	if !exists || session == nil {
		http.Error(w, "Invalid or missing session ID", http.StatusBadRequest)
		return
	}

	// Set up SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Flush headers
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	ctx := r.Context()

	// Update session activity so active SSE connections are not considered
	// idle by the cleanup goroutine
	t.touchSession(sessionID)

	// Periodically refresh lastUsed for long-lived SSE connections
	ticker := time.NewTicker(sseHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-session.conn.closed:
			return
		case <-ticker.C:
			t.touchSession(sessionID)
		case msg := <-session.conn.notifyChan:
			t.touchSession(sessionID)

			// Send as SSE event
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Failed to marshal SSE message: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}
