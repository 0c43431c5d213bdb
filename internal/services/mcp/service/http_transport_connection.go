package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// httpConnection implements mcp.Connection for HTTP-based communication.
// The MCP SDK expects a bidirectional connection model, so this adapter maps
// request/response flow and notification delivery onto separate buffered channels.
type httpConnection struct {
	sessionID   string
	reqChan     chan jsonrpc.Message
	notifyChan  chan jsonrpc.Message // Separate channel for notifications (SSE)
	closed      chan struct{}
	ready       chan struct{} // Signals when the server session has started reading (buffered, size 1)
	readyOnce   sync.Once     // Ensures readiness is signaled only once
	mu          sync.Mutex
	closedFlag  bool
	pendingReqs map[jsonrpc.ID]chan jsonrpc.Message // Map request ID to response channel
	pendingMu   sync.Mutex
}

// Read implements mcp.Connection.Read. It blocks until an HTTP handler
// feeds the next message into the session, the connection closes, or the
// context ends.
func (c *httpConnection) Read(ctx context.Context) (jsonrpc.Message, error) {
	// Signal readiness on first read (when the server session starts reading)
	c.readyOnce.Do(func() {
		select {
		case c.ready <- struct{}{}:
		default:
			// Channel already has signal, ignore
		}
	})

	select {
	case msg := <-c.reqChan:
		return msg, nil
	case <-c.closed:
		return nil, fmt.Errorf("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write implements mcp.Connection.Write.
// Responses are routed to the pending request that is waiting on their ID;
// everything else goes to the notification channel for SSE delivery. The
// split channel model avoids delivering unrelated notifications to callers
// that are awaiting a specific request/response exchange.
func (c *httpConnection) Write(ctx context.Context, msg jsonrpc.Message) error {
	// Check closed flag under the lock to prevent a race with Close()
	c.mu.Lock()
	closed := c.closedFlag
	c.mu.Unlock()

	if closed {
		return fmt.Errorf("connection closed")
	}

	// Check if this is a response with an ID that matches a pending request
	if resp, ok := msg.(*jsonrpc.Response); ok && resp.ID != (jsonrpc.ID{}) {
		c.pendingMu.Lock()
		respChan, exists := c.pendingReqs[resp.ID]
		c.pendingMu.Unlock()

		if exists {
			// Route to the specific pending request
			// Check closed again before writing to prevent writing to a closed channel
			c.mu.Lock()
			closed = c.closedFlag
			c.mu.Unlock()
			if closed {
				return fmt.Errorf("connection closed")
			}

			select {
			case respChan <- msg:
				return nil
			case <-c.closed:
				return fmt.Errorf("connection closed")
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		// If no pending request found, treat as notification
	}

	// For notifications or unmatched responses, send to notification channel
	c.mu.Lock()
	closed = c.closedFlag
	c.mu.Unlock()
	if closed {
		return fmt.Errorf("connection closed")
	}

	select {
	case c.notifyChan <- msg:
		return nil
	case <-c.closed:
		return fmt.Errorf("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements mcp.Connection.Close.
// Only the closed signal channel is closed. The data channels stay open:
// every send and receive on them selects on the signal, so a concurrent
// HTTP handler blocked mid-send unblocks without a send-on-closed panic.
func (c *httpConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closedFlag {
		return nil
	}

	c.closedFlag = true
	close(c.closed)

	return nil
}

// SessionID implements mcp.Connection.SessionID.
func (c *httpConnection) SessionID() string {
	return c.sessionID
}
