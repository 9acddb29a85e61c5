package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketSolver is a Solver backed by a single WebSocket connection to an
// external solver server, exchanging one JSON query and one JSON response
// per WebSocket text message, one in flight at a time per connection (§5's
// single-threaded-per-run model). Mirrors internal/network/websocket.go's dial/mutex-guarded-
// conn shape, repointed at a solver endpoint instead of a generic peer.
type WebSocketSolver struct {
	url  string
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// Dial connects to a solver server at url.
func Dial(url string) (*WebSocketSolver, error) {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("solver: websocket dial failed: %w", err)
	}
	return &WebSocketSolver{url: url, conn: conn}, nil
}

// Check sends e as a query frame and blocks for the matching verdict frame.
// Only one Check may be in flight on a given connection at a time; callers
// running independent compilation units concurrently should each hold their
// own WebSocketSolver, per §5's "parallelism ... at the granularity of
// independent compilation units".
func (s *WebSocketSolver) Check(ctx context.Context, e Expr) (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Unknown, fmt.Errorf("solver: connection to %s is closed", s.url)
	}

	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
	}
	payload, err := json.Marshal(queryFrame{Expr: toWire(e)})
	if err != nil {
		return Unknown, fmt.Errorf("solver: encoding query: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return Unknown, fmt.Errorf("solver: writing query: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetReadDeadline(deadline)
	} else {
		s.conn.SetReadDeadline(time.Time{})
	}
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return Unknown, fmt.Errorf("solver: reading verdict: %w", err)
	}

	var resp verdictFrame
	if err := json.Unmarshal(data, &resp); err != nil {
		return Unknown, fmt.Errorf("solver: decoding verdict: %w", err)
	}
	if resp.Error != "" {
		return Unknown, fmt.Errorf("solver: %s", resp.Error)
	}
	return resp.Verdict, nil
}

// Close sends a normal-closure frame and tears down the connection.
func (s *WebSocketSolver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
