package core

import (
	"context"
	"errors"
	"sync"
)

// Identity is the authenticated user bound to a session. It is resolved once at
// connect time and never refreshed, so a user deactivated mid-session stays
// connected until the session ends.
type Identity struct {
	UserID int64
	Name   string
	Active bool
}

// CloseCode is a WebSocket close status code.
type CloseCode int

const (
	CloseNormal          CloseCode = 1000
	CloseGoingAway       CloseCode = 1001
	ClosePolicyViolation CloseCode = 1008
	CloseInternalError   CloseCode = 1011
)

// Conn is the outbound half of a client transport.
// Send must be safe for concurrent use.
type Conn interface {
	Send(ctx context.Context, ev Event) error
	Close(code CloseCode, reason string) error
}

// Transport is a full client connection.
type Transport interface {
	Conn
	// Receive blocks until the next inbound event arrives. Errors wrapping
	// ErrMalformedEvent or ErrRateLimited drop one payload; any other error
	// means the connection is gone.
	Receive(ctx context.Context) (Inbound, error)
}

var errSessionClosed = errors.New("session closed")

// Session is one live, authenticated connection.
type Session struct {
	ID       string
	Identity Identity

	conn      Conn
	closeOnce sync.Once
	done      chan struct{}
}

// NewSession binds an authenticated identity to a connection.
func NewSession(id string, identity Identity, conn Conn) *Session {
	return &Session{
		ID:       id,
		Identity: identity,
		conn:     conn,
		done:     make(chan struct{}),
	}
}

// Send writes ev to the transport. Failures are returned as *DeliveryError.
func (s *Session) Send(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return &DeliveryError{SessionID: s.ID, Err: errSessionClosed}
	default:
	}
	if err := s.conn.Send(ctx, ev); err != nil {
		return &DeliveryError{SessionID: s.ID, Err: err}
	}
	return nil
}

// Close closes the transport once; later calls are no-ops.
func (s *Session) Close(code CloseCode, reason string) {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close(code, reason)
	})
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
