package http

import (
	"context"
	"fmt"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomcast/internal/core"
	"github.com/vovakirdan/roomcast/internal/proto"
)

// WSOptions tunes accepted WebSocket connections.
type WSOptions struct {
	// AllowedOrigins are origin patterns for cross-origin upgrades.
	// An empty list disables origin verification.
	AllowedOrigins     []string
	MaxMessageBytes    int64
	RateLimitPerMinute int
}

// WSHandler upgrades HTTP connections and hands them to the protocol handler.
type WSHandler struct {
	handler *core.Handler
	opts    WSOptions
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(handler *core.Handler, opts WSOptions, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{handler: handler, opts: opts, log: logger}
}

// ServeHTTP serves GET /api/v1/messages/ws/{room_id}?token=...
func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	roomID := r.PathValue("room_id")
	token := r.URL.Query().Get("token")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.opts.AllowedOrigins,
		InsecureSkipVerify: len(h.opts.AllowedOrigins) == 0,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("room_id", roomID).Msg("ws accept error")
		return
	}
	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	transport := &wsTransport{
		conn:    conn,
		limiter: newRateLimiter(h.opts.RateLimitPerMinute),
	}
	h.handler.Serve(r.Context(), transport, roomID, token)
}

// wsTransport adapts a WebSocket connection to core.Transport.
type wsTransport struct {
	conn    *websocket.Conn
	limiter *rateLimiter
}

func (t *wsTransport) Receive(ctx context.Context) (core.Inbound, error) {
	typ, data, err := t.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText {
		return nil, fmt.Errorf("%w: binary frame", core.ErrMalformedEvent)
	}
	if !t.limiter.allow() {
		return nil, core.ErrRateLimited
	}

	in, err := proto.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedEvent, err)
	}
	return inboundToCore(in), nil
}

func (t *wsTransport) Send(ctx context.Context, ev core.Event) error {
	return wsjson.Write(ctx, t.conn, outboundFromEvent(ev))
}

// Close starts the close handshake without waiting for the peer, which may be
// the unresponsive session being evicted.
func (t *wsTransport) Close(code core.CloseCode, reason string) error {
	go func() {
		_ = t.conn.Close(websocket.StatusCode(code), reason)
	}()
	return nil
}
