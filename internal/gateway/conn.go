package gateway

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"chatgate/internal/models"
)

// ConnectionHandle is the opaque capability the registry hands out for a live
// connection. It hides the transport; the router and lifecycle manager only
// ever push frames or close.
type ConnectionHandle interface {
	Send(ctx context.Context, frame models.Frame) error
	Close() error
}

type wsHandle struct {
	conn        *websocket.Conn
	sendTimeout time.Duration
	connectedAt time.Time
}

func newWSHandle(conn *websocket.Conn, sendTimeout time.Duration) *wsHandle {
	return &wsHandle{
		conn:        conn,
		sendTimeout: sendTimeout,
		connectedAt: time.Now(),
	}
}

func (h *wsHandle) Send(ctx context.Context, frame models.Frame) error {
	ctx, cancel := context.WithTimeout(ctx, h.sendTimeout)
	defer cancel()
	return wsjson.Write(ctx, h.conn, frame)
}

func (h *wsHandle) Close() error {
	return h.conn.Close(websocket.StatusNormalClosure, "")
}
