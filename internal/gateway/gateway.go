package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"

	"chatgate/internal/errors"
	"chatgate/internal/models"
)

// ChatHandler is the entry point invoked per inbound chat frame. Implemented
// by the chat service; an interface here keeps the transport decoupled from
// persistence wiring.
type ChatHandler interface {
	HandlePrivateMessage(ctx context.Context, senderID string, req models.PrivateMessageRequest) error
}

// Gateway owns the websocket endpoint: handshake, auth, one reader task per
// connection, and the disconnect hook.
type Gateway struct {
	lifecycle *LifecycleManager
	chat      ChatHandler
	cfg       models.GatewayConfig
	logger    *logrus.Logger
}

func NewGateway(lifecycle *LifecycleManager, chat ChatHandler, cfg models.GatewayConfig, logger *logrus.Logger) *Gateway {
	return &Gateway{
		lifecycle: lifecycle,
		chat:      chat,
		cfg:       cfg,
		logger:    logger,
	}
}

// HandleWS upgrades the request and runs the connection until it drops.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.cfg.AllowedOrigins,
	})
	if err != nil {
		g.logger.WithError(err).Debug("Websocket accept failed")
		return
	}
	conn.SetReadLimit(g.cfg.ReadLimitBytes)

	ctx := r.Context()
	handle := newWSHandle(conn, time.Duration(g.cfg.SendTimeoutSec)*time.Second)

	userID, err := g.lifecycle.HandleConnect(ctx, bearerToken(r), handle)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeAuthentication) {
			conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		} else {
			conn.Close(websocket.StatusInternalError, "connection setup failed")
		}
		if userID != "" {
			g.lifecycle.HandleDisconnect(userID, handle)
		}
		return
	}
	defer g.lifecycle.HandleDisconnect(userID, handle)
	defer conn.CloseNow()

	g.readLoop(ctx, conn, handle, userID)
}

// readLoop processes inbound frames sequentially, which preserves
// per-sender message order.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, handle ConnectionHandle, userID string) {
	for {
		var in models.InboundFrame
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			g.logger.WithField("user", userID).Debug("Read loop ended")
			return
		}

		switch in.Event {
		case models.EventSingleChat:
			var req models.PrivateMessageRequest
			if err := json.Unmarshal(in.Data, &req); err != nil {
				g.sendError(ctx, handle, errors.New(errors.ErrCodeInvalidInput, "malformed singleChat payload").
					WithUserMessage("malformed message payload"))
				continue
			}
			if err := g.chat.HandlePrivateMessage(ctx, userID, req); err != nil {
				g.logger.WithError(err).WithField("user", userID).Error("Failed to handle private message")
				// Delivery errors surface to the sender's own connection.
				g.sendError(ctx, handle, err)
			}
		default:
			g.sendError(ctx, handle, errors.New(errors.ErrCodeInvalidInput, "unknown event").
				WithContext("event", in.Event).
				WithUserMessage("unknown event"))
		}
	}
}

func (g *Gateway) sendError(ctx context.Context, handle ConnectionHandle, cause error) {
	frame := models.Frame{
		Event: models.EventError,
		Data: models.ErrorPayload{
			Code:    string(errors.GetCode(cause)),
			Message: errors.GetUserMessage(cause),
		},
	}
	if err := handle.Send(ctx, frame); err != nil {
		g.logger.WithError(err).Debug("Failed to surface error to sender")
	}
}

// bearerToken extracts the credential from the Authorization header or,
// for browser clients that cannot set headers on websocket upgrades, the
// token query parameter.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
