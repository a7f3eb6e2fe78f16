package models

import "encoding/json"

// Socket event names shared by client and server.
const (
	EventSingleChat   = "singleChat"
	EventNotification = "notification"
	EventError        = "error"
)

// Frame is the wire shape of every websocket message: an event name and a
// JSON payload.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// InboundFrame defers payload decoding until the event name is known.
type InboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// PrivateMessageRequest is the inbound singleChat payload.
type PrivateMessageRequest struct {
	To      string      `json:"to"`
	Content string      `json:"content"`
	Kind    MessageKind `json:"kind"`
}

// OutboundChat is the singleChat payload pushed to a live receiver.
type OutboundChat struct {
	From    string      `json:"from"`
	Content string      `json:"content"`
	Kind    MessageKind `json:"kind"`
}

// NotificationEnvelope wraps a notification push with its type tag.
type NotificationEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ErrorPayload surfaces a failed send back to the sender's own connection.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
