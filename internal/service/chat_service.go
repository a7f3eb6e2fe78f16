package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"chatgate/internal/errors"
	"chatgate/internal/gateway"
	"chatgate/internal/models"
	"chatgate/internal/tracing"
)

// MessageStore is the durable chat-history contract.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	FindUnreadForUser(ctx context.Context, userID string) ([]*models.ChatMessage, error)
	FindForRoom(ctx context.Context, chatroomID string) ([]*models.ChatMessage, error)
	MarkReadForUser(ctx context.Context, userID string) error
	MarkReadForRoom(ctx context.Context, chatroomID string) error
	MarkRead(ctx context.Context, messageID string) error
}

// Router abstracts the delivery router for testability.
type Router interface {
	Route(ctx context.Context, target string, frame models.Frame, fallback models.NotificationPayload) (gateway.Outcome, error)
}

// ChatService handles chat sends and read-state transitions. A private
// message is always appended to durable history; the routing outcome only
// decides whether an offline notification is additionally queued.
type ChatService struct {
	store  MessageStore
	router Router
	logger *logrus.Logger
}

func NewChatService(store MessageStore, router Router, logger *logrus.Logger) *ChatService {
	return &ChatService{
		store:  store,
		router: router,
		logger: logger,
	}
}

// HandlePrivateMessage persists the message and routes it to the receiver.
func (s *ChatService) HandlePrivateMessage(ctx context.Context, senderID string, req models.PrivateMessageRequest) error {
	ctx, span := tracing.StartSpan(ctx, "chat.handlePrivateMessage",
		attribute.String("message.kind", string(req.Kind)),
	)
	defer span.End()

	msg, err := models.NewPrivateMessage(senderID, req.To, req.Content, req.Kind)
	if err != nil {
		tracing.RecordError(ctx, err)
		return err
	}

	// History is written regardless of the delivery outcome.
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		wrapped := errors.Wrap(err, errors.ErrCodeStoreFailure, "failed to persist chat message")
		tracing.RecordError(ctx, wrapped)
		return wrapped
	}

	frame := models.Frame{
		Event: models.EventSingleChat,
		Data: models.OutboundChat{
			From:    senderID,
			Content: req.Content,
			Kind:    req.Kind,
		},
	}
	fallback := models.NotificationPayload{
		SenderID:  senderID,
		Content:   req.Content,
		Kind:      models.NotificationPrivateMessage,
		CreatedAt: msg.SentAt,
	}

	outcome, err := s.router.Route(ctx, req.To, frame, fallback)
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"message": msg.ID,
		"outcome": string(outcome),
	}).Debug("Private message routed")
	return nil
}

// SendRoomMessage appends a room message to history. Room fan-out is handled
// by clients polling the room history; there is no live room push.
func (s *ChatService) SendRoomMessage(ctx context.Context, senderID, chatroomID, content string, kind models.MessageKind) (*models.ChatMessage, error) {
	msg, err := models.NewRoomMessage(senderID, chatroomID, content, kind)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreFailure, "failed to persist room message")
	}
	return msg, nil
}

// UnreadForUser returns the user's unread private messages.
func (s *ChatService) UnreadForUser(ctx context.Context, userID string) ([]*models.ChatMessage, error) {
	return s.store.FindUnreadForUser(ctx, userID)
}

// RoomMessages returns a room's message history.
func (s *ChatService) RoomMessages(ctx context.Context, chatroomID string) ([]*models.ChatMessage, error) {
	return s.store.FindForRoom(ctx, chatroomID)
}

// MarkReadForUser marks all of a user's private messages read.
func (s *ChatService) MarkReadForUser(ctx context.Context, userID string) error {
	return s.store.MarkReadForUser(ctx, userID)
}

// MarkReadForRoom marks all messages in a room read.
func (s *ChatService) MarkReadForRoom(ctx context.Context, chatroomID string) error {
	return s.store.MarkReadForRoom(ctx, chatroomID)
}

// MarkRead marks a single message read.
func (s *ChatService) MarkRead(ctx context.Context, messageID string) error {
	return s.store.MarkRead(ctx, messageID)
}
