package models

import (
	"time"

	"github.com/google/uuid"

	"chatgate/internal/errors"
)

type MessageKind string

const (
	TextMessage  MessageKind = "text"
	ImageMessage MessageKind = "image"
	VideoMessage MessageKind = "video"
	FileMessage  MessageKind = "file"
)

// ValidKind reports whether k is one of the supported message kinds.
func ValidKind(k MessageKind) bool {
	switch k {
	case TextMessage, ImageMessage, VideoMessage, FileMessage:
		return true
	}
	return false
}

// ChatMessage is the durable record of a chat send. Exactly one of
// ReceiverID (private chat) or ChatroomID (room chat) is set.
type ChatMessage struct {
	ID         string      `json:"id"`
	Content    string      `json:"content"`
	SenderID   string      `json:"senderId"`
	ReceiverID string      `json:"receiverId,omitempty"`
	ChatroomID string      `json:"chatroomId,omitempty"`
	Kind       MessageKind `json:"kind"`
	IsRead     bool        `json:"isRead"`
	SentAt     time.Time   `json:"sentAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// NewPrivateMessage builds an unread private message addressed to a single user.
func NewPrivateMessage(senderID, receiverID, content string, kind MessageKind) (*ChatMessage, error) {
	msg := newMessage(senderID, content, kind)
	msg.ReceiverID = receiverID
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// NewRoomMessage builds an unread message addressed to a chat room.
func NewRoomMessage(senderID, chatroomID, content string, kind MessageKind) (*ChatMessage, error) {
	msg := newMessage(senderID, content, kind)
	msg.ChatroomID = chatroomID
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

func newMessage(senderID, content string, kind MessageKind) *ChatMessage {
	now := time.Now().UTC()
	return &ChatMessage{
		ID:        uuid.NewString(),
		Content:   content,
		SenderID:  senderID,
		Kind:      kind,
		SentAt:    now,
		UpdatedAt: now,
	}
}

// Validate enforces the message invariants: a sender, a supported kind, and
// exactly one of receiver or chatroom.
func (m *ChatMessage) Validate() error {
	if m.SenderID == "" {
		return errors.New(errors.ErrCodeInvariantViolation, "message sender is required")
	}
	if !ValidKind(m.Kind) {
		return errors.New(errors.ErrCodeInvariantViolation, "unsupported message kind").
			WithContext("kind", string(m.Kind))
	}
	if m.ReceiverID != "" && m.ChatroomID != "" {
		return errors.New(errors.ErrCodeInvariantViolation, "message cannot target both a receiver and a chatroom")
	}
	if m.ReceiverID == "" && m.ChatroomID == "" {
		return errors.New(errors.ErrCodeInvariantViolation, "message must target a receiver or a chatroom")
	}
	return nil
}
