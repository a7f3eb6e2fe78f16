package models

import "time"

type NotificationKind string

const (
	NotificationPrivateMessage       NotificationKind = "PRIVATE_MESSAGE"
	NotificationFriendRequest        NotificationKind = "FRIEND_REQUEST"
	NotificationFriendRequestUpdated NotificationKind = "FRIEND_REQUEST_UPDATED"
)

// NotificationPayload is the content pushed to a client, either live over the
// notification event or later when a pending offline record is drained.
type NotificationPayload struct {
	SenderID  string           `json:"senderId"`
	Content   string           `json:"content"`
	Kind      NotificationKind `json:"type"`
	CreatedAt time.Time        `json:"createdAt"`
}

// OfflineNotification is the durable substitute for a live push when the
// receiver has no connection. Delivered is flipped exactly once, when the
// record is pushed during a drain.
type OfflineNotification struct {
	ID         int64               `json:"id"`
	ReceiverID string              `json:"receiverId"`
	Message    NotificationPayload `json:"message"`
	Delivered  bool                `json:"delivered"`
}
