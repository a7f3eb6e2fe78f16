package models

import "time"

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is the persisted friend-request record. The gateway only
// reads it to learn both sides of a lifecycle event; creation and status
// changes happen through the friend service.
type FriendRequest struct {
	ID          int64               `json:"id"`
	SenderID    string              `json:"senderId"`
	ReceiverID  string              `json:"receiverId"`
	Description string              `json:"description"`
	Status      FriendRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// FriendRequestEvent moves a friend-request lifecycle change from the friend
// service to the event bridge. Never persisted by the gateway.
type FriendRequestEvent struct {
	SenderID    string `json:"senderId"`
	ReceiverID  string `json:"receiverId"`
	Description string `json:"description,omitempty"`
}
