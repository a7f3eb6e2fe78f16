package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"chatgate/internal/constants"
	"chatgate/internal/errors"
	"chatgate/internal/models"
)

// FriendRequestStore is the persistence contract for friend requests.
type FriendRequestStore interface {
	SaveFriendRequest(ctx context.Context, req *models.FriendRequest) error
	GetFriendRequest(ctx context.Context, id int64) (*models.FriendRequest, error)
	UpdateFriendRequestStatus(ctx context.Context, id int64, status models.FriendRequestStatus) error
}

// EventPublisher is the domain event source side of the event bus.
type EventPublisher interface {
	PublishFriendRequestCreated(event models.FriendRequestEvent)
	PublishFriendRequestUpdated(event models.FriendRequestEvent)
}

// FriendService owns the friend-request lifecycle and publishes each change
// onto the event bus, where the bridge picks it up for delivery.
type FriendService struct {
	store  FriendRequestStore
	bus    EventPublisher
	logger *logrus.Logger
}

func NewFriendService(store FriendRequestStore, bus EventPublisher, logger *logrus.Logger) *FriendService {
	return &FriendService{
		store:  store,
		bus:    bus,
		logger: logger,
	}
}

// SendFriendRequest persists a pending request and publishes the created
// event. The event only fires after the store write succeeds.
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, receiverID, description string) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot send a friend request to yourself").
			WithUserMessage("cannot send a friend request to yourself")
	}
	if len(description) < constants.FriendRequestDescriptionMin || len(description) > constants.FriendRequestDescriptionMax {
		return nil, errors.New(errors.ErrCodeInvalidInput, "description must be between 10 and 500 characters").
			WithUserMessage("description must be between 10 and 500 characters")
	}

	now := time.Now().UTC()
	req := &models.FriendRequest{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Description: description,
		Status:      models.FriendRequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.SaveFriendRequest(ctx, req); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreFailure, "failed to persist friend request")
	}

	s.bus.PublishFriendRequestCreated(models.FriendRequestEvent{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Description: description,
	})

	s.logger.WithFields(logrus.Fields{
		"request": req.ID,
	}).Info("Friend request created")
	return req, nil
}

// RespondFriendRequest transitions a pending request to accepted or rejected
// and publishes the updated event for both sides.
func (s *FriendService) RespondFriendRequest(ctx context.Context, id int64, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	if status != models.FriendRequestAccepted && status != models.FriendRequestRejected {
		return nil, errors.New(errors.ErrCodeInvalidInput, "status must be accepted or rejected").
			WithUserMessage("status must be accepted or rejected")
	}

	req, err := s.store.GetFriendRequest(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreFailure, "failed to load friend request")
	}
	if req == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "friend request not found").
			WithUserMessage("friend request not found")
	}

	if err := s.store.UpdateFriendRequestStatus(ctx, id, status); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreFailure, "failed to update friend request")
	}
	req.Status = status

	s.bus.PublishFriendRequestUpdated(models.FriendRequestEvent{
		SenderID:    req.SenderID,
		ReceiverID:  req.ReceiverID,
		Description: req.Description,
	})

	s.logger.WithFields(logrus.Fields{
		"request": req.ID,
		"status":  string(status),
	}).Info("Friend request updated")
	return req, nil
}
