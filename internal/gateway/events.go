package gateway

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"chatgate/internal/constants"
	"chatgate/internal/models"
)

// Notification envelope type tags, matching the client protocol.
const (
	notifyTypeFriendRequest        = "friendRequest"
	notifyTypeFriendRequestUpdated = "friendRequestUpdated"
)

type eventKind int

const (
	eventFriendRequestCreated eventKind = iota
	eventFriendRequestUpdated
)

type busEvent struct {
	kind  eventKind
	event models.FriendRequestEvent
}

// EventBus is the explicit channel between the application-event source
// (friend service) and the bridge. Ordering between concurrently published
// events is not guaranteed and not assumed downstream.
type EventBus struct {
	ch chan busEvent
}

func NewEventBus(buffer int) *EventBus {
	if buffer <= 0 {
		buffer = constants.DefaultEventBufferLen
	}
	return &EventBus{ch: make(chan busEvent, buffer)}
}

func (b *EventBus) PublishFriendRequestCreated(event models.FriendRequestEvent) {
	b.ch <- busEvent{kind: eventFriendRequestCreated, event: event}
}

func (b *EventBus) PublishFriendRequestUpdated(event models.FriendRequestEvent) {
	b.ch <- busEvent{kind: eventFriendRequestUpdated, event: event}
}

// PayloadRouter is the routing contract the bridge depends on.
type PayloadRouter interface {
	Route(ctx context.Context, target string, frame models.Frame, fallback models.NotificationPayload) (Outcome, error)
}

// EventBridge consumes friend-request lifecycle events and hands each
// affected side to the delivery router.
type EventBridge struct {
	bus    *EventBus
	router PayloadRouter
	logger *logrus.Logger
}

func NewEventBridge(bus *EventBus, router PayloadRouter, logger *logrus.Logger) *EventBridge {
	return &EventBridge{
		bus:    bus,
		router: router,
		logger: logger,
	}
}

// Run consumes bus events until the context is canceled.
func (b *EventBridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.bus.ch:
			switch ev.kind {
			case eventFriendRequestCreated:
				b.HandleFriendRequestEvent(ctx, ev.event)
			case eventFriendRequestUpdated:
				b.HandleFriendRequestUpdatedEvent(ctx, ev.event)
			}
		}
	}
}

// HandleFriendRequestEvent notifies the receiver of a new friend request.
func (b *EventBridge) HandleFriendRequestEvent(ctx context.Context, event models.FriendRequestEvent) {
	b.notify(ctx, event.ReceiverID, notifyTypeFriendRequest, event, models.NotificationPayload{
		SenderID:  event.SenderID,
		Content:   constants.FriendRequestContent,
		Kind:      models.NotificationFriendRequest,
		CreatedAt: time.Now().UTC(),
	})
}

// HandleFriendRequestUpdatedEvent notifies both sides of a status change.
// The sender needs the outcome even though they initiated the request; each
// side is routed independently, so one may get a live push while the other
// falls back to the offline queue.
func (b *EventBridge) HandleFriendRequestUpdatedEvent(ctx context.Context, event models.FriendRequestEvent) {
	payload := models.NotificationPayload{
		SenderID:  event.SenderID,
		Content:   constants.FriendRequestUpdatedContent,
		Kind:      models.NotificationFriendRequestUpdated,
		CreatedAt: time.Now().UTC(),
	}

	b.notify(ctx, event.SenderID, notifyTypeFriendRequestUpdated, event, payload)
	b.notify(ctx, event.ReceiverID, notifyTypeFriendRequestUpdated, event, payload)
}

func (b *EventBridge) notify(ctx context.Context, target, notifyType string, event models.FriendRequestEvent, fallback models.NotificationPayload) {
	frame := models.Frame{
		Event: models.EventNotification,
		Data: models.NotificationEnvelope{
			Type: notifyType,
			Data: event,
		},
	}

	outcome, err := b.router.Route(ctx, target, frame, fallback)
	if err != nil {
		b.logger.WithError(err).WithFields(logrus.Fields{
			"target": target,
			"type":   notifyType,
		}).Error("Failed to route friend-request notification")
		return
	}

	b.logger.WithFields(logrus.Fields{
		"target":  target,
		"type":    notifyType,
		"outcome": string(outcome),
	}).Debug("Friend-request notification routed")
}
