package gateway

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"chatgate/internal/errors"
	"chatgate/internal/metrics"
	"chatgate/internal/models"
	"chatgate/internal/tracing"
)

// Outcome reports which delivery path a routed payload took.
type Outcome string

const (
	OutcomeDeliveredLive Outcome = "live"
	OutcomeStoredOffline Outcome = "offline"
)

// OfflineStore is the persistence contract the router needs for the offline
// fallback path.
type OfflineStore interface {
	SaveOfflineNotification(ctx context.Context, n *models.OfflineNotification) error
}

// DeliveryRouter decides, per payload, between a live push and the offline
// queue. Presence lookup is the only reachability signal it consults.
type DeliveryRouter struct {
	registry *PresenceRegistry
	offline  OfflineStore
	metrics  *metrics.Registry
	logger   *logrus.Logger
}

func NewDeliveryRouter(registry *PresenceRegistry, offline OfflineStore, metricsReg *metrics.Registry, logger *logrus.Logger) *DeliveryRouter {
	return &DeliveryRouter{
		registry: registry,
		offline:  offline,
		metrics:  metricsReg,
		logger:   logger,
	}
}

// Route pushes the frame to the target's live connection, or persists the
// fallback payload offline when no connection exists. A push that fails
// because the target disconnected between lookup and send is not retried;
// the payload falls back to the offline queue so delivery is at-least-once.
func (r *DeliveryRouter) Route(ctx context.Context, target string, frame models.Frame, fallback models.NotificationPayload) (Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "router.route",
		attribute.String("delivery.event", frame.Event),
		attribute.String("delivery.kind", string(fallback.Kind)),
	)
	defer span.End()

	if handle, ok := r.registry.Lookup(target); ok {
		err := handle.Send(ctx, frame)
		if err == nil {
			r.metrics.IncrementCounter("delivery_total", map[string]string{"path": "live"})
			span.SetAttributes(attribute.String("delivery.outcome", string(OutcomeDeliveredLive)))
			return OutcomeDeliveredLive, nil
		}

		r.metrics.IncrementCounter("routing_race_total", nil)
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event": frame.Event,
		}).Warn("Live push failed after presence lookup, falling back to offline store")
	}

	notification := &models.OfflineNotification{
		ReceiverID: target,
		Message:    fallback,
	}
	if err := r.offline.SaveOfflineNotification(ctx, notification); err != nil {
		wrapped := errors.Wrap(err, errors.ErrCodeStoreFailure, "failed to queue offline notification")
		tracing.RecordError(ctx, wrapped)
		return "", wrapped
	}

	r.metrics.IncrementCounter("delivery_total", map[string]string{"path": "offline"})
	span.SetAttributes(attribute.String("delivery.outcome", string(OutcomeStoredOffline)))
	return OutcomeStoredOffline, nil
}
