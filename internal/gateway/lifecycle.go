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

// ConnState is the lifecycle state of a single connection.
type ConnState string

const (
	StateConnecting    ConnState = "connecting"
	StateAuthenticated ConnState = "authenticated"
	StateOnline        ConnState = "online"
	StateDisconnected  ConnState = "disconnected"
)

// Authenticator resolves a user identity from a bearer credential. An
// external collaborator from the gateway's point of view.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// NotificationDrain is the offline-store contract the lifecycle manager
// needs to flush pending notifications on connect.
type NotificationDrain interface {
	PendingForUser(ctx context.Context, userID string) ([]*models.OfflineNotification, error)
	MarkDelivered(ctx context.Context, id int64) error
}

// LifecycleManager drives a connection through
// connecting → authenticated → online → disconnected, registering presence
// and draining pending offline notifications along the way.
type LifecycleManager struct {
	auth     Authenticator
	registry *PresenceRegistry
	pending  NotificationDrain
	metrics  *metrics.Registry
	logger   *logrus.Logger
}

func NewLifecycleManager(auth Authenticator, registry *PresenceRegistry, pending NotificationDrain, metricsReg *metrics.Registry, logger *logrus.Logger) *LifecycleManager {
	return &LifecycleManager{
		auth:     auth,
		registry: registry,
		pending:  pending,
		metrics:  metricsReg,
		logger:   logger,
	}
}

// HandleConnect authenticates the handshake, registers presence and drains
// pending offline notifications in creation order. Authentication failure
// returns before any registry mutation. A store failure during the drain is
// surfaced; records not yet marked delivered stay pending for the next
// connect.
func (m *LifecycleManager) HandleConnect(ctx context.Context, token string, handle ConnectionHandle) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.connect")
	defer span.End()

	m.logger.WithField("state", StateConnecting).Debug("Connection handshake started")

	userID, err := m.auth.Authenticate(ctx, token)
	if err != nil {
		m.metrics.IncrementCounter("auth_failures_total", nil)
		tracing.RecordError(ctx, err)
		return "", errors.Wrap(err, errors.ErrCodeAuthentication, "handshake rejected")
	}

	m.logger.WithFields(logrus.Fields{
		"user":  userID,
		"state": StateAuthenticated,
	}).Debug("Connection authenticated")

	m.registry.Register(userID, handle)
	m.metrics.SetGauge("connections_online", float64(m.registry.Online()), nil)

	m.logger.WithFields(logrus.Fields{
		"user":  userID,
		"state": StateOnline,
	}).Info("User online")

	if err := m.drain(ctx, userID, handle); err != nil {
		return userID, err
	}

	return userID, nil
}

// HandleDisconnect transitions the connection to its terminal state and
// removes the presence entry, guarded so a stale disconnect cannot evict a
// newer registration.
func (m *LifecycleManager) HandleDisconnect(userID string, handle ConnectionHandle) {
	removed := m.registry.Unregister(userID, handle)
	m.metrics.SetGauge("connections_online", float64(m.registry.Online()), nil)

	entry := m.logger.WithFields(logrus.Fields{
		"user":  userID,
		"state": StateDisconnected,
	})
	if removed {
		entry.Info("User offline")
	} else {
		entry.Debug("Stale disconnect ignored, a newer connection holds the registration")
	}
}

// drain pushes every pending offline notification in creation order, marking
// each delivered before moving to the next. A failed push abandons the drain
// and leaves the remainder pending.
func (m *LifecycleManager) drain(ctx context.Context, userID string, handle ConnectionHandle) error {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.drain", attribute.String("user.id", userID))
	defer span.End()

	pending, err := m.pending.PendingForUser(ctx, userID)
	if err != nil {
		wrapped := errors.Wrap(err, errors.ErrCodeStoreFailure, "failed to load pending notifications")
		tracing.RecordError(ctx, wrapped)
		return wrapped
	}
	if len(pending) == 0 {
		return nil
	}

	delivered := 0
	for _, n := range pending {
		frame := models.Frame{
			Event: models.EventNotification,
			Data: models.NotificationEnvelope{
				Type: string(n.Message.Kind),
				Data: n.Message,
			},
		}
		if err := handle.Send(ctx, frame); err != nil {
			m.logger.WithError(err).WithFields(logrus.Fields{
				"user":      userID,
				"delivered": delivered,
				"pending":   len(pending) - delivered,
			}).Warn("Connection dropped mid-drain, remaining notifications stay pending")
			return nil
		}
		if err := m.pending.MarkDelivered(ctx, n.ID); err != nil {
			wrapped := errors.Wrap(err, errors.ErrCodeStoreFailure, "failed to mark notification delivered")
			tracing.RecordError(ctx, wrapped)
			return wrapped
		}
		delivered++
	}

	m.metrics.IncrementCounter("drained_notifications_total", nil)
	m.logger.WithFields(logrus.Fields{
		"user":  userID,
		"count": delivered,
	}).Info("Offline notifications drained")
	return nil
}
