package gateway

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"chatgate/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeHandle records every frame pushed through it.
type fakeHandle struct {
	mu      sync.Mutex
	frames  []models.Frame
	sendErr error
	// failAfter fails sends once this many frames have been accepted.
	// Negative means never fail.
	failAfter int
	closed    bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{failAfter: -1}
}

func (h *fakeHandle) Send(ctx context.Context, frame models.Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sendErr != nil {
		return h.sendErr
	}
	if h.failAfter >= 0 && len(h.frames) >= h.failAfter {
		return context.DeadlineExceeded
	}
	h.frames = append(h.frames, frame)
	return nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *fakeHandle) sent() []models.Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.Frame, len(h.frames))
	copy(out, h.frames)
	return out
}

type mockOfflineStore struct {
	mock.Mock
}

func (m *mockOfflineStore) SaveOfflineNotification(ctx context.Context, n *models.OfflineNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type mockDrainStore struct {
	mock.Mock
}

func (m *mockDrainStore) PendingForUser(ctx context.Context, userID string) ([]*models.OfflineNotification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OfflineNotification), args.Error(1)
}

func (m *mockDrainStore) MarkDelivered(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

// fakeRouter records routed payloads for the event bridge tests.
type fakeRouter struct {
	mu       sync.Mutex
	calls    []routedCall
	outcomes map[string]Outcome
	err      error
	notify   chan struct{}
}

type routedCall struct {
	target   string
	frame    models.Frame
	fallback models.NotificationPayload
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{
		outcomes: make(map[string]Outcome),
		notify:   make(chan struct{}, 16),
	}
}

func (r *fakeRouter) Route(ctx context.Context, target string, frame models.Frame, fallback models.NotificationPayload) (Outcome, error) {
	r.mu.Lock()
	r.calls = append(r.calls, routedCall{target: target, frame: frame, fallback: fallback})
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}

	if r.err != nil {
		return "", r.err
	}
	if outcome, ok := r.outcomes[target]; ok {
		return outcome, nil
	}
	return OutcomeDeliveredLive, nil
}

func (r *fakeRouter) routed() []routedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]routedCall, len(r.calls))
	copy(out, r.calls)
	return out
}
