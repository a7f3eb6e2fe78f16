package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "chatgate/internal/errors"
	"chatgate/internal/models"
)

type mockFriendStore struct {
	mock.Mock
}

func (m *mockFriendStore) SaveFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockFriendStore) GetFriendRequest(ctx context.Context, id int64) (*models.FriendRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FriendRequest), args.Error(1)
}

func (m *mockFriendStore) UpdateFriendRequestStatus(ctx context.Context, id int64, status models.FriendRequestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type recordingBus struct {
	mu      sync.Mutex
	created []models.FriendRequestEvent
	updated []models.FriendRequestEvent
}

func (b *recordingBus) PublishFriendRequestCreated(event models.FriendRequestEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, event)
}

func (b *recordingBus) PublishFriendRequestUpdated(event models.FriendRequestEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updated = append(b.updated, event)
}

const validDescription = "we met at the conference last week"

func TestFriendService_SendFriendRequest(t *testing.T) {
	store := &mockFriendStore{}
	bus := &recordingBus{}
	svc := NewFriendService(store, bus, testLogger())

	store.On("SaveFriendRequest", mock.Anything, mock.MatchedBy(func(req *models.FriendRequest) bool {
		return req.SenderID == "alice" &&
			req.ReceiverID == "bob" &&
			req.Status == models.FriendRequestPending
	})).Return(nil)

	req, err := svc.SendFriendRequest(context.Background(), "alice", "bob", validDescription)

	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, req.Status)
	require.Len(t, bus.created, 1)
	assert.Equal(t, "alice", bus.created[0].SenderID)
	assert.Equal(t, "bob", bus.created[0].ReceiverID)
	store.AssertExpectations(t)
}

func TestFriendService_SendFriendRequest_SelfRequestRejected(t *testing.T) {
	store := &mockFriendStore{}
	bus := &recordingBus{}
	svc := NewFriendService(store, bus, testLogger())

	_, err := svc.SendFriendRequest(context.Background(), "alice", "alice", validDescription)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
	assert.Empty(t, bus.created)
	store.AssertNotCalled(t, "SaveFriendRequest", mock.Anything, mock.Anything)
}

func TestFriendService_SendFriendRequest_DescriptionBounds(t *testing.T) {
	store := &mockFriendStore{}
	svc := NewFriendService(store, &recordingBus{}, testLogger())

	tests := []struct {
		name        string
		description string
		wantErr     bool
	}{
		{"too short", "hi", true},
		{"minimum length", strings.Repeat("a", 10), false},
		{"maximum length", strings.Repeat("a", 500), false},
		{"too long", strings.Repeat("a", 501), true},
	}

	store.On("SaveFriendRequest", mock.Anything, mock.Anything).Return(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendFriendRequest(context.Background(), "alice", "bob", tt.description)
			if tt.wantErr {
				assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFriendService_SendFriendRequest_NoEventOnStoreFailure(t *testing.T) {
	store := &mockFriendStore{}
	bus := &recordingBus{}
	svc := NewFriendService(store, bus, testLogger())

	store.On("SaveFriendRequest", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := svc.SendFriendRequest(context.Background(), "alice", "bob", validDescription)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStoreFailure))
	assert.Empty(t, bus.created, "the created event only fires after the store write succeeds")
}

func TestFriendService_RespondFriendRequest(t *testing.T) {
	store := &mockFriendStore{}
	bus := &recordingBus{}
	svc := NewFriendService(store, bus, testLogger())

	store.On("GetFriendRequest", mock.Anything, int64(7)).Return(&models.FriendRequest{
		ID:          7,
		SenderID:    "alice",
		ReceiverID:  "bob",
		Description: validDescription,
		Status:      models.FriendRequestPending,
	}, nil)
	store.On("UpdateFriendRequestStatus", mock.Anything, int64(7), models.FriendRequestAccepted).Return(nil)

	req, err := svc.RespondFriendRequest(context.Background(), 7, models.FriendRequestAccepted)

	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, req.Status)
	require.Len(t, bus.updated, 1)
	assert.Equal(t, "alice", bus.updated[0].SenderID)
	assert.Equal(t, "bob", bus.updated[0].ReceiverID)
	store.AssertExpectations(t)
}

func TestFriendService_RespondFriendRequest_InvalidStatus(t *testing.T) {
	store := &mockFriendStore{}
	svc := NewFriendService(store, &recordingBus{}, testLogger())

	_, err := svc.RespondFriendRequest(context.Background(), 7, models.FriendRequestPending)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
	store.AssertNotCalled(t, "GetFriendRequest", mock.Anything, mock.Anything)
}

func TestFriendService_RespondFriendRequest_NotFound(t *testing.T) {
	store := &mockFriendStore{}
	bus := &recordingBus{}
	svc := NewFriendService(store, bus, testLogger())

	store.On("GetFriendRequest", mock.Anything, int64(99)).Return(nil, nil)

	_, err := svc.RespondFriendRequest(context.Background(), 99, models.FriendRequestRejected)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
	assert.Empty(t, bus.updated)
}
