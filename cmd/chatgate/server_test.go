package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgate/internal/auth"
	"chatgate/internal/database"
	"chatgate/internal/gateway"
	"chatgate/internal/metrics"
	"chatgate/internal/models"
	"chatgate/internal/service"
)

type testServer struct {
	http *httptest.Server
	auth *auth.Authenticator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	authenticator := auth.NewAuthenticator(models.AuthConfig{
		JWTSecret:   "test-secret-key-32-characters-long!!",
		TokenTTLSec: 3600,
		Issuer:      "chatgate",
	})

	metricsReg := metrics.NewRegistry()
	registry := gateway.NewPresenceRegistry()
	router := gateway.NewDeliveryRouter(registry, db, metricsReg, logger)
	lifecycle := gateway.NewLifecycleManager(authenticator, registry, db, metricsReg, logger)
	bus := gateway.NewEventBus(8)

	chatSvc := service.NewChatService(db, router, logger)
	friendSvc := service.NewFriendService(db, bus, logger)
	gw := gateway.NewGateway(lifecycle, chatSvc, models.GatewayConfig{
		SendTimeoutSec: 5,
		ReadLimitBytes: 64 * 1024,
	}, logger)

	server := NewServer(models.ServerConfig{Port: 0}, chatSvc, friendSvc, gw, authenticator, metricsReg, logger)

	ts := httptest.NewServer(server.router)
	t.Cleanup(ts.Close)

	return &testServer{http: ts, auth: authenticator}
}

func (ts *testServer) request(t *testing.T, method, path, userID string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.http.URL+path, reader)
	require.NoError(t, err)

	if userID != "" {
		token, err := ts.auth.IssueToken(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(data))
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, body, "uptime_seconds")
}

func TestServer_APIRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/messages/unread", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_UnreadMessagesEmpty(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodGet, "/api/messages/unread", "bob", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["message"])
}

func TestServer_RoomMessageFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/rooms/general/messages", "alice", map[string]string{
		"content": "hello room",
		"kind":    "text",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.request(t, http.MethodGet, "/api/rooms/general/messages", "bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	messages := body["data"].([]interface{})
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]interface{})
	assert.Equal(t, "hello room", msg["content"])
	assert.Equal(t, "general", msg["chatroomId"])

	resp = ts.request(t, http.MethodPost, "/api/rooms/general/read", "bob", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RoomMessageInvalidKind(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/rooms/general/messages", "alice", map[string]string{
		"content": "hello",
		"kind":    "sticker",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_FriendRequestFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.request(t, http.MethodPost, "/api/friend-requests", "alice", map[string]string{
		"receiverId":  "bob",
		"description": "we met at the conference",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	created := body["data"].(map[string]interface{})
	assert.Equal(t, "pending", created["status"])
	id := int64(created["id"].(float64))

	resp = ts.request(t, http.MethodPost, fmt.Sprintf("/api/friend-requests/%d/status", id), "bob", map[string]string{
		"status": "accepted",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body = decodeBody(t, resp)
	updated := body["data"].(map[string]interface{})
	assert.Equal(t, "accepted", updated["status"])
}

func TestServer_FriendRequestValidation(t *testing.T) {
	ts := newTestServer(t)

	// Description below the minimum length.
	resp := ts.request(t, http.MethodPost, "/api/friend-requests", "alice", map[string]string{
		"receiverId":  "bob",
		"description": "hi",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Responding to a request that does not exist.
	resp = ts.request(t, http.MethodPost, "/api/friend-requests/999/status", "bob", map[string]string{
		"status": "accepted",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Unknown status value.
	resp = ts.request(t, http.MethodPost, "/api/friend-requests/999/status", "bob", map[string]string{
		"status": "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Non-numeric request ID.
	resp = ts.request(t, http.MethodPost, "/api/friend-requests/abc/status", "bob", map[string]string{
		"status": "accepted",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
