package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"chatgate/internal/auth"
	apperrors "chatgate/internal/errors"
	"chatgate/internal/gateway"
	"chatgate/internal/metrics"
	"chatgate/internal/models"
	"chatgate/internal/service"
)

type contextKey string

const userIDKey contextKey = "userID"

type Server struct {
	router  *mux.Router
	logger  *logrus.Logger
	chat    *service.ChatService
	friends *service.FriendService
	gateway *gateway.Gateway
	auth    *auth.Authenticator
	metrics *metrics.Registry
	cfg     models.ServerConfig
	server  *http.Server
}

func NewServer(cfg models.ServerConfig, chat *service.ChatService, friends *service.FriendService, gw *gateway.Gateway, authenticator *auth.Authenticator, metricsReg *metrics.Registry, logger *logrus.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		logger:  logger,
		chat:    chat,
		friends: friends,
		gateway: gw,
		auth:    authenticator,
		metrics: metricsReg,
		cfg:     cfg,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	// Websocket endpoint authenticates inside the handshake.
	s.router.HandleFunc("/ws", s.gateway.HandleWS).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/messages/unread", s.handleUnreadMessages()).Methods(http.MethodGet)
	api.HandleFunc("/messages/read", s.handleMarkReadForUser()).Methods(http.MethodPost)
	api.HandleFunc("/messages/{messageID}/read", s.handleMarkRead()).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{roomID}/messages", s.handleRoomMessages()).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{roomID}/messages", s.handleSendRoomMessage()).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{roomID}/read", s.handleMarkReadForRoom()).Methods(http.MethodPost)
	api.HandleFunc("/friend-requests", s.handleCreateFriendRequest()).Methods(http.MethodPost)
	api.HandleFunc("/friend-requests/{id}/status", s.handleRespondFriendRequest()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		userID, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestUser(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// Handler implementations

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			s.logger.WithError(err).Debug("Failed to write health response")
		}
	}
}

func (s *Server) handleUnreadMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := s.chat.UnreadForUser(r.Context(), requestUser(r))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, messages)
	}
}

func (s *Server) handleMarkReadForUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.chat.MarkReadForUser(r.Context(), requestUser(r)); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, nil)
	}
}

func (s *Server) handleMarkRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID := mux.Vars(r)["messageID"]
		if err := s.chat.MarkRead(r.Context(), messageID); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, nil)
	}
}

func (s *Server) handleRoomMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := s.chat.RoomMessages(r.Context(), mux.Vars(r)["roomID"])
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, messages)
	}
}

func (s *Server) handleSendRoomMessage() http.HandlerFunc {
	type request struct {
		Content string             `json:"content"`
		Kind    models.MessageKind `json:"kind"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "malformed request body").
				WithUserMessage("malformed request body"))
			return
		}
		msg, err := s.chat.SendRoomMessage(r.Context(), requestUser(r), mux.Vars(r)["roomID"], req.Content, req.Kind)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, msg)
	}
}

func (s *Server) handleMarkReadForRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.chat.MarkReadForRoom(r.Context(), mux.Vars(r)["roomID"]); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, nil)
	}
}

func (s *Server) handleCreateFriendRequest() http.HandlerFunc {
	type request struct {
		ReceiverID  string `json:"receiverId"`
		Description string `json:"description"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "malformed request body").
				WithUserMessage("malformed request body"))
			return
		}
		created, err := s.friends.SendFriendRequest(r.Context(), requestUser(r), req.ReceiverID, req.Description)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) handleRespondFriendRequest() http.HandlerFunc {
	type request struct {
		Status models.FriendRequestStatus `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid friend request ID").
				WithUserMessage("invalid friend request ID"))
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "malformed request body").
				WithUserMessage("malformed request body"))
			return
		}
		updated, err := s.friends.RespondFriendRequest(r.Context(), id, req.Status)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, updated)
	}
}

type responseBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(responseBody{Code: status, Message: "ok", Data: data}); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForCode(apperrors.GetCode(err))
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := responseBody{Code: status, Message: apperrors.GetUserMessage(err)}
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		s.logger.WithError(encodeErr).Error("Failed to encode error response")
	}
}

func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeAuthentication:
		return http.StatusUnauthorized
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvariantViolation:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
