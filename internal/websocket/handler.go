package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chat-realtime/internal/models"
	"chat-realtime/internal/repository"
	"chat-realtime/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the reverse proxy in front of us.
		return true
	},
}

// MessageRelay is the relay surface the handler needs.
type MessageRelay interface {
	Send(ctx context.Context, senderID string, kind models.TargetKind, targetID, content string, messageType models.MessageType, fileURL string) (*models.MessagePayload, error)
}

// PresenceNotifier announces presence transitions and flushes queued
// notifications.
type PresenceNotifier interface {
	AnnounceOnline(ctx context.Context, userID, username string, directConnectionIDs []string)
	AnnounceOffline(ctx context.Context, userID, username string, directConnectionIDs []string, lastSeen time.Time)
	FlushQueued(ctx context.Context, userID string) error
}

// SignalBroadcaster emits typing indicators and read receipts.
type SignalBroadcaster interface {
	TypingStart(userID, username, chatID string, isGroup bool)
	TypingStop(userID, chatID string, isGroup bool)
	MarkRead(ctx context.Context, userID, chatID string, isGroup bool) error
}

type eventHandlerFunc func(ctx context.Context, c *Client, data json.RawMessage) error

// route pairs an event handler with the generic failure message sent when
// the handler returns an error outside the known taxonomy.
type route struct {
	handle      eventHandlerFunc
	failMessage string
}

// SessionHandler owns the lifecycle of authenticated socket sessions: the
// connect sequence, inbound event dispatch, and teardown. The event set is
// closed; unknown kinds are rejected instead of silently ignored.
type SessionHandler struct {
	hub        *Hub
	registry   *Registry
	relay      MessageRelay
	presence   PresenceNotifier
	signals    SignalBroadcaster
	membership service.MembershipResolver
	users      repository.UserRepository
	validate   *validator.Validate
	timeout    time.Duration

	routes map[models.EventType]route
}

func NewSessionHandler(
	hub *Hub,
	registry *Registry,
	relay MessageRelay,
	presence PresenceNotifier,
	signals SignalBroadcaster,
	membership service.MembershipResolver,
	users repository.UserRepository,
	timeout time.Duration,
) *SessionHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	h := &SessionHandler{
		hub:        hub,
		registry:   registry,
		relay:      relay,
		presence:   presence,
		signals:    signals,
		membership: membership,
		users:      users,
		validate:   validator.New(),
		timeout:    timeout,
	}

	h.routes = map[models.EventType]route{
		models.EventSendPrivateMessage: {h.handleSendPrivateMessage, "Failed to send message"},
		models.EventSendGroupMessage:   {h.handleSendGroupMessage, "Failed to send message"},
		models.EventTypingStart:        {h.handleTypingStart, "Failed to broadcast typing"},
		models.EventTypingStop:         {h.handleTypingStop, "Failed to broadcast typing"},
		models.EventJoinRoom:           {h.handleJoinRoom, "Failed to join room"},
		models.EventLeaveRoom:          {h.handleLeaveRoom, "Failed to leave room"},
		models.EventMarkMessagesRead:   {h.handleMarkMessagesRead, "Failed to mark messages as read"},
	}

	return h
}

// ServeWS upgrades the request and runs the connect sequence. The identity
// arrives verified from the auth middleware.
func (h *SessionHandler) ServeWS(w http.ResponseWriter, r *http.Request, userID, username string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "userID", userID, "error", err)
		return
	}

	client := newClient(h.hub, h, conn, uuid.New().String(), userID, username)
	slog.Info("WebSocket connection established", "connectionID", client.connectionID, "userID", userID)

	if err := h.connect(client); err != nil {
		slog.Error("Refusing connection: membership hydration failed", "userID", userID, "error", err)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// connect runs the admission sequence: hydrate membership, admit to the
// registry, join rooms, announce online, flush queued notifications.
// Hydration failure refuses the session outright: admitting a user who
// joined no rooms would mark them live while delivering nothing to them.
// Registration and room joins are synchronous, so the queued batch emitted
// at the end already has its target in the personal room.
func (h *SessionHandler) connect(client *Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	snapshot, err := h.membership.GetOrRefresh(ctx, client.userID)
	if err != nil {
		return err
	}

	directConnectionIDs, err := h.users.DirectConnectionIDs(ctx, client.userID)
	if err != nil {
		slog.Error("Failed to resolve direct connections", "userID", client.userID, "error", err)
	}

	h.registry.Admit(client.userID, client.connectionID, client.username, directConnectionIDs)
	h.hub.Register(client)

	for _, roomID := range snapshot.RoomIDs() {
		h.hub.JoinRoom(client, roomID)
	}

	h.presence.AnnounceOnline(ctx, client.userID, client.username, directConnectionIDs)

	if err := h.presence.FlushQueued(ctx, client.userID); err != nil {
		slog.Error("Failed to flush queued notifications", "userID", client.userID, "error", err)
	}
	return nil
}

// disconnect tears a session down. A connection superseded by a newer one
// for the same user must not evict the fresh registry entry.
func (h *SessionHandler) disconnect(c *Client) {
	h.hub.unregister <- c

	current := h.registry.Lookup(c.userID)
	if current == nil || current.ConnectionID != c.connectionID {
		return
	}

	evicted := h.registry.Evict(c.userID)
	if evicted == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.presence.AnnounceOffline(ctx, evicted.UserID, evicted.Username, evicted.DirectConnectionIDs, time.Now())
}

// dispatch routes one inbound event. Every failure is converted to an error
// event; the connection always stays open.
func (h *SessionHandler) dispatch(c *Client, event *models.Event) {
	rt, ok := h.routes[event.Type]
	if !ok {
		c.sendError("unknown event: " + event.Type.String())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := rt.handle(ctx, c, event.Data); err != nil {
		c.sendError(h.errorMessage(err, rt.failMessage))
	}
}

func (h *SessionHandler) errorMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, service.ErrInvalidMessage):
		return "Message must have content or a file"
	case errors.Is(err, service.ErrNotFound):
		return "Chat not found"
	case errors.Is(err, errInvalidPayload):
		return "Invalid payload"
	default:
		return fallback
	}
}

var errInvalidPayload = errors.New("invalid payload")

// decode unmarshals and validates an inbound payload.
func (h *SessionHandler) decode(data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errInvalidPayload
	}
	if err := h.validate.Struct(v); err != nil {
		return errInvalidPayload
	}
	return nil
}

func (h *SessionHandler) handleSendPrivateMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	var p models.SendPrivateMessagePayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	_, err := h.relay.Send(ctx, c.userID, models.TargetPrivate, p.ChatID, p.Content, p.MessageType, p.FileURL)
	return err
}

func (h *SessionHandler) handleSendGroupMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	var p models.SendGroupMessagePayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	_, err := h.relay.Send(ctx, c.userID, models.TargetGroup, p.GroupID, p.Content, p.MessageType, p.FileURL)
	return err
}

func (h *SessionHandler) handleTypingStart(ctx context.Context, c *Client, data json.RawMessage) error {
	var p models.TypingPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	h.signals.TypingStart(c.userID, c.username, p.ChatID, p.IsGroup)
	return nil
}

func (h *SessionHandler) handleTypingStop(ctx context.Context, c *Client, data json.RawMessage) error {
	var p models.TypingPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	h.signals.TypingStop(c.userID, p.ChatID, p.IsGroup)
	return nil
}

func (h *SessionHandler) handleJoinRoom(ctx context.Context, c *Client, data json.RawMessage) error {
	var p models.RoomPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	h.hub.JoinRoom(c, p.RoomID)
	return nil
}

func (h *SessionHandler) handleLeaveRoom(ctx context.Context, c *Client, data json.RawMessage) error {
	var p models.RoomPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	h.hub.LeaveRoom(c, p.RoomID)
	return nil
}

func (h *SessionHandler) handleMarkMessagesRead(ctx context.Context, c *Client, data json.RawMessage) error {
	var p models.MarkReadPayload
	if err := h.decode(data, &p); err != nil {
		return err
	}
	return h.signals.MarkRead(ctx, c.userID, p.ChatID, p.IsGroup)
}
