package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"chat-realtime/internal/models"
)

var (
	ErrClientDisconnected = errors.New("client disconnected")
)

// Hub coordinates room membership and event fan-out for every live client in
// this process. Room names follow the persisted identifiers: one room per
// chat, per group, and per user (the personal room, used for direct
// addressing of presence events and delivery confirmations).
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Room subscriptions, roomID -> clients
	rooms map[string]map[*Client]bool

	// Unregister requests from clients
	unregister chan *Client

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		unregister: make(chan *Client, 16),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			slog.Info("WebSocket hub shutting down")
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

// Register admits the client under the hub lock and joins its personal room.
// Registration is synchronous: when it returns, an emit to the user's
// personal room reaches the client, so the connect sequence can flush queued
// notifications immediately. Teardown stays funneled through the run loop,
// which by then always observes a registered client.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	// Personal room, named by the user ID.
	h.joinLocked(client, client.userID)

	slog.Info("Client registered", "connectionID", client.connectionID, "userID", client.userID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for roomID, members := range h.rooms {
		if members[client] {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}

	client.stopSend()
	slog.Info("Client unregistered", "connectionID", client.connectionID, "userID", client.userID)
}

// JoinRoom subscribes the client to a room.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(client, roomID)
}

func (h *Hub) joinLocked(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
}

// LeaveRoom unsubscribes the client from a room.
func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// EmitToRoom fans an event out to every client in the room except
// excludeUserID (empty string excludes nobody). Delivery to a client whose
// connection has gone away is a no-op.
func (h *Hub) EmitToRoom(roomID, excludeUserID string, event models.EventType, payload any) {
	data, err := models.NewEvent(event, payload).Encode()
	if err != nil {
		slog.Error("Failed to encode event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for client := range h.rooms[roomID] {
		if excludeUserID != "" && client.userID == excludeUserID {
			continue
		}
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.enqueue(data); err != nil {
			slog.Debug("Dropping event for unreachable client",
				"connectionID", client.connectionID, "userID", client.userID, "event", event)
		}
	}
}

// EmitToUser delivers an event to the user's personal room.
func (h *Hub) EmitToUser(userID string, event models.EventType, payload any) {
	h.EmitToRoom(userID, "", event, payload)
}
