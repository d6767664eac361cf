// Package service implements the delivery-layer logic: message relay,
// presence announcements, offline notification flushing, and ephemeral
// signals. Services depend on narrow interfaces so tests can run against
// in-memory fakes.
package service

import (
	"context"
	"errors"

	"chat-realtime/internal/models"
)

var (
	ErrUnauthorized          = errors.New("not a participant of the target chat")
	ErrInvalidMessage        = errors.New("message has no content or attachment")
	ErrRepositoryUnavailable = errors.New("repository unavailable")
	ErrNotFound              = errors.New("chat or group not found")
)

// Broadcaster fans events out to live connections. Implemented by the
// websocket hub; delivery to an unreachable client is a silent no-op.
type Broadcaster interface {
	EmitToRoom(roomID, excludeUserID string, event models.EventType, payload any)
	EmitToUser(userID string, event models.EventType, payload any)
}

// LivenessChecker reports whether a user holds a live connection right now.
// Implemented by the connection registry.
type LivenessChecker interface {
	IsLive(userID string) bool
}

// MembershipResolver yields the cached chats/groups a user belongs to.
// Implemented by the membership cache.
type MembershipResolver interface {
	GetOrRefresh(ctx context.Context, userID string) (*models.MembershipSnapshot, error)
	Invalidate(userID string)
}
