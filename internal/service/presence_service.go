package service

import (
	"context"
	"log/slog"
	"time"

	"chat-realtime/internal/models"
	"chat-realtime/internal/repository"
)

// Presence broadcasts online/offline transitions to a user's direct
// connections and flushes queued notifications on connect.
type Presence struct {
	users         repository.UserRepository
	presence      repository.PresenceRepository
	notifications repository.NotificationRepository
	registry      LivenessChecker
	broadcaster   Broadcaster
}

func NewPresence(
	users repository.UserRepository,
	presence repository.PresenceRepository,
	notifications repository.NotificationRepository,
	registry LivenessChecker,
	broadcaster Broadcaster,
) *Presence {
	return &Presence{
		users:         users,
		presence:      presence,
		notifications: notifications,
		registry:      registry,
		broadcaster:   broadcaster,
	}
}

// AnnounceOnline marks the user online and notifies their direct connections.
// Status writes are best-effort: presence must keep working through a
// repository hiccup.
func (s *Presence) AnnounceOnline(ctx context.Context, userID, username string, directConnectionIDs []string) {
	now := time.Now()
	if err := s.users.UpdateStatus(ctx, userID, models.StatusOnline, now); err != nil {
		slog.Error("Failed to persist online status", "userID", userID, "error", err)
	}
	if err := s.presence.SetOnline(ctx, userID); err != nil {
		slog.Error("Failed to set presence key", "userID", userID, "error", err)
	}

	payload := models.PresencePayload{UserID: userID, Username: username}
	for _, id := range directConnectionIDs {
		s.broadcaster.EmitToUser(id, models.EventUserOnline, payload)
	}
}

// AnnounceOffline notifies the direct connections captured at admission time;
// nothing is re-fetched so teardown tolerates repository unavailability.
func (s *Presence) AnnounceOffline(ctx context.Context, userID, username string, directConnectionIDs []string, lastSeen time.Time) {
	if err := s.users.UpdateStatus(ctx, userID, models.StatusOffline, lastSeen); err != nil {
		slog.Error("Failed to persist offline status", "userID", userID, "error", err)
	}
	if err := s.presence.SetOffline(ctx, userID); err != nil {
		slog.Error("Failed to set presence key", "userID", userID, "error", err)
	}

	payload := models.PresencePayload{UserID: userID, Username: username, LastSeen: &lastSeen}
	for _, id := range directConnectionIDs {
		s.broadcaster.EmitToUser(id, models.EventUserOffline, payload)
	}
}

// FlushQueued delivers every notification the user missed while offline as a
// single batch, marking them read in the same drain. Must run after registry
// admission so any follow-up fan-out sees the user as reachable.
func (s *Presence) FlushQueued(ctx context.Context, userID string) error {
	notifications, err := s.notifications.Drain(ctx, userID)
	if err != nil {
		slog.Error("Failed to drain notifications", "userID", userID, "error", err)
		return ErrRepositoryUnavailable
	}
	if len(notifications) == 0 {
		return nil
	}

	s.broadcaster.EmitToUser(userID, models.EventQueuedNotifications, models.QueuedNotificationsPayload{
		Count:         len(notifications),
		Notifications: notifications,
	})
	return nil
}

// Status reports a user's presence: the registry answers for connections this
// process owns, the presence store for everyone else.
func (s *Presence) Status(ctx context.Context, userID string) (string, error) {
	if s.registry.IsLive(userID) {
		return models.StatusOnline, nil
	}
	status, err := s.presence.Status(ctx, userID)
	if err != nil {
		return "", ErrRepositoryUnavailable
	}
	return status, nil
}
