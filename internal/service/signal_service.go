package service

import (
	"context"
	"log/slog"

	"chat-realtime/internal/models"
	"chat-realtime/internal/repository"
)

// Signals broadcasts typing indicators and read receipts. Typing events are
// never persisted; receivers expire them after their own inactivity window.
type Signals struct {
	membership  MembershipResolver
	messages    repository.MessageRepository
	broadcaster Broadcaster
}

func NewSignals(membership MembershipResolver, messages repository.MessageRepository, broadcaster Broadcaster) *Signals {
	return &Signals{
		membership:  membership,
		messages:    messages,
		broadcaster: broadcaster,
	}
}

func (s *Signals) TypingStart(userID, username, chatID string, isGroup bool) {
	event := models.EventTypingPrivate
	if isGroup {
		event = models.EventTypingGroup
	}
	s.broadcaster.EmitToRoom(chatID, userID, event, models.TypingEventPayload{
		UserID:   userID,
		Username: username,
		ChatID:   chatID,
	})
}

func (s *Signals) TypingStop(userID, chatID string, isGroup bool) {
	event := models.EventStoppedTypingPriv
	if isGroup {
		event = models.EventStoppedTypingGroup
	}
	s.broadcaster.EmitToRoom(chatID, userID, event, models.TypingEventPayload{
		UserID: userID,
		ChatID: chatID,
	})
}

// MarkRead appends the user to readBy of every unread message in the chat,
// then broadcasts a read receipt to the room. Membership still gates the
// operation even though no message content is touched.
func (s *Signals) MarkRead(ctx context.Context, userID, chatID string, isGroup bool) error {
	kind := models.TargetPrivate
	if isGroup {
		kind = models.TargetGroup
	}

	snapshot, err := s.membership.GetOrRefresh(ctx, userID)
	if err != nil {
		slog.Error("Failed to resolve membership", "userID", userID, "error", err)
		return ErrRepositoryUnavailable
	}
	if _, ok := snapshot.Recipients(kind, chatID); !ok {
		return ErrUnauthorized
	}

	if err := s.messages.AppendReadBy(ctx, kind, chatID, userID); err != nil {
		slog.Error("Failed to mark messages read", "userID", userID, "chatID", chatID, "error", err)
		return ErrRepositoryUnavailable
	}

	event := models.EventMessagesReadPrivate
	if isGroup {
		event = models.EventMessagesReadGroup
	}
	s.broadcaster.EmitToRoom(chatID, userID, event, models.MessagesReadPayload{
		UserID: userID,
		ChatID: chatID,
	})
	return nil
}
