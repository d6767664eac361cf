package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"chat-realtime/internal/models"
	"chat-realtime/internal/repository"
)

// Relay validates, persists, and fans out chat messages. For every accepted
// message the persist, fan-out, and offline-enqueue steps run exactly once
// and in that order; a message is never emitted before it is durable.
type Relay struct {
	membership    MembershipResolver
	registry      LivenessChecker
	broadcaster   Broadcaster
	users         repository.UserRepository
	chats         repository.ChatRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
}

func NewRelay(
	membership MembershipResolver,
	registry LivenessChecker,
	broadcaster Broadcaster,
	users repository.UserRepository,
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	notifications repository.NotificationRepository,
) *Relay {
	return &Relay{
		membership:    membership,
		registry:      registry,
		broadcaster:   broadcaster,
		users:         users,
		chats:         chats,
		messages:      messages,
		notifications: notifications,
	}
}

// Send relays one message to the target chat or group. Authorization is
// always re-checked against live membership, never a caller-supplied flag.
func (s *Relay) Send(
	ctx context.Context,
	senderID string,
	kind models.TargetKind,
	targetID, content string,
	messageType models.MessageType,
	fileURL string,
) (*models.MessagePayload, error) {
	recipients, err := s.authorize(ctx, senderID, kind, targetID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" && fileURL == "" {
		return nil, ErrInvalidMessage
	}
	if messageType == "" {
		messageType = models.MessageText
	}
	if !messageType.IsValid() {
		return nil, ErrInvalidMessage
	}

	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		slog.Error("Failed to resolve sender", "senderID", senderID, "error", err)
		return nil, ErrRepositoryUnavailable
	}

	message := &models.Message{
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
		FileURL:     fileURL,
		ReadBy:      []*models.User{{ID: senderID}},
	}
	if kind == models.TargetGroup {
		message.GroupChatID = &targetID
	} else {
		message.PrivateChatID = &targetID
	}

	if err := s.messages.Create(ctx, message); err != nil {
		slog.Error("Failed to persist message", "senderID", senderID, "targetID", targetID, "error", err)
		return nil, ErrRepositoryUnavailable
	}

	// Latest-message pointer is fire-and-forget: a failure is logged but
	// never fails the send.
	go s.updateLatestMessage(kind, targetID, message.ID)

	payload := message.Payload(sender.Ref())

	roomEvent := models.EventNewPrivateMessage
	if kind == models.TargetGroup {
		roomEvent = models.EventNewGroupMessage
	}
	s.broadcaster.EmitToRoom(targetID, senderID, roomEvent, payload)
	s.broadcaster.EmitToUser(senderID, models.EventMessageSent, payload)

	s.enqueueOffline(ctx, senderID, kind, targetID, message.ID, recipients)

	return payload, nil
}

// authorize resolves the sender's membership snapshot and locates the target,
// forcing one cache refresh before giving up.
func (s *Relay) authorize(ctx context.Context, senderID string, kind models.TargetKind, targetID string) ([]string, error) {
	snapshot, err := s.membership.GetOrRefresh(ctx, senderID)
	if err != nil {
		slog.Error("Failed to resolve membership", "senderID", senderID, "error", err)
		return nil, ErrRepositoryUnavailable
	}

	recipients, ok := snapshot.Recipients(kind, targetID)
	if !ok {
		s.membership.Invalidate(senderID)
		snapshot, err = s.membership.GetOrRefresh(ctx, senderID)
		if err != nil {
			slog.Error("Failed to refresh membership", "senderID", senderID, "error", err)
			return nil, ErrRepositoryUnavailable
		}
		recipients, ok = snapshot.Recipients(kind, targetID)
		if !ok {
			return nil, ErrUnauthorized
		}
	}

	for _, id := range recipients {
		if id == senderID {
			return recipients, nil
		}
	}
	return nil, ErrUnauthorized
}

func (s *Relay) updateLatestMessage(kind models.TargetKind, targetID, messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.chats.SetLatestMessage(ctx, kind, targetID, messageID); err != nil {
		slog.Error("Failed to update latest message pointer",
			"targetID", targetID, "messageID", messageID, "error", err)
	}
}

// enqueueOffline records a pending notification for every recipient other
// than the sender who has no live connection at fan-out time.
func (s *Relay) enqueueOffline(ctx context.Context, senderID string, kind models.TargetKind, targetID, messageID string, recipients []string) {
	isGroup := kind == models.TargetGroup

	for _, recipientID := range recipients {
		if recipientID == senderID || s.registry.IsLive(recipientID) {
			continue
		}

		notification := &models.Notification{
			RecipientID: recipientID,
			Type:        models.NotificationMessage,
			SenderID:    senderID,
			MessageID:   &messageID,
			ChatID:      targetID,
			IsGroup:     isGroup,
		}
		if err := s.notifications.Enqueue(ctx, notification); err != nil {
			// The message itself is already durable and delivered to live
			// members; a lost marker is logged, not fatal.
			slog.Error("Failed to enqueue offline notification",
				"recipientID", recipientID, "messageID", messageID, "error", err)
		}
	}
}
