package repository

import (
	"context"
	"time"

	"chat-realtime/internal/models"

	"gorm.io/gorm"
)

type ChatRepository interface {
	FindPrivateChatByID(ctx context.Context, id string) (*models.PrivateChat, error)
	FindGroupChatByID(ctx context.Context, id string) (*models.GroupChat, error)
	MembershipSnapshot(ctx context.Context, userID string) (*models.MembershipSnapshot, error)
	SetLatestMessage(ctx context.Context, kind models.TargetKind, targetID, messageID string) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) FindPrivateChatByID(ctx context.Context, id string) (*models.PrivateChat, error) {
	var chat models.PrivateChat
	err := r.db.WithContext(ctx).Preload("Participants").First(&chat, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) FindGroupChatByID(ctx context.Context, id string) (*models.GroupChat, error) {
	var group models.GroupChat
	err := r.db.WithContext(ctx).Preload("Members").First(&group, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// MembershipSnapshot loads every private chat and group the user belongs to
// in one pass, reduced to ID-only projections.
func (r *chatRepository) MembershipSnapshot(ctx context.Context, userID string) (*models.MembershipSnapshot, error) {
	var chats []models.PrivateChat
	err := r.db.WithContext(ctx).
		Joins("JOIN private_chat_participants pcp ON pcp.private_chat_id = private_chats.id").
		Where("pcp.user_id = ?", userID).
		Preload("Participants").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	var groups []models.GroupChat
	err = r.db.WithContext(ctx).
		Joins("JOIN group_chat_members gcm ON gcm.group_chat_id = group_chats.id").
		Where("gcm.user_id = ?", userID).
		Preload("Members").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}

	snap := &models.MembershipSnapshot{
		UserID:       userID,
		PrivateChats: make([]models.ChatMembership, 0, len(chats)),
		GroupChats:   make([]models.GroupMembership, 0, len(groups)),
		FetchedAt:    time.Now(),
	}

	for _, chat := range chats {
		m := models.ChatMembership{ChatID: chat.ID, ParticipantIDs: make([]string, 0, len(chat.Participants))}
		for _, p := range chat.Participants {
			m.ParticipantIDs = append(m.ParticipantIDs, p.ID)
		}
		snap.PrivateChats = append(snap.PrivateChats, m)
	}

	for _, group := range groups {
		m := models.GroupMembership{GroupID: group.ID, MemberIDs: make([]string, 0, len(group.Members))}
		for _, u := range group.Members {
			m.MemberIDs = append(m.MemberIDs, u.ID)
		}
		snap.GroupChats = append(snap.GroupChats, m)
	}

	return snap, nil
}

func (r *chatRepository) SetLatestMessage(ctx context.Context, kind models.TargetKind, targetID, messageID string) error {
	model := any(&models.PrivateChat{})
	if kind == models.TargetGroup {
		model = &models.GroupChat{}
	}
	return r.db.WithContext(ctx).
		Model(model).
		Where("id = ?", targetID).
		Update("latest_message_id", messageID).Error
}
