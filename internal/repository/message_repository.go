package repository

import (
	"context"

	"chat-realtime/internal/models"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	AppendReadBy(ctx context.Context, kind models.TargetKind, targetID, userID string) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	// Association rows for ReadBy are inserted with ON CONFLICT DO NOTHING,
	// so seeding readBy with the sender never upserts the user row itself.
	return r.db.WithContext(ctx).Omit("ReadBy.*").Create(message).Error
}

// AppendReadBy marks every message in the chat/group not yet read by userID
// as read by them. Historical message rows are never touched beyond the
// read_by join table.
func (r *messageRepository) AppendReadBy(ctx context.Context, kind models.TargetKind, targetID, userID string) error {
	column := "private_chat_id"
	if kind == models.TargetGroup {
		column = "group_chat_id"
	}

	return r.db.WithContext(ctx).Exec(`
		INSERT INTO message_read_by (message_id, user_id)
		SELECT m.id, ? FROM messages m
		WHERE m.`+column+` = ?
		  AND NOT EXISTS (
			SELECT 1 FROM message_read_by r
			WHERE r.message_id = m.id AND r.user_id = ?
		  )
		ON CONFLICT DO NOTHING`,
		userID, targetID, userID).Error
}
