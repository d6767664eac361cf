package repository

import (
	"context"

	"chat-realtime/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Enqueue(ctx context.Context, notification *models.Notification) error
	Drain(ctx context.Context, recipientID string) ([]models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Enqueue(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// Drain returns all unread notifications for the recipient ordered by
// creation time and marks them read in the same transaction. A crash between
// the select and the caller's delivery means redelivery on next connect;
// that at-least-once behavior is accepted.
func (r *notificationRepository) Drain(ctx context.Context, recipientID string) ([]models.Notification, error) {
	var notifications []models.Notification

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("recipient_id = ? AND is_read = ?", recipientID, false).
			Order("created_at asc").
			Find(&notifications).Error
		if err != nil {
			return err
		}
		if len(notifications) == 0 {
			return nil
		}

		ids := make([]string, 0, len(notifications))
		for _, n := range notifications {
			ids = append(ids, n.ID)
		}
		return tx.
			Model(&models.Notification{}).
			Where("id IN ?", ids).
			Update("is_read", true).Error
	})
	if err != nil {
		return nil, err
	}

	for i := range notifications {
		notifications[i].IsRead = true
	}
	return notifications, nil
}
