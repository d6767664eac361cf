package models

import (
	"time"
)

// NotificationType is the reason a pending notification exists.
type NotificationType string

const (
	NotificationMessage           NotificationType = "message"
	NotificationConnectionRequest NotificationType = "connection_request"
)

// Notification is a durable marker that a recipient missed a real-time
// delivery. Created when the recipient has no live connection at fan-out
// time; delivered and marked read in one batch on their next connect.
type Notification struct {
	ID          string           `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	RecipientID string           `gorm:"type:uuid;not null;index:idx_notifications_recipient_unread" json:"recipientId"`
	Type        NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	SenderID    string           `gorm:"type:uuid;not null" json:"senderId"`
	MessageID   *string          `gorm:"type:uuid" json:"messageId,omitempty"`
	ChatID      string           `gorm:"type:uuid" json:"chatId,omitempty"`
	IsGroup     bool             `json:"isGroup"`
	IsRead      bool             `gorm:"default:false;index:idx_notifications_recipient_unread" json:"isRead"`
	CreatedAt   time.Time        `json:"createdAt"`
}
