package models

import (
	"time"
)

// MessageType is the content flavor of a chat message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

func (mt MessageType) IsValid() bool {
	switch mt {
	case MessageText, MessageImage, MessageFile:
		return true
	}
	return false
}

// Message is immutable once created; the only permitted mutation is appending
// to ReadBy. Exactly one of PrivateChatID/GroupChatID is set.
type Message struct {
	ID            string      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	SenderID      string      `gorm:"type:uuid;not null;index" json:"senderId"`
	Content       string      `gorm:"type:text" json:"content"`
	MessageType   MessageType `gorm:"type:varchar(16);default:text" json:"messageType"`
	FileURL       string      `gorm:"type:varchar(512)" json:"fileUrl,omitempty"`
	PrivateChatID *string     `gorm:"type:uuid;index" json:"privateChatId,omitempty"`
	GroupChatID   *string     `gorm:"type:uuid;index" json:"groupChatId,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`

	ReadBy []*User `gorm:"many2many:message_read_by" json:"-"`
}

// TargetKind reports which room flavor the message belongs to.
func (m *Message) TargetKind() TargetKind {
	if m.GroupChatID != nil {
		return TargetGroup
	}
	return TargetPrivate
}

// TargetID returns the chat or group identifier, which doubles as the room
// name for fan-out.
func (m *Message) TargetID() string {
	if m.GroupChatID != nil {
		return *m.GroupChatID
	}
	if m.PrivateChatID != nil {
		return *m.PrivateChatID
	}
	return ""
}

// MessagePayload is the sender-enriched message shape sent over the wire.
type MessagePayload struct {
	ID          string      `json:"id"`
	Sender      UserRef     `json:"sender"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"messageType"`
	FileURL     string      `json:"fileUrl,omitempty"`
	ChatID      string      `json:"chatId"`
	IsGroup     bool        `json:"isGroup"`
	ReadBy      []string    `json:"readBy"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (m *Message) Payload(sender UserRef) *MessagePayload {
	readBy := make([]string, 0, len(m.ReadBy))
	for _, u := range m.ReadBy {
		readBy = append(readBy, u.ID)
	}
	return &MessagePayload{
		ID:          m.ID,
		Sender:      sender,
		Content:     m.Content,
		MessageType: m.MessageType,
		FileURL:     m.FileURL,
		ChatID:      m.TargetID(),
		IsGroup:     m.GroupChatID != nil,
		ReadBy:      readBy,
		CreatedAt:   m.CreatedAt,
	}
}
