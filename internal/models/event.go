package models

import (
	"encoding/json"
	"time"
)

// EventType identifies a wire event using a closed enum rather than free-form
// strings; unknown kinds are rejected at dispatch.
type EventType string

// Inbound events (client to server).
const (
	EventSendPrivateMessage EventType = "send_private_message"
	EventSendGroupMessage   EventType = "send_group_message"
	EventTypingStart        EventType = "typing_start"
	EventTypingStop         EventType = "typing_stop"
	EventJoinRoom           EventType = "join_room"
	EventLeaveRoom          EventType = "leave_room"
	EventMarkMessagesRead   EventType = "mark_messages_read"
)

// Outbound events (server to client).
const (
	EventNewPrivateMessage   EventType = "new_private_message"
	EventNewGroupMessage     EventType = "new_group_message"
	EventMessageSent         EventType = "message_sent"
	EventUserOnline          EventType = "user_online"
	EventUserOffline         EventType = "user_offline"
	EventQueuedNotifications EventType = "queued_notifications"
	EventTypingPrivate       EventType = "user_typing_private"
	EventTypingGroup         EventType = "user_typing_group"
	EventStoppedTypingPriv   EventType = "user_stopped_typing_private"
	EventStoppedTypingGroup  EventType = "user_stopped_typing_group"
	EventMessagesReadPrivate EventType = "messages_read_private"
	EventMessagesReadGroup   EventType = "messages_read_group"
	EventError               EventType = "error"
)

func (et EventType) String() string {
	return string(et)
}

// IsInbound reports whether the event type is one clients may send.
func (et EventType) IsInbound() bool {
	switch et {
	case EventSendPrivateMessage, EventSendGroupMessage, EventTypingStart,
		EventTypingStop, EventJoinRoom, EventLeaveRoom, EventMarkMessagesRead:
		return true
	}
	return false
}

// Event is the JSON envelope exchanged over the socket.
type Event struct {
	Type EventType       `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals payload into an outbound envelope. Marshaling failures
// are programming errors on our own payload types, so they surface as a nil
// Data rather than an error return.
func NewEvent(t EventType, payload any) *Event {
	data, err := json.Marshal(payload)
	if err != nil {
		return &Event{Type: t}
	}
	return &Event{Type: t, Data: data}
}

// Encode serializes the envelope for the wire.
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Inbound payloads.

type SendPrivateMessagePayload struct {
	ChatID      string      `json:"chatId" validate:"required"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"messageType"`
	FileURL     string      `json:"fileUrl,omitempty"`
}

type SendGroupMessagePayload struct {
	GroupID     string      `json:"groupId" validate:"required"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"messageType"`
	FileURL     string      `json:"fileUrl,omitempty"`
}

type TypingPayload struct {
	ChatID  string `json:"chatId" validate:"required"`
	IsGroup bool   `json:"isGroup"`
}

type RoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

type MarkReadPayload struct {
	ChatID  string `json:"chatId" validate:"required"`
	IsGroup bool   `json:"isGroup"`
}

// Outbound payloads.

type PresencePayload struct {
	UserID   string     `json:"userId"`
	Username string     `json:"username"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type QueuedNotificationsPayload struct {
	Count         int            `json:"count"`
	Notifications []Notification `json:"notifications"`
}

type TypingEventPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	ChatID   string `json:"chatId"`
}

type MessagesReadPayload struct {
	UserID string `json:"userId"`
	ChatID string `json:"chatId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
