package models

import (
	"time"
)

// TargetKind discriminates the two room flavors a message can address.
type TargetKind string

const (
	TargetPrivate TargetKind = "private"
	TargetGroup   TargetKind = "group"
)

// PrivateChat is a two-party conversation. Exactly two participants; the
// invariant is enforced by the HTTP layer that creates chats, not here.
type PrivateChat struct {
	ID              string    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	LatestMessageID *string   `gorm:"type:uuid" json:"latestMessageId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Participants []*User `gorm:"many2many:private_chat_participants" json:"-"`
}

type GroupChat struct {
	ID              string    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Name            string    `gorm:"not null;type:varchar(255)" json:"name"`
	Image           string    `gorm:"type:varchar(512)" json:"image,omitempty"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	LatestMessageID *string   `gorm:"type:uuid" json:"latestMessageId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Members []*User `gorm:"many2many:group_chat_members" json:"-"`
	Admins  []*User `gorm:"many2many:group_chat_admins" json:"-"`
}

// ChatMembership is the ID-only projection of one private chat held in a
// membership snapshot.
type ChatMembership struct {
	ChatID         string
	ParticipantIDs []string
}

// GroupMembership is the ID-only projection of one group chat held in a
// membership snapshot.
type GroupMembership struct {
	GroupID   string
	MemberIDs []string
}

// MembershipSnapshot lists every chat and group a user belongs to, fetched in
// one pass so authorization checks are pure lookups until the snapshot ages
// out.
type MembershipSnapshot struct {
	UserID       string
	PrivateChats []ChatMembership
	GroupChats   []GroupMembership
	FetchedAt    time.Time
}

func (s *MembershipSnapshot) Chat(chatID string) (ChatMembership, bool) {
	for _, c := range s.PrivateChats {
		if c.ChatID == chatID {
			return c, true
		}
	}
	return ChatMembership{}, false
}

func (s *MembershipSnapshot) Group(groupID string) (GroupMembership, bool) {
	for _, g := range s.GroupChats {
		if g.GroupID == groupID {
			return g, true
		}
	}
	return GroupMembership{}, false
}

// Recipients returns the participant or member set of the given target,
// reporting whether the target exists in the snapshot at all.
func (s *MembershipSnapshot) Recipients(kind TargetKind, targetID string) ([]string, bool) {
	if kind == TargetGroup {
		g, ok := s.Group(targetID)
		return g.MemberIDs, ok
	}
	c, ok := s.Chat(targetID)
	return c.ParticipantIDs, ok
}

// RoomIDs returns every room the user should join on connect: one per chat
// and one per group, named by the persisted identifier.
func (s *MembershipSnapshot) RoomIDs() []string {
	rooms := make([]string, 0, len(s.PrivateChats)+len(s.GroupChats))
	for _, c := range s.PrivateChats {
		rooms = append(rooms, c.ChatID)
	}
	for _, g := range s.GroupChats {
		rooms = append(rooms, g.GroupID)
	}
	return rooms
}
