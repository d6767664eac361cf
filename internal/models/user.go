package models

import (
	"time"
)

// User presence status values.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type User struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;type:varchar(255)" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null;type:varchar(255)" json:"email"`
	Avatar    string    `gorm:"type:varchar(512)" json:"avatar,omitempty"`
	Status    string    `gorm:"type:varchar(16);default:offline" json:"status"`
	LastSeen  time.Time `json:"lastSeen"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Accepted connection requests; drives who receives presence events.
	Connections []*User `gorm:"many2many:user_connections;joinForeignKey:UserID;joinReferences:ConnectionID" json:"-"`
}

// UserRef is the sender shape embedded in outbound message events.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
