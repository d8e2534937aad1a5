package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles known to the ChessHive account system.
const (
	RolePlayer      = "player"
	RoleCoordinator = "coordinator"
	RoleOrganizer   = "organizer"
	RoleAdmin       = "admin"
)

// User is a registered account as seen by the chat directory.
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Role      string    `gorm:"type:varchar(32);index;not null" json:"role"`
	CreatedAt time.Time `json:"-"`
}

// BeforeCreate generates a UUID for users created without an ID.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// UserFilter narrows a directory search.
type UserFilter struct {
	// Role matches case-insensitively; empty matches every role.
	Role string
	// Query is a case-insensitive username substring; empty matches everything.
	Query string
	// Limit bounds the result set.
	Limit int
}

// IsKnownRole reports whether role is one of the account roles.
func IsKnownRole(role string) bool {
	switch role {
	case RolePlayer, RoleCoordinator, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}
