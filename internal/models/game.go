package models

import (
	"time"

	"gorm.io/datatypes"
)

// Game holds the latest known position of a one-on-one game room.
type Game struct {
	Room      string    `gorm:"type:varchar(140);primaryKey"`
	FEN       string    `gorm:"type:varchar(100)"`
	UpdatedAt time.Time
}

// GameMove is a single relayed move, stored as the JSON sent by the client.
type GameMove struct {
	ID        uint           `gorm:"primaryKey"`
	Room      string         `gorm:"type:varchar(140);not null;index"`
	Move      datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
}
