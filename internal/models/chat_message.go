package models

import "time"

// ChatMessage is a persisted chat message. Rows are append-only: they are never
// updated or deleted once written.
type ChatMessage struct {
	// ID is assigned by the database and grows with every insert, which makes it
	// the tie-breaker for messages written within the same timestamp.
	ID uint `gorm:"primaryKey" json:"id"`
	// Room is the storage key derived from Sender and Receiver (see RoomFor).
	Room string `gorm:"type:varchar(140);not null;index:idx_chat_room_id,priority:1" json:"room"`
	// Sender is the username of the author.
	Sender string `gorm:"type:varchar(64);not null;index" json:"sender"`
	// Receiver is a username, or GlobalReceiver for the global room.
	Receiver string `gorm:"type:varchar(64);not null;index" json:"receiver"`
	// Message is the body as submitted by the client.
	Message string `gorm:"type:text;not null" json:"message"`
	// Timestamp is the server-side creation time.
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

// TableName keeps the collection name used by the web app.
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Contact is one entry of a user's recent-contacts panel.
type Contact struct {
	Contact     string    `json:"contact"`
	LastMessage string    `json:"lastMessage"`
	Timestamp   time.Time `json:"timestamp"`
}

// Page selects a slice of a room's history, newest first.
type Page struct {
	// Limit is the maximum number of rows; zero means the default page size.
	Limit int
	// Before restricts the page to messages older than this message ID.
	Before uint
}
