// Package events publishes chat lifecycle events to Kafka for downstream consumers
// such as moderation and notification services.
package events

import (
	"context"
	"time"

	"chesshive/backend/internal/models"
)

// TypeMessagePersisted is emitted after a chat message is written to history.
const TypeMessagePersisted = "chat.message.persisted"

// MessagePersisted is the payload of TypeMessagePersisted.
type MessagePersisted struct {
	Type      string    `json:"type"`
	ID        uint      `json:"id"`
	Room      string    `json:"room"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessagePersisted builds the event for a stored message.
func NewMessagePersisted(msg *models.ChatMessage) MessagePersisted {
	return MessagePersisted{
		Type:      TypeMessagePersisted,
		ID:        msg.ID,
		Room:      msg.Room,
		Sender:    msg.Sender,
		Receiver:  msg.Receiver,
		Message:   msg.Message,
		Timestamp: msg.Timestamp,
	}
}

type Publisher interface {
	PublishPersisted(ctx context.Context, msg *models.ChatMessage) error
	Close() error
}

// NopPublisher drops every event. It is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishPersisted(context.Context, *models.ChatMessage) error { return nil }
func (NopPublisher) Close() error                                                { return nil }
