package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chesshive/backend/internal/events"
	"chesshive/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessagePersisted(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &models.ChatMessage{ID: 7, Room: "pm:alice:bob", Sender: "alice", Receiver: "bob", Message: "gg", Timestamp: ts}

	raw, err := json.Marshal(events.NewMessagePersisted(msg))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "chat.message.persisted",
		"id": 7,
		"room": "pm:alice:bob",
		"sender": "alice",
		"receiver": "bob",
		"message": "gg",
		"timestamp": "2025-03-01T12:00:00Z"
	}`, string(raw))
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}

	assert.NoError(t, p.PublishPersisted(context.Background(), &models.ChatMessage{}))
	assert.NoError(t, p.Close())
}
