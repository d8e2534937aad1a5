package main

import (
	"context"
	"testing"

	"chesshive/backend/internal/models"
	"chesshive/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStorage(t *testing.T) *storage.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, storage.Migrate(db))
	return storage.NewStorageService(db, nil, storage.Options{})
}

func TestAddUser_CreatesThenUpdates(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, addUser(ctx, s, "alice", "player", "alice@example.com"))
	require.NoError(t, addUser(ctx, s, "alice", "organizer", ""))

	users, err := s.ListUsers(ctx, models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "organizer", users[0].Role)
	assert.Equal(t, "alice@example.com", users[0].Email)
}

func TestAddUser_Validation(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	assert.ErrorIs(t, addUser(ctx, s, "a:b", "player", ""), models.ErrInvalidUsername)
	assert.ErrorContains(t, addUser(ctx, s, "alice", "grandmaster", ""), "unknown role")
}

func TestPrintHistory(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.AppendMessage(ctx, &models.ChatMessage{Sender: "alice", Receiver: "bob", Message: "hi"}))

	assert.NoError(t, printHistory(ctx, s, models.RoomFor("alice", "bob"), 10))
}
