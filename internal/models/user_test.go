package models_test

import (
	"testing"

	"chesshive/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	user := &models.User{Username: "alice", Role: models.RolePlayer}
	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	// A nil *gorm.DB is fine, the hook does not touch it.
	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	parsed, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
}

// TestUserBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	user := &models.User{ID: "existing-id", Username: "bob"}

	assert.NoError(t, user.BeforeCreate(nil))
	assert.Equal(t, "existing-id", user.ID)
}

func TestIsKnownRole(t *testing.T) {
	for _, role := range []string{"player", "coordinator", "organizer", "admin"} {
		assert.True(t, models.IsKnownRole(role), role)
	}
	assert.False(t, models.IsKnownRole("Player"))
	assert.False(t, models.IsKnownRole(""))
}
