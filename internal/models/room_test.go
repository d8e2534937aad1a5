package models_test

import (
	"strings"
	"testing"

	"chesshive/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomFor_IsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"Bob", "alice"},
		{"zed", "Ann"},
		{"magnus", "magnus2"},
	}
	for _, p := range pairs {
		a, b := models.RoomFor(p[0], p[1]), models.RoomFor(p[1], p[0])
		assert.Equal(t, a, b)
		assert.Equal(t, a.String(), b.String())
		assert.True(t, a.Has(p[0]))
		assert.True(t, a.Has(p[1]))
	}
}

func TestRoomFor_Global(t *testing.T) {
	for _, receiver := range []string{"All", ""} {
		room := models.RoomFor("alice", receiver)
		assert.True(t, room.IsGlobal())
		assert.Equal(t, "global", room.String())
		assert.False(t, room.Has("alice"))
	}
}

func TestRoom_StringAndCounterpart(t *testing.T) {
	room := models.RoomFor("bob", "alice")

	assert.Equal(t, "pm:alice:bob", room.String())
	assert.Equal(t, "bob", room.Counterpart("alice"))
	assert.Equal(t, "alice", room.Counterpart("bob"))
}

func TestParseRoom(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "global", want: "global"},
		{key: "pm:alice:bob", want: "pm:alice:bob"},
		{key: "pm:bob:alice", want: "pm:alice:bob"},
		{key: "pm:alice", wantErr: true},
		{key: "pm:alice:bob:carol", wantErr: true},
		{key: "pm::bob", wantErr: true},
		{key: "pm:All:bob", wantErr: true},
		{key: "lobby", wantErr: true},
		{key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			room, err := models.ParseRoom(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidRoom)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, room.String())
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, models.ValidateUsername("alice"))
	assert.NoError(t, models.ValidateUsername(strings.Repeat("a", models.MaxUsernameLength)))

	for _, bad := range []string{"", "All", "a:b", strings.Repeat("a", models.MaxUsernameLength+1)} {
		assert.ErrorIs(t, models.ValidateUsername(bad), models.ErrInvalidUsername, bad)
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	env, err := models.NewEnvelope(models.EventMessage, models.OutgoingMessage{Sender: "alice", Message: "hi", Receiver: "All"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sender":"alice","message":"hi","receiver":"All"}`, string(env.Data))

	var got models.OutgoingMessage
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, "alice", got.Sender)

	assert.Error(t, models.Envelope{Event: models.EventJoin}.Decode(&got))
}

func TestJoinRequest_Normalize(t *testing.T) {
	req := models.JoinRequest{Username: "  alice ", Role: " Player "}
	req.Normalize()

	assert.Equal(t, models.JoinRequest{Username: "alice", Role: "player"}, req)
}
