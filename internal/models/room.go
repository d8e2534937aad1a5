package models

import (
	"errors"
	"strings"
)

const (
	// GlobalReceiver is the receiver sentinel addressing every connected user.
	GlobalReceiver = "All"
	// GlobalRoomKey is the storage key of the global room.
	GlobalRoomKey = "global"

	privateRoomPrefix = "pm:"
	roomDelimiter     = ":"
)

var (
	ErrInvalidRoom     = errors.New("invalid room key")
	ErrInvalidUsername = errors.New("invalid username")
)

// Room identifies a conversation. The zero value is the global room; a private
// room holds the two participants sorted so that A <= B.
type Room struct {
	A string
	B string
}

// GlobalRoom returns the room shared by every connected user.
func GlobalRoom() Room { return Room{} }

// RoomFor derives the room of a message from its sender and receiver.
// The result does not depend on the direction of the message.
func RoomFor(sender, receiver string) Room {
	if receiver == "" || receiver == GlobalReceiver {
		return GlobalRoom()
	}
	if receiver < sender {
		sender, receiver = receiver, sender
	}
	return Room{A: sender, B: receiver}
}

// IsGlobal reports whether r is the global room.
func (r Room) IsGlobal() bool { return r.A == "" && r.B == "" }

// Has reports whether username takes part in the private room r.
func (r Room) Has(username string) bool {
	return !r.IsGlobal() && (r.A == username || r.B == username)
}

// Counterpart returns the participant of r that is not username.
func (r Room) Counterpart(username string) string {
	if r.A == username {
		return r.B
	}
	return r.A
}

// String serializes the room to its storage key, e.g. "global" or "pm:alice:bob".
func (r Room) String() string {
	if r.IsGlobal() {
		return GlobalRoomKey
	}
	return privateRoomPrefix + r.A + roomDelimiter + r.B
}

// ParseRoom parses a storage key produced by Room.String.
func ParseRoom(key string) (Room, error) {
	if key == GlobalRoomKey {
		return GlobalRoom(), nil
	}
	rest, ok := strings.CutPrefix(key, privateRoomPrefix)
	if !ok {
		return Room{}, ErrInvalidRoom
	}
	a, b, ok := strings.Cut(rest, roomDelimiter)
	if !ok || ValidateUsername(a) != nil || ValidateUsername(b) != nil {
		return Room{}, ErrInvalidRoom
	}
	// Normalize keys written by hand with the pair in the wrong order.
	return RoomFor(a, b), nil
}

// MaxUsernameLength bounds usernames accepted on join.
const MaxUsernameLength = 64

// ValidateUsername rejects names that cannot be used as a room participant.
func ValidateUsername(name string) error {
	switch {
	case name == "", name == GlobalReceiver:
		return ErrInvalidUsername
	case len(name) > MaxUsernameLength:
		return ErrInvalidUsername
	case strings.Contains(name, roomDelimiter):
		return ErrInvalidUsername
	}
	return nil
}
