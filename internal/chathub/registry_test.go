package chathub_test

import (
	"sync"
	"testing"

	"chesshive/backend/internal/chathub"
	"chesshive/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPresence_RegisterAndLookup(t *testing.T) {
	p := chathub.NewPresence()

	p.Register("c1", "alice", "player")
	p.Register("c2", "alice", "player")
	p.Register("c3", "bob", "coordinator")

	assert.ElementsMatch(t, []string{"c1", "c2"}, p.ConnectionsFor("alice"))
	assert.ElementsMatch(t, []string{"c3"}, p.ConnectionsFor("bob"))
	assert.Empty(t, p.ConnectionsFor("carol"))
	assert.ElementsMatch(t, []string{"c1", "c2", "c3"}, p.All())

	s, ok := p.Lookup("c3")
	assert.True(t, ok)
	assert.Equal(t, chathub.Session{ConnID: "c3", Username: "bob", Role: "coordinator"}, s)
}

func TestPresence_ReRegisterMovesConnection(t *testing.T) {
	p := chathub.NewPresence()

	p.Register("c1", "alice", "player")
	p.Register("c1", "bob", "player")

	assert.Empty(t, p.ConnectionsFor("alice"))
	assert.Equal(t, []string{"c1"}, p.ConnectionsFor("bob"))
	assert.Len(t, p.All(), 1)
}

func TestPresence_UnregisterIsSilentWhenAbsent(t *testing.T) {
	p := chathub.NewPresence()
	p.Register("c1", "alice", "player")

	assert.True(t, p.Unregister("c1"))
	assert.False(t, p.Unregister("c1"))
	assert.False(t, p.Unregister("never-seen"))
	assert.Empty(t, p.ConnectionsFor("alice"))
}

func TestPresence_OnlineUsersAreUniqueAndSorted(t *testing.T) {
	p := chathub.NewPresence()
	p.Register("c1", "bob", "player")
	p.Register("c2", "alice", "")
	p.Register("c3", "alice", "organizer")

	assert.Equal(t, []models.OnlineUser{
		{Username: "alice", Role: "organizer"},
		{Username: "bob", Role: "player"},
	}, p.OnlineUsers())
}

func TestPresence_ConcurrentAccess(t *testing.T) {
	p := chathub.NewPresence()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			conn := id + "-conn"
			p.Register(conn, id, "player")
			_ = p.ConnectionsFor(id)
			_ = p.OnlineUsers()
			p.Unregister(conn)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, p.All())
}
