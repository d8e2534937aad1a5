package chathub

import (
	"sort"
	"sync"

	"chesshive/backend/internal/models"
)

// Session is the presence entry of one joined connection.
type Session struct {
	ConnID   string
	Username string
	Role     string
}

// Presence maps live connections to the usernames they joined as. A username may
// be held by several connections at once, e.g. two open tabs.
type Presence struct {
	mu       sync.RWMutex
	sessions map[string]Session
	byUser   map[string]map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{
		sessions: make(map[string]Session),
		byUser:   make(map[string]map[string]struct{}),
	}
}

// Register attaches username and role to connID. Registering a connection again
// replaces its previous identity.
func (p *Presence) Register(connID, username, role string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.sessions[connID]; ok {
		p.detach(prev)
	}
	p.sessions[connID] = Session{ConnID: connID, Username: username, Role: role}

	conns, ok := p.byUser[username]
	if !ok {
		conns = make(map[string]struct{})
		p.byUser[username] = conns
	}
	conns[connID] = struct{}{}
}

// Unregister removes connID and reports whether it was registered.
func (p *Presence) Unregister(connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[connID]
	if !ok {
		return false
	}
	p.detach(s)
	delete(p.sessions, connID)
	return true
}

func (p *Presence) detach(s Session) {
	conns := p.byUser[s.Username]
	delete(conns, s.ConnID)
	if len(conns) == 0 {
		delete(p.byUser, s.Username)
	}
}

// ConnectionsFor returns the connections joined as username.
func (p *Presence) ConnectionsFor(username string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conns := p.byUser[username]
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	return out
}

// All returns every joined connection.
func (p *Presence) All() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		out = append(out, id)
	}
	return out
}

func (p *Presence) Lookup(connID string) (Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.sessions[connID]
	return s, ok
}

// OnlineUsers lists each joined username once, sorted by name. A connection that
// joined without a role does not hide the role reported by another one.
func (p *Presence) OnlineUsers() []models.OnlineUser {
	p.mu.RLock()
	defer p.mu.RUnlock()

	roles := make(map[string]string, len(p.byUser))
	for _, s := range p.sessions {
		if _, seen := roles[s.Username]; !seen || s.Role != "" {
			roles[s.Username] = s.Role
		}
	}

	users := make([]models.OnlineUser, 0, len(roles))
	for name, role := range roles {
		users = append(users, models.OnlineUser{Username: name, Role: role})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}
