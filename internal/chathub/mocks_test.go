package chathub_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"chesshive/backend/internal/models"
	"chesshive/backend/internal/storage"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStorage) QueryByRoom(ctx context.Context, room models.Room, page models.Page) ([]models.ChatMessage, error) {
	args := m.Called(ctx, room, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockStorage) ContactsFor(ctx context.Context, username string) ([]models.Contact, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Contact), args.Error(1)
}

func (m *MockStorage) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) SaveUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SaveMove(ctx context.Context, room string, move json.RawMessage, fen string) error {
	args := m.Called(ctx, room, move, fen)
	return args.Error(0)
}

func (m *MockStorage) PublishMessage(ctx context.Context, env models.RelayEnvelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

func (m *MockStorage) SubscribeBroadcast(ctx context.Context) (<-chan models.RelayEnvelope, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan models.RelayEnvelope), args.Error(1)
}

// onAppend stubs AppendMessage to assign increasing IDs, like the database would.
func (m *MockStorage) onAppend() *mock.Call {
	var mu sync.Mutex
	var next uint
	return m.On("AppendMessage", mock.Anything, mock.AnythingOfType("*models.ChatMessage")).
		Run(func(args mock.Arguments) {
			mu.Lock()
			defer mu.Unlock()
			next++
			msg := args.Get(1).(*models.ChatMessage)
			msg.ID = next
			msg.Timestamp = time.Now()
		}).
		Return(nil)
}

// MockClient records the events the hub sends to it.
type MockClient struct {
	connID   string
	verified string
	send     chan models.Envelope

	mu     sync.Mutex
	closed bool
}

func newMockClient(connID string) *MockClient {
	return newMockClientWithBuffer(connID, 32)
}

func newMockClientWithBuffer(connID string, size int) *MockClient {
	return &MockClient{
		connID: connID,
		send:   make(chan models.Envelope, size),
	}
}

func (c *MockClient) GetConnID() string                      { return c.connID }
func (c *MockClient) GetVerifiedUsername() string            { return c.verified }
func (c *MockClient) GetSendChannel() chan<- models.Envelope { return c.send }
func (c *MockClient) Run()                                   {}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *MockClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// gatedClient blocks inside GetVerifiedUsername until release is closed, which
// pauses Join between the client lookup and the presence update.
type gatedClient struct {
	*MockClient
	entered chan struct{}
	release chan struct{}
}

func newGatedClient(connID string) *gatedClient {
	return &gatedClient{
		MockClient: newMockClient(connID),
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
}

func (c *gatedClient) GetVerifiedUsername() string {
	c.entered <- struct{}{}
	<-c.release
	return ""
}

// next returns the next event of the given type, skipping other events.
func (c *MockClient) next(t *testing.T, event string) models.Envelope {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case env, ok := <-c.send:
			require.True(t, ok, "client %s was closed", c.connID)
			if env.Event == event {
				return env
			}
		case <-timeout:
			t.Fatalf("client %s did not receive %q", c.connID, event)
		}
	}
}

// nextMessage returns the payload of the next message event.
func (c *MockClient) nextMessage(t *testing.T) models.OutgoingMessage {
	t.Helper()
	var msg models.OutgoingMessage
	require.NoError(t, json.Unmarshal(c.next(t, models.EventMessage).Data, &msg))
	return msg
}

// drainEvents discards every queued event and returns them.
func (c *MockClient) drainEvents() []models.Envelope {
	var out []models.Envelope
	for {
		select {
		case env, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

// drain discards every queued event and returns the message events among them.
func (c *MockClient) drain() []models.OutgoingMessage {
	var out []models.OutgoingMessage
	for _, env := range c.drainEvents() {
		if env.Event != models.EventMessage {
			continue
		}
		var msg models.OutgoingMessage
		_ = json.Unmarshal(env.Data, &msg)
		out = append(out, msg)
	}
	return out
}

func eventNames(envs []models.Envelope) []string {
	names := make([]string, 0, len(envs))
	for _, env := range envs {
		names = append(names, env.Event)
	}
	return names
}
