// Package storage persists chat history, the user directory and game moves, and
// relays persisted messages between service instances over Redis.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chesshive/backend/internal/config"
	"chesshive/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var (
	// ErrPubSubDisabled is returned by the relay methods when no Redis client is configured.
	ErrPubSubDisabled = errors.New("redis pub/sub is not configured")
	ErrUserNotFound   = errors.New("user not found")
)

type Storage interface {
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	QueryByRoom(ctx context.Context, room models.Room, page models.Page) ([]models.ChatMessage, error)
	ContactsFor(ctx context.Context, username string) ([]models.Contact, error)

	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	SaveMove(ctx context.Context, room string, move json.RawMessage, fen string) error

	PublishMessage(ctx context.Context, env models.RelayEnvelope) error
	SubscribeBroadcast(ctx context.Context) (<-chan models.RelayEnvelope, error)
}

// Options tunes a Service. Zero fields fall back to the package defaults.
type Options struct {
	Channel         string
	CacheTTL        time.Duration
	HistoryLimit    int
	MaxHistoryLimit int
	DirectoryLimit  int
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client

	opts Options
	sf   singleflight.Group
}

// NewStorageService builds a Service. rdb may be nil, in which case the history
// cache and the cross-instance relay are disabled.
func NewStorageService(db *gorm.DB, rdb *redis.Client, opts Options) *Service {
	if opts.Channel == "" {
		opts.Channel = config.BroadcastChannel
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = config.HistoryCacheTTL
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = config.DefaultHistoryLimit
	}
	if opts.MaxHistoryLimit <= 0 {
		opts.MaxHistoryLimit = config.MaxHistoryLimit
	}
	if opts.DirectoryLimit <= 0 {
		opts.DirectoryLimit = config.DefaultDirectoryLimit
	}
	return &Service{
		DB:    db,
		Redis: rdb,
		opts:  opts,
	}
}

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ChatMessage{},
		&models.User{},
		&models.Game{},
		&models.GameMove{},
	)
}
