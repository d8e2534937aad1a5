package storage

import (
	"context"
	"fmt"
	"time"

	"chesshive/backend/internal/logger"
	"chesshive/backend/internal/models"
)

// AppendMessage writes msg to the history log and fills in its ID, Room and Timestamp.
func (s *Service) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.Room == "" {
		msg.Room = models.RoomFor(msg.Sender, msg.Receiver).String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		l := logger.Ctx(ctx)
		l.Error().Err(err).Str(logger.FieldRoom, msg.Room).Msg("failed to save chat message")
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

// QueryByRoom returns a page of a room's history, newest first.
// Pages older than a known message are served from the Redis cache when enabled.
func (s *Service) QueryByRoom(ctx context.Context, room models.Room, page models.Page) ([]models.ChatMessage, error) {
	page.Limit = s.clampHistoryLimit(page.Limit)
	key := room.String()

	// The latest page changes with every message, so it is always read from the database.
	if page.Before == 0 || s.Redis == nil {
		return s.queryByRoom(ctx, key, page)
	}
	return s.cachedHistoryPage(ctx, key, page)
}

func (s *Service) queryByRoom(ctx context.Context, key string, page models.Page) ([]models.ChatMessage, error) {
	q := s.DB.WithContext(ctx).Where("room = ?", key)
	if page.Before > 0 {
		q = q.Where("id < ?", page.Before)
	}

	messages := make([]models.ChatMessage, 0, page.Limit)
	if err := q.Order("id DESC").Limit(page.Limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to load history for room %s: %w", key, err)
	}
	return messages, nil
}

func (s *Service) clampHistoryLimit(limit int) int {
	if limit <= 0 {
		return s.opts.HistoryLimit
	}
	if limit > s.opts.MaxHistoryLimit {
		return s.opts.MaxHistoryLimit
	}
	return limit
}

// ContactsFor returns the latest message of every private room username takes
// part in, most recent conversation first.
func (s *Service) ContactsFor(ctx context.Context, username string) ([]models.Contact, error) {
	latest := s.DB.Model(&models.ChatMessage{}).
		Select("MAX(id)").
		Where("room LIKE ? AND (sender = ? OR receiver = ?)", privateRoomPattern, username, username).
		Group("room")

	var rows []models.ChatMessage
	err := s.DB.WithContext(ctx).
		Where("id IN (?)", latest).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts for %s: %w", username, err)
	}

	contacts := make([]models.Contact, 0, len(rows))
	for _, row := range rows {
		counterpart := row.Receiver
		if row.Sender != username {
			counterpart = row.Sender
		}
		contacts = append(contacts, models.Contact{
			Contact:     counterpart,
			LastMessage: row.Message,
			Timestamp:   row.Timestamp,
		})
	}
	return contacts, nil
}

const privateRoomPattern = "pm:%"
