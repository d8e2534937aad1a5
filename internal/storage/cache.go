package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chesshive/backend/internal/config"
	"chesshive/backend/internal/logger"
	"chesshive/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

var errCacheMiss = errors.New("cache miss")

func historyCacheKey(room string, page models.Page) string {
	return fmt.Sprintf("%s:%s:%d:%d", config.HistoryCachePrefix, room, page.Before, page.Limit)
}

// cachedHistoryPage serves an older history page. Rows below an existing ID never
// change, so the page stays valid for the whole TTL.
func (s *Service) cachedHistoryPage(ctx context.Context, room string, page models.Page) ([]models.ChatMessage, error) {
	key := historyCacheKey(room, page)

	// Callers joined to the same key share the fetch, so it must not end when
	// the first caller goes away.
	fetchCtx := context.WithoutCancel(ctx)
	result, err, _ := s.sf.Do(key, func() (any, error) {
		return s.fetchWithCache(fetchCtx, key, room, page)
	})
	if err != nil {
		return nil, err
	}

	messages, ok := result.([]models.ChatMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return messages, nil
}

func (s *Service) fetchWithCache(ctx context.Context, key, room string, page models.Page) ([]models.ChatMessage, error) {
	cached, err := s.getCachedPage(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, errCacheMiss) {
		l := logger.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("history cache get error")
	}

	messages, err := s.queryByRoom(ctx, room, page)
	if err != nil {
		return nil, err
	}

	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.setCachedPage(cacheCtx, key, messages); err != nil {
			l := logger.L()
			l.Warn().Err(err).Str("key", key).Msg("history cache set error")
		}
	}()

	return messages, nil
}

func (s *Service) getCachedPage(ctx context.Context, key string) ([]models.ChatMessage, error) {
	data, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var messages []models.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return messages, nil
}

func (s *Service) setCachedPage(ctx context.Context, key string, messages []models.ChatMessage) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}
	if err := s.Redis.Set(ctx, key, data, s.opts.CacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}
