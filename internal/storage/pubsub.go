package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"chesshive/backend/internal/logger"
	"chesshive/backend/internal/models"
)

// PublishMessage broadcasts a persisted message to the other service instances.
func (s *Service) PublishMessage(ctx context.Context, env models.RelayEnvelope) error {
	if s.Redis == nil {
		return ErrPubSubDisabled
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := s.Redis.Publish(ctx, s.opts.Channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.opts.Channel, err)
	}
	return nil
}

// SubscribeBroadcast listens on the broadcast channel until ctx is cancelled.
// The returned channel is closed when the subscription ends.
func (s *Service) SubscribeBroadcast(ctx context.Context) (<-chan models.RelayEnvelope, error) {
	if s.Redis == nil {
		return nil, ErrPubSubDisabled
	}

	pubsub := s.Redis.Subscribe(ctx, s.opts.Channel)
	// Wait for the subscription confirmation so that errors surface here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.opts.Channel, err)
	}

	out := make(chan models.RelayEnvelope)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env models.RelayEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					l := logger.L()
					l.Warn().Err(err).Msg("failed to decode relayed message")
					continue
				}
				select {
				case out <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
