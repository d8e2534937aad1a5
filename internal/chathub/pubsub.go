package chathub

import (
	"context"
	"errors"

	"chesshive/backend/internal/logger"
	"chesshive/backend/internal/models"
	"chesshive/backend/internal/storage"
)

// StartPubSubListener subscribes to messages stored by other instances. It returns
// a nil channel when the relay is disabled, which blocks forever in a select.
func (m *ManagerService) StartPubSubListener(ctx context.Context) <-chan models.RelayEnvelope {
	if m.Storage == nil {
		return nil
	}

	ch, err := m.Storage.SubscribeBroadcast(ctx)
	if err != nil {
		l := logger.L()
		if errors.Is(err, storage.ErrPubSubDisabled) {
			l.Info().Msg("cross-instance relay disabled")
		} else {
			l.Error().Err(err).Msg("failed to subscribe to relay channel")
		}
		return nil
	}
	return ch
}

// handleRelay fans out a message persisted by another instance to the local
// connections of its room.
func (m *ManagerService) handleRelay(env models.RelayEnvelope) {
	if env.Origin == m.opts.InstanceID {
		return
	}

	room, err := models.ParseRoom(env.Room)
	if err != nil {
		l := logger.L()
		l.Warn().Err(err).Str(logger.FieldRoom, env.Room).Msg("dropping relayed message")
		return
	}

	unlock := m.roomLocks.Lock(room.String())
	defer unlock()
	m.deliverToRoom(room, env.Payload)
}
