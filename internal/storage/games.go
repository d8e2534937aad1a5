package storage

import (
	"context"
	"encoding/json"
	"time"

	"chesshive/backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveMove appends a relayed move to the game log and records the latest position
// of the room. An empty fen keeps the previously stored position.
func (s *Service) SaveMove(ctx context.Context, room string, move json.RawMessage, fen string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.GameMove{Room: room, Move: datatypes.JSON(move)}).Error; err != nil {
			return err
		}

		game := models.Game{Room: room, FEN: fen, UpdatedAt: time.Now().UTC()}
		updates := []string{"updated_at"}
		if fen != "" {
			updates = append(updates, "fen")
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room"}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).Create(&game).Error
	})
}
