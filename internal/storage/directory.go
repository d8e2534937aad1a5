package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chesshive/backend/internal/models"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListUsers searches the account directory. Results are ordered by username.
func (s *Service) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	limit := filter.Limit
	if limit <= 0 || limit > s.opts.DirectoryLimit {
		limit = s.opts.DirectoryLimit
	}

	q := s.DB.WithContext(ctx).Model(&models.User{})
	if role := strings.TrimSpace(filter.Role); role != "" {
		q = q.Where("LOWER(role) = ?", strings.ToLower(role))
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		q = q.Where(`LOWER(username) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(query))+"%")
	}

	users := make([]models.User, 0)
	if err := q.Order("username ASC").Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SaveUser creates or updates an account.
func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Save(user).Error
}

// GetUserByUsername looks up a single account.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
