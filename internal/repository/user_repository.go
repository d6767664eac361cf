package repository

import (
	"context"
	"time"

	"chat-realtime/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	DirectConnectionIDs(ctx context.Context, userID string) ([]string, error)
	UpdateStatus(ctx context.Context, userID, status string, lastSeen time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DirectConnectionIDs returns the IDs of the user's accepted connections,
// the audience for presence events.
func (r *userRepository) DirectConnectionIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("user_connections").
		Where("user_id = ?", userID).
		Pluck("connection_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, userID, status string, lastSeen time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"status": status, "last_seen": lastSeen}).Error
}
