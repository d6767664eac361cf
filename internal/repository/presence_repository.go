package repository

import (
	"context"
	"errors"
	"time"

	"chat-realtime/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix = "presence:"

	// Online keys outlive the ping interval so a healthy connection keeps
	// the key warm; offline keys are short to avoid flicker on reconnect.
	onlineTTL  = 5 * time.Minute
	offlineTTL = 1 * time.Minute
)

type PresenceRepository interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
	Status(ctx context.Context, userID string) (string, error)
}

type presenceRepository struct {
	client *redis.Client
}

func NewPresenceRepository(client *redis.Client) PresenceRepository {
	return &presenceRepository{client: client}
}

func (r *presenceRepository) SetOnline(ctx context.Context, userID string) error {
	return r.client.Set(ctx, presenceKeyPrefix+userID, models.StatusOnline, onlineTTL).Err()
}

func (r *presenceRepository) SetOffline(ctx context.Context, userID string) error {
	return r.client.Set(ctx, presenceKeyPrefix+userID, models.StatusOffline, offlineTTL).Err()
}

// Status returns the cached presence value; an expired or missing key reads
// as offline.
func (r *presenceRepository) Status(ctx context.Context, userID string) (string, error) {
	val, err := r.client.Get(ctx, presenceKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return models.StatusOffline, nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
