package service

import (
	"context"
	"fmt"
	"time"

	"github.com/authd/authd/internal/autherr"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisDenylist keeps revoked access-token jtis in Redis, each entry
// expiring with the token it shadows.
type RedisDenylist struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisDenylist(client *redis.Client, logger *logrus.Logger) *RedisDenylist {
	return &RedisDenylist{
		client: client,
		logger: logger,
	}
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	key := fmt.Sprintf("revoked_jti:%s", jti)
	if err := d.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		d.logger.WithError(err).Error("Failed to store revoked jti in Redis")
		return fmt.Errorf("%w: failed to deny-list jti: %v", autherr.ErrInternal, err)
	}

	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	key := fmt.Sprintf("revoked_jti:%s", jti)
	exists, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: failed to check revoked jti: %v", autherr.ErrInternal, err)
	}
	return exists > 0, nil
}
