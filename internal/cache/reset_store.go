package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrResetTokenNotFound = errors.New("reset token not found")

// ResetTokenStore keeps password-reset tokens keyed by their hash. A token is
// single use: Consume deletes it atomically.
type ResetTokenStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client, keyPrefix: "menux:password-reset:"}
}

func (s *ResetTokenStore) key(hash []byte) string {
	return s.keyPrefix + hex.EncodeToString(hash)
}

func (s *ResetTokenStore) Save(ctx context.Context, hash []byte, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(hash), userID, ttl).Err(); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

func (s *ResetTokenStore) Consume(ctx context.Context, hash []byte) (string, error) {
	userID, err := s.client.GetDel(ctx, s.key(hash)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrResetTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return userID, nil
}
