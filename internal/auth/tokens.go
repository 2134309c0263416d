package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "auth:token:"

// TokenStore keeps opaque bearer tokens in Redis with a TTL. Expiry is
// server-side only; clients never refresh.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue generates a random token bound to the user id.
func (s *TokenStore) Issue(ctx context.Context, userID int64) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	token := hex.EncodeToString(buf)
	if err := s.client.Set(ctx, tokenKeyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Resolve maps a token back to its user id.
func (s *TokenStore) Resolve(ctx context.Context, token string) (int64, error) {
	raw, err := s.client.Get(ctx, tokenKeyPrefix+token).Result()
	if err == redis.Nil {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrTokenNotFound
	}
	return id, nil
}

// Revoke deletes a token. Revoking an unknown token is not an error.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKeyPrefix+token).Err()
}

// TTL reports the configured token lifetime.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}
