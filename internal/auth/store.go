// Package auth resolves bearer tokens to principals. Token issuance happens
// out of band (an operator tool or an upstream identity service); this
// package only stores and resolves them.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kirana-pos/kirana/internal/shared"
)

const tokenKeyPrefix = "session:"

// TokenStore keeps bearer tokens in redis with a sliding TTL.
type TokenStore struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewTokenStore builds a TokenStore.
func NewTokenStore(cache *redis.Client, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = 720 * time.Hour
	}
	return &TokenStore{cache: cache, ttl: ttl}
}

// Issue mints a token for the principal.
func (s *TokenStore) Issue(ctx context.Context, p shared.Principal) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := s.cache.Set(ctx, tokenKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// Resolve maps a token back to its principal and refreshes the TTL.
func (s *TokenStore) Resolve(ctx context.Context, token string) (shared.Principal, error) {
	raw, err := s.cache.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return shared.Principal{}, fmt.Errorf("%w: unknown token", shared.ErrUnauthorized)
		}
		return shared.Principal{}, fmt.Errorf("resolve token: %w", err)
	}
	var p shared.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return shared.Principal{}, fmt.Errorf("%w: corrupt session", shared.ErrUnauthorized)
	}
	_ = s.cache.Expire(ctx, tokenKeyPrefix+token, s.ttl).Err()
	return p, nil
}

// Revoke drops a token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	return s.cache.Del(ctx, tokenKeyPrefix+token).Err()
}
