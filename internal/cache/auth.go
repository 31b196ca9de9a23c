package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lukeybeachboy/todo-api/internal/model"
)

// authCachePrefix is the Redis key prefix for resolved tokens.
const authCachePrefix = "auth:token:"

// CachedUser is the public part of a user stored against a token hash.
type CachedUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// GetUser retrieves the user a token resolved to.
// Returns nil if not found (cache miss).
func (c *Cache) GetUser(ctx context.Context, tokenKey string) (*model.User, error) {
	key := authCachePrefix + tokenKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached user: %w", err)
	}

	user, ok := decodeCachedUser(data)
	if !ok {
		// Corrupted cache entry - treat as miss
		return nil, nil
	}
	return user, nil
}

// SetUser caches the user a token resolved to.
func (c *Cache) SetUser(ctx context.Context, tokenKey string, user *model.User) error {
	key := authCachePrefix + tokenKey

	data, err := json.Marshal(CachedUser{UserID: user.ID, Email: user.Email})
	if err != nil {
		return fmt.Errorf("marshal cached user: %w", err)
	}

	return c.client.Set(ctx, key, data, c.tokenTTL).Err()
}

// DeleteUser removes a cached token resolution.
// Used when a token is revoked.
func (c *Cache) DeleteUser(ctx context.Context, tokenKey string) error {
	key := authCachePrefix + tokenKey
	return c.client.Del(ctx, key).Err()
}

func decodeCachedUser(data []byte) (*model.User, bool) {
	var cached CachedUser
	if err := json.Unmarshal(data, &cached); err != nil || cached.UserID == "" {
		return nil, false
	}
	return &model.User{ID: cached.UserID, Email: cached.Email}, true
}
