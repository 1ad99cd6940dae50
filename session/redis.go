package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rental-search/models"
)

const keyPrefix = "session:"

// RedisStore implements Store on Redis, letting key TTLs handle expiry so
// several app instances can share sessions.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func requestSecretKey(sessionID string) string {
	return keyPrefix + sessionID + ":request_secret"
}

func accessTokenKey(sessionID string) string {
	return keyPrefix + sessionID + ":access_token"
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (*models.Credentials, error) {
	creds := &models.Credentials{}

	secret, err := r.client.Get(ctx, requestSecretKey(sessionID)).Result()
	switch {
	case err == redis.Nil:
	case err != nil:
		return nil, fmt.Errorf("redis get request secret: %w", err)
	default:
		creds.RequestTokenSecret = secret
	}

	data, err := r.client.Get(ctx, accessTokenKey(sessionID)).Bytes()
	switch {
	case err == redis.Nil:
	case err != nil:
		return nil, fmt.Errorf("redis get access token: %w", err)
	default:
		var tok models.AccessToken
		if err := json.Unmarshal(data, &tok); err != nil {
			return nil, fmt.Errorf("unmarshal access token: %w", err)
		}
		creds.AccessToken = &tok
	}

	return creds, nil
}

func (r *RedisStore) PutRequestSecret(ctx context.Context, sessionID, secret string, ttl time.Duration) error {
	if err := r.client.Set(ctx, requestSecretKey(sessionID), secret, ttl).Err(); err != nil {
		return fmt.Errorf("redis set request secret: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteRequestSecret(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, requestSecretKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del request secret: %w", err)
	}
	return nil
}

func (r *RedisStore) PutAccessToken(ctx context.Context, sessionID string, token models.AccessToken, ttl time.Duration) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal access token: %w", err)
	}
	if err := r.client.Set(ctx, accessTokenKey(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set access token: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteAccessToken(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, accessTokenKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del access token: %w", err)
	}
	return nil
}
