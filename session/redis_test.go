package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-search/models"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_RequestSecretTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	require.NoError(t, store.PutRequestSecret(ctx, "s1", "req-secret", 10*time.Minute))
	assert.Equal(t, 10*time.Minute, mr.TTL("session:s1:request_secret"))

	creds, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "req-secret", creds.RequestTokenSecret)

	mr.FastForward(11 * time.Minute)
	creds, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, creds.RequestTokenSecret)
}

func TestRedisStore_AccessTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)
	tok := models.AccessToken{Token: "acc", TokenSecret: "acc-secret"}

	require.NoError(t, store.PutAccessToken(ctx, "s1", tok, 30*24*time.Hour))
	assert.True(t, mr.Exists("session:s1:access_token"))

	creds, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, creds.AccessToken)
	assert.Equal(t, tok, *creds.AccessToken)

	require.NoError(t, store.DeleteAccessToken(ctx, "s1"))
	creds, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, creds.AccessToken)
}

func TestRedisStore_DeleteRequestSecret(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	require.NoError(t, store.PutRequestSecret(ctx, "s1", "req-secret", time.Minute))
	require.NoError(t, store.DeleteRequestSecret(ctx, "s1"))
	assert.False(t, mr.Exists("session:s1:request_secret"))
}

func TestRedisStore_CorruptAccessToken(t *testing.T) {
	store, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("session:s1:access_token", "{not json"))

	_, err := store.Load(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal access token")
}

func TestRedisStore_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Load(context.Background(), "s1")
	require.Error(t, err)
}
