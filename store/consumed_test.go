package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live server only when REDIS_TEST_URL is set.
func TestRedisConsumedTokens(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	s := NewRedisConsumedTokens(client)
	ctx := context.Background()
	id := uuid.NewString()

	ok, err := s.Consume(ctx, id, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Consume(ctx, id, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Release(ctx, id))
	ok, err = s.Consume(ctx, id, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, s.Release(ctx, id))
}

func TestRedisConsumedTokens_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := NewRedisConsumedTokens(client)
	_, err := s.Consume(context.Background(), "jti", time.Now().Add(time.Minute))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
