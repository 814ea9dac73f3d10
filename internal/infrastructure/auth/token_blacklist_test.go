package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Hour))
	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-expiring", time.Millisecond))
	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-already-expired", 0))

	time.Sleep(10 * time.Millisecond)

	for jti, want := range map[string]bool{"jti-1": true, "jti-2": false, "jti-expiring": false, "jti-already-expired": false} {
		got, err := blacklist.IsBlacklisted(ctx, jti)
		require.NoError(t, err)
		assert.Equal(t, want, got, jti)
	}
}

func TestInMemoryTokenBlacklist_UserTokenInvalidation(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()
	issued := time.Now().Add(-time.Hour)

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, 7, issued)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.InvalidateUserTokens(ctx, 7, time.Hour))

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, 7, issued)
	require.NoError(t, err)
	assert.True(t, invalidated)

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, 7, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, invalidated, "tokens issued after invalidation stay valid")

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, 8, issued)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	blacklist := auth.NewRedisTokenBlacklist(client)
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Minute))
	assert.True(t, mr.Exists("shop:token:blacklist:jti:jti-1"))

	revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	issued := time.Now().Add(-time.Hour)
	require.NoError(t, blacklist.InvalidateUserTokens(ctx, 3, 24*time.Hour))
	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, 3, issued)
	require.NoError(t, err)
	assert.True(t, invalidated)

	invalidated, err = blacklist.IsUserTokenInvalidated(ctx, 4, issued)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err := auth.NewRedisTokenBlacklist(client).IsBlacklisted(context.Background(), "jti")
	assert.Error(t, err)
}

func TestInMemoryTokenBlacklist_CutoffExpires(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()
	issued := time.Now().Add(-time.Hour)

	require.NoError(t, blacklist.InvalidateUserTokens(ctx, 9, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, 9, issued)
	require.NoError(t, err)
	assert.False(t, invalidated, "cutoff outlived its ttl")
}
