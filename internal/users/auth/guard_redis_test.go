// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/sec"
	"github.com/taibuivan/vidtube/internal/users/auth"
	"github.com/taibuivan/vidtube/pkg/uuid"
)

// redisFromEnv connects to REDIS_TEST_URL or skips the test.
func redisFromEnv(t *testing.T) *redis.Client {
	t.Helper()

	redisURL := os.Getenv("REDIS_TEST_URL")
	if redisURL == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	options, err := redis.ParseURL(redisURL)
	require.NoError(t, err)

	client := redis.NewClient(options)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

/*
TestRedisLoginGuard_LocksAfterMaxFailures exercises the counter against a live Redis.
*/
func TestRedisLoginGuard_LocksAfterMaxFailures(t *testing.T) {
	client := redisFromEnv(t)
	guard := auth.NewRedisLoginGuard(client, 2, time.Minute)
	ctx := context.Background()
	key := "u:" + uuid.New()

	allowed, _, err := guard.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, guard.Fail(ctx, key))
	require.NoError(t, guard.Fail(ctx, key))

	allowed, retryAfter, err := guard.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)

	require.NoError(t, guard.Reset(ctx, key))
	allowed, _, err = guard.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)
}

/*
TestRedisLoginGuard_EmptyKey never touches Redis.
*/
func TestRedisLoginGuard_EmptyKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	guard := auth.NewRedisLoginGuard(client, 3, time.Minute)

	allowed, _, err := guard.Allow(context.Background(), "")
	assert.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, guard.Fail(context.Background(), ""))
	assert.NoError(t, guard.Reset(context.Background(), ""))
}

/*
TestLogin_GuardOutageFailsOpen lets logins through when Redis is unreachable.
*/
func TestLogin_GuardOutageFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := sec.NewTokenService(testTokenConfig())
	require.NoError(t, err)

	store := newMemoryStore()
	service := auth.NewService(store, sec.NewBcryptHasher(bcrypt.MinCost), tokens, newFakeUploader(),
		auth.WithLoginGuard(auth.NewRedisLoginGuard(client, 1, time.Minute)),
	)

	_, err = service.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = service.Login(context.Background(), auth.LoginInput{Username: "alice", Password: "guess"})
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized), "got %v", err)

	session, err := service.Login(context.Background(), auth.LoginInput{Username: "alice", Password: "wonderland-42"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.RefreshToken)
}
