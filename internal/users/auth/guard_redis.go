// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/vidtube/internal/platform/constants"
)

// RedisLoginGuard implements [LoginGuard] with a Redis counter per identity.
//
// Every failure increments the counter and pushes its expiry out by window,
// so an identity stays locked until it has been quiet for a full window.
type RedisLoginGuard struct {
	client      redis.Cmdable
	maxFailures int64
	window      time.Duration
}

// NewRedisLoginGuard creates a guard that locks an identity after maxFailures
// failed logins inside window.
func NewRedisLoginGuard(client redis.Cmdable, maxFailures int, window time.Duration) *RedisLoginGuard {
	return &RedisLoginGuard{client: client, maxFailures: int64(maxFailures), window: window}
}

/*
Allow reports whether the identity is below its failure budget.

Parameters:
  - context: context.Context
  - key: string (Identity key, see identity.Key)

Returns:
  - bool: true when a login may be attempted
  - time.Duration: Remaining lockout when not allowed
  - error: Connectivity errors
*/
func (guard *RedisLoginGuard) Allow(context context.Context, key string) (bool, time.Duration, error) {
	if key == "" || guard.maxFailures <= 0 {
		return true, 0, nil
	}

	redisKey := constants.RedisPrefixLoginFailures + key

	var countCmd *redis.StringCmd
	var ttlCmd *redis.DurationCmd
	_, err := guard.client.Pipelined(context, func(pipe redis.Pipeliner) error {
		countCmd = pipe.Get(context, redisKey)
		ttlCmd = pipe.PTTL(context, redisKey)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return true, 0, fmt.Errorf("redis_login_guard_allow_failed: %w", err)
	}

	count, err := countCmd.Int64()
	if errors.Is(err, redis.Nil) {
		return true, 0, nil
	}
	if err != nil {
		return true, 0, fmt.Errorf("redis_login_guard_allow_failed: %w", err)
	}

	if count < guard.maxFailures {
		return true, 0, nil
	}

	retryAfter := ttlCmd.Val()
	if retryAfter <= 0 {
		retryAfter = guard.window
	}
	return false, retryAfter, nil
}

/*
Fail records one failed login for the identity.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - error: Connectivity errors
*/
func (guard *RedisLoginGuard) Fail(context context.Context, key string) error {
	if key == "" {
		return nil
	}

	redisKey := constants.RedisPrefixLoginFailures + key

	// INCR and EXPIRE run in one MULTI so the counter never outlives its window.
	_, err := guard.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.Incr(context, redisKey)
		pipe.Expire(context, redisKey, guard.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_login_guard_fail_failed: %w", err)
	}

	return nil
}

// Reset forgets the failures of an identity.
func (guard *RedisLoginGuard) Reset(context context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := guard.client.Del(context, constants.RedisPrefixLoginFailures+key).Err(); err != nil {
		return fmt.Errorf("redis_login_guard_reset_failed: %w", err)
	}

	return nil
}
