// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	"github.com/taibuivan/vidtube/internal/users/account"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Account verifies that the authenticated profile round-trips through context.
*/
func TestContext_Account(t *testing.T) {
	ctx := context.Background()

	// 1. Anonymous by default
	assert.Nil(t, ctxutil.GetAccount(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithAccount(ctx, &account.Profile{ID: "acc-123", Username: "alice"})
	retrieved := ctxutil.GetAccount(ctx)

	require.NotNil(t, retrieved)
	assert.Equal(t, "acc-123", retrieved.ID)
	assert.Equal(t, "alice", retrieved.Username)
}
