// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	googleuuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/pkg/uuid"
)

func TestNew_IsVersion7AndOrdered(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	parsed, err := googleuuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, googleuuid.Version(7), parsed.Version())

	assert.NotEqual(t, first, second)
	assert.True(t, uuid.Valid(second))
}

func TestValid(t *testing.T) {
	assert.False(t, uuid.Valid(""))
	assert.False(t, uuid.Valid("not-a-uuid"))
	assert.True(t, uuid.Valid("0190a6e4-7b3c-7d2e-9f10-123456789abc"))
}
