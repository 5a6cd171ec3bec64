// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
)

/*
TestConstructors_StatusMapping verifies every error kind maps to its HTTP status.
*/
func TestConstructors_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		code   string
		status int
	}{
		{"validation", apperr.ValidationError("bad"), apperr.CodeValidation, http.StatusBadRequest},
		{"conflict", apperr.Conflict("dup"), apperr.CodeConflict, http.StatusConflict},
		{"not_found", apperr.NotFound("Account"), apperr.CodeNotFound, http.StatusNotFound},
		{"unauthorized", apperr.Unauthorized("no"), apperr.CodeUnauthorized, http.StatusUnauthorized},
		{"upload", apperr.Upload("avatar"), apperr.CodeUpload, http.StatusBadRequest},
		{"integrity", apperr.Integrity("lost"), apperr.CodeIntegrity, http.StatusInternalServerError},
		{"rate_limited", apperr.RateLimited(30), apperr.CodeRateLimited, http.StatusTooManyRequests},
		{"internal", apperr.Internal(errors.New("boom")), apperr.CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

/*
TestWithStatus_DoesNotMutateOriginal checks that status overrides return a copy.
*/
func TestWithStatus_DoesNotMutateOriginal(t *testing.T) {
	original := apperr.NotFound("Account")
	overridden := original.WithStatus(http.StatusUnauthorized)

	assert.Equal(t, http.StatusNotFound, original.HTTPStatus)
	assert.Equal(t, http.StatusUnauthorized, overridden.HTTPStatus)
	assert.Equal(t, apperr.CodeNotFound, overridden.Code)
}

/*
TestAs_WrappedChain verifies AppErrors are found through fmt.Errorf wrapping.
*/
func TestAs_WrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", apperr.Conflict("Username is already taken"))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeConflict, ae.Code)
	assert.True(t, apperr.HasCode(wrapped, apperr.CodeConflict))
	assert.False(t, apperr.HasCode(errors.New("plain"), apperr.CodeConflict))
	assert.Nil(t, apperr.As(errors.New("plain")))
}

/*
TestInternal_UnwrapsCause checks that the cause stays reachable for logging.
*/
func TestInternal_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "An unexpected error occurred", err.Error())
}
