// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential and session-token lifecycle.

It handles registration with media upload, password login, refresh-token
rotation, logout, and per-request authentication of access tokens.

Architecture:

  - Service: The session manager. Orchestrates Register, Login, Refresh,
    Logout and Authenticate over the collaborator contracts below.
  - Handler: The HTTP delivery layer (cookies, multipart staging, envelopes).
  - RedisLoginGuard: Failed-login throttle shared by every API instance.

Session model: every account holds at most one refresh token. Issuing a new
one overwrites the previous value, and only the stored value is honored on
refresh, so a valid signature alone never suffices.
*/
package auth

import (
	"context"
	"time"

	"github.com/taibuivan/vidtube/internal/platform/media"
	"github.com/taibuivan/vidtube/internal/platform/sec"
	"github.com/taibuivan/vidtube/internal/users/account"
)

// # Collaborator Contracts

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Verify(plainTextPassword, existingHash string) bool
}

// TokenSigner issues and verifies the two token kinds.
//
// Access and refresh tokens must be verified with different keys so one can
// never stand in for the other.
type TokenSigner interface {
	SignAccess(subject sec.AccessSubject) (string, error)
	SignRefresh(accountID string) (string, error)
	VerifyAccess(token string) (*sec.AccessClaims, error)
	VerifyRefresh(token string) (*sec.RefreshClaims, error)
}

// MediaUploader moves a staged asset to permanent storage.
type MediaUploader interface {
	Upload(ctx context.Context, asset *media.Asset) (*media.Uploaded, error)
}

// LoginGuard throttles repeated failed logins against one identity.
type LoginGuard interface {
	// Allow reports whether key may attempt a login. When it may not,
	// retryAfter is how long the caller must wait.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
	// Fail records a failed attempt.
	Fail(ctx context.Context, key string) error
	// Reset forgets previous failures after a successful login.
	Reset(ctx context.Context, key string) error
}

// Recorder observes the outcome of lifecycle operations.
type Recorder interface {
	ObserveSession(operation, outcome string)
}

// # Inputs & Results

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string

	// Avatar is required. Cover is optional.
	Avatar *media.Asset
	Cover  *media.Asset
}

// LoginInput identifies an account by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Session is a freshly rotated token pair together with its owner.
type Session struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	Account      *account.Profile `json:"user,omitempty"`
}

// # Defaults

type openGuard struct{}

func (openGuard) Allow(context.Context, string) (bool, time.Duration, error) { return true, 0, nil }
func (openGuard) Fail(context.Context, string) error                         { return nil }
func (openGuard) Reset(context.Context, string) error                        { return nil }

type discardRecorder struct{}

func (discardRecorder) ObserveSession(string, string) {}
