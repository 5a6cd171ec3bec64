// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account defines the persisted identity of a vidtube user.

It holds the Account entity, its sanitized Profile view, and the Repository
contract the session manager reads and writes credentials through.

# Architecture

  - Entities: Account (stored), Profile (safe to return to clients).
  - Storage: Repository, implemented over PostgreSQL in store_postgres.go.
  - Dependencies: none outside the platform layer, so any package may import it.
*/
package account

import (
	"context"
	"errors"
	"time"
)

// ErrRefreshTokenMismatch is returned by [Repository.ReplaceRefreshToken] when
// the stored token is no longer the expected one.
var ErrRefreshTokenMismatch = errors.New("account: stored refresh token changed")

// # Domain Entities

// Account is a registered user with their credentials and session state.
type Account struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Avatar       string
	CoverImage   string

	// RefreshToken is the single refresh token currently honored for this
	// account. Nil when no session is active.
	RefreshToken *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is an Account without its password hash and refresh token.
type Profile struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Profile returns the sanitized view of the account.
func (account *Account) Profile() *Profile {
	return &Profile{
		ID:         account.ID,
		Username:   account.Username,
		Email:      account.Email,
		FullName:   account.FullName,
		Avatar:     account.Avatar,
		CoverImage: account.CoverImage,
		CreatedAt:  account.CreatedAt,
		UpdatedAt:  account.UpdatedAt,
	}
}

// HasRefreshToken reports whether token is the refresh token stored for the account.
func (account *Account) HasRefreshToken(token string) bool {
	return account.RefreshToken != nil && *account.RefreshToken == token
}

// # Repository Contracts

// Repository defines the persistence contract for accounts.
type Repository interface {
	/*
		FindByIdentity returns the account whose username equals username or
		whose email equals email. Empty arguments never match.

		Parameters:
		  - context: context.Context
		  - username: string (already normalized)
		  - email: string (already trimmed)

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByIdentity(context context.Context, username, email string) (*Account, error)

	/*
		FindByID retrieves an account by its unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		Create persists a brand-new account.

		Parameters:
		  - context: context.Context
		  - account: *Account (ID and timestamps are filled in when empty)

		Returns:
		  - error: apperr.Conflict on a duplicate username or email
	*/
	Create(context context.Context, account *Account) error

	/*
		UpdateRefreshToken replaces only the stored refresh token of an account.
		A nil token clears it. Updating a missing account is not an error.

		Parameters:
		  - context: context.Context
		  - id: string
		  - token: *string

		Returns:
		  - error: Storage failures
	*/
	UpdateRefreshToken(context context.Context, id string, token *string) error

	/*
		ReplaceRefreshToken stores next only if current is still the stored
		refresh token. The check and the write are one atomic step.

		Parameters:
		  - context: context.Context
		  - id: string
		  - current: string (the token being exchanged)
		  - next: string

		Returns:
		  - error: ErrRefreshTokenMismatch when current was already replaced or cleared
	*/
	ReplaceRefreshToken(context context.Context, id, current, next string) error
}
