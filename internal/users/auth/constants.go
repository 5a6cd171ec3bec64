// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Field Identifiers

// Form and JSON field names shared by validation details and request payloads.
const (
	FieldFullName     = "fullName"
	FieldEmail        = "email"
	FieldUsername     = "username"
	FieldPassword     = "password"
	FieldAvatar       = "avatar"
	FieldCoverImage   = "coverImage"
	FieldRefreshToken = "refreshToken"
	FieldAccessToken  = "accessToken"
	FieldUser         = "user"
)

// # Limits

// Maximum lengths in Unicode characters, mirrored by CHECK constraints on users.account.
const (
	MaxUsernameLength = 50
	MaxEmailLength    = 254
	MaxFullNameLength = 100
)

// # Operations

// Operation names reported to the [Recorder].
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpRefresh  = "refresh"
	OpLogout   = "logout"
)

// outcomeSuccess labels an operation that completed without error.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)
