// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	"github.com/taibuivan/vidtube/internal/platform/media"
	"github.com/taibuivan/vidtube/internal/platform/sec"
	"github.com/taibuivan/vidtube/internal/platform/validate"
	"github.com/taibuivan/vidtube/internal/users/account"
	"github.com/taibuivan/vidtube/pkg/identity"
)

// resourceUser names the account in client-facing NOT_FOUND messages.
const resourceUser = "User"

// Service implements the session lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// rotation or the refresh-token comparison must be reviewed by the security team.
type Service struct {
	accounts account.Repository
	hasher   PasswordHasher
	tokens   TokenSigner
	uploader MediaUploader
	guard    LoginGuard
	recorder Recorder
}

// Option customizes optional collaborators of a [Service].
type Option func(*Service)

// WithLoginGuard enables failed-login throttling.
func WithLoginGuard(guard LoginGuard) Option {
	return func(service *Service) {
		if guard != nil {
			service.guard = guard
		}
	}
}

// WithRecorder reports operation outcomes, typically to Prometheus.
func WithRecorder(recorder Recorder) Option {
	return func(service *Service) {
		if recorder != nil {
			service.recorder = recorder
		}
	}
}

// NewService constructs a new [Service] with its required collaborators.
func NewService(
	accounts account.Repository,
	hasher PasswordHasher,
	tokens TokenSigner,
	uploader MediaUploader,
	opts ...Option,
) *Service {
	service := &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		uploader: uploader,
		guard:    openGuard{},
		recorder: discardRecorder{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// # Registration Flow

/*
Register validates, uploads media for, and persists a brand new account.

Description: Account creation is the last mutating step, so a failure at any
earlier stage leaves no account behind. The identity pre-check is best effort;
a concurrent duplicate is still rejected by the store's unique indexes.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *account.Profile: The sanitized created account
  - error: Validation, Conflict, Upload, Integrity or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (profile *account.Profile, err error) {
	defer func() { service.observe(OpRegister, err) }()

	validator := &validate.Validator{}
	validator.Required(FieldFullName, input.FullName).
		Required(FieldEmail, input.Email).
		Required(FieldUsername, input.Username).
		Required(FieldPassword, input.Password)

	if validator.HasErrors() {
		return nil, validationFailed("All fields are required", validator)
	}

	username := identity.Username(input.Username)
	email := identity.Email(input.Email)
	fullName := strings.TrimSpace(input.FullName)

	validator.MaxLen(FieldUsername, username, MaxUsernameLength).
		MaxLen(FieldEmail, email, MaxEmailLength).
		MaxLen(FieldFullName, fullName, MaxFullNameLength)

	if validator.HasErrors() {
		return nil, validationFailed("One or more fields are too long", validator)
	}

	// Pre-check identity uniqueness. Return a client-safe Conflict error.
	_, err = service.accounts.FindByIdentity(context, username, email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("User with email or username already exists")
	case !apperr.HasCode(err, apperr.CodeNotFound):
		return nil, fmt.Errorf("auth_service_identity_lookup_failed: %w", err)
	}

	validator.Custom(FieldAvatar, input.Avatar == nil, "This field is required")
	if validator.HasErrors() {
		return nil, validationFailed("Avatar file is required", validator)
	}

	avatar, err := service.uploader.Upload(context, input.Avatar)
	if err != nil || avatar == nil || avatar.URL == "" {
		return nil, apperr.Upload("Avatar file could not be uploaded").WithCause(err)
	}

	coverURL := service.uploadCover(context, input.Cover)

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	created := &account.Account{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hashedPassword,
		Avatar:       avatar.URL,
		CoverImage:   coverURL,
	}

	if err := service.accounts.Create(context, created); err != nil {
		if apperr.HasCode(err, apperr.CodeConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Re-read what the store actually holds rather than echoing our input.
	stored, err := service.accounts.FindByID(context, created.ID)
	if err != nil {
		return nil, apperr.Integrity("Something went wrong while registering the user").WithCause(err)
	}

	return stored.Profile(), nil
}

// validationFailed rewraps the collected field errors under a client-facing summary.
func validationFailed(message string, validator *validate.Validator) error {
	return apperr.ValidationError(message, apperr.As(validator.Err()).Details...)
}

// uploadCover returns the cover URL, or "" when there is no cover or it failed to upload.
func (service *Service) uploadCover(context context.Context, cover *media.Asset) string {
	if cover == nil {
		return ""
	}

	uploaded, err := service.uploader.Upload(context, cover)
	if err != nil || uploaded == nil {
		ctxutil.GetLogger(context).WarnContext(context, "auth_cover_upload_failed",
			slog.Any("error", err),
		)
		return ""
	}

	return uploaded.URL
}

// # Authentication Flow

/*
Login validates credentials and issues a rotated token pair.

Description: Repeated failures against the same identity are throttled by the
LoginGuard. A failed password check leaves the stored refresh token untouched.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Token pair and sanitized account
  - error: Validation, RateLimited, NotFound, Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (session *Session, err error) {
	defer func() { service.observe(OpLogin, err) }()

	username := identity.Username(input.Username)
	email := identity.Email(input.Email)

	if username == "" && email == "" {
		return nil, apperr.ValidationError("username or email is required",
			apperr.FieldError{Field: FieldUsername, Message: "username or email is required"})
	}

	if input.Password == "" {
		return nil, apperr.ValidationError("password is required",
			apperr.FieldError{Field: FieldPassword, Message: "This field is required"})
	}

	guardKey := identity.Key(username, email)
	if err := service.checkGuard(context, guardKey); err != nil {
		return nil, err
	}

	found, err := service.accounts.FindByIdentity(context, username, email)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			// Probing for unknown identities spends the same budget as wrong passwords.
			service.recordFailure(context, guardKey)
			return nil, apperr.NotFound(resourceUser)
		}
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	// bcrypt compares in constant time.
	if !service.hasher.Verify(input.Password, found.PasswordHash) {
		service.recordFailure(context, guardKey)
		return nil, apperr.Unauthorized("Invalid user credentials")
	}

	session, err = service.rotate(context, found, nil)
	if err != nil {
		return nil, err
	}

	if resetErr := service.guard.Reset(context, guardKey); resetErr != nil {
		ctxutil.GetLogger(context).WarnContext(context, "auth_login_guard_reset_failed", slog.Any("error", resetErr))
	}

	return session, nil
}

// recordFailure counts a failed attempt. Guard errors are logged, never returned.
func (service *Service) recordFailure(context context.Context, key string) {
	if err := service.guard.Fail(context, key); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "auth_login_guard_fail_failed", slog.Any("error", err))
	}
}

// checkGuard rejects throttled identities. A guard outage never blocks logins.
func (service *Service) checkGuard(context context.Context, key string) error {
	allowed, retryAfter, err := service.guard.Allow(context, key)
	if err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "auth_login_guard_unavailable", slog.Any("error", err))
		return nil
	}
	if !allowed {
		return apperr.RateLimited(int(math.Ceil(retryAfter.Seconds())))
	}
	return nil
}

/*
Refresh exchanges the current refresh token for a new token pair.

Description: Only the refresh token stored on the account is honored. A token
that verifies but differs from the stored one was already rotated away or
revoked by logout.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *Session: New token pair and sanitized account
  - error: Unauthorized, Validation, NotFound (401) or internal failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (session *Session, err error) {
	defer func() { service.observe(OpRefresh, err) }()

	if refreshToken == "" {
		return nil, apperr.Unauthorized("Unauthorized request")
	}

	claims, err := service.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperr.ValidationError("Invalid refresh token").WithCause(err)
	}

	owner, err := service.findTokenSubject(context, claims.Subject)
	if err != nil {
		return nil, err
	}

	if !owner.HasRefreshToken(refreshToken) {
		return nil, errStaleRefreshToken()
	}

	return service.rotate(context, owner, &refreshToken)
}

/*
Logout revokes the account's refresh token.

Description: Idempotent. Clearing an already empty token or an unknown
account succeeds.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - error: Storage failures
*/
func (service *Service) Logout(context context.Context, accountID string) (err error) {
	defer func() { service.observe(OpLogout, err) }()

	if err := service.accounts.UpdateRefreshToken(context, accountID, nil); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

/*
Authenticate resolves an access token to the account it was issued for.

Parameters:
  - context: context.Context
  - accessToken: string

Returns:
  - *account.Profile: The sanitized account to attach to the request
  - error: Unauthorized, Validation, NotFound (401) or storage errors
*/
func (service *Service) Authenticate(context context.Context, accessToken string) (*account.Profile, error) {
	if accessToken == "" {
		return nil, apperr.Unauthorized("Unauthorized request")
	}

	claims, err := service.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, apperr.ValidationError("Invalid access token").WithCause(err)
	}

	owner, err := service.findTokenSubject(context, claims.Subject)
	if err != nil {
		return nil, err
	}

	return owner.Profile(), nil
}

// # Token Rotation

// rotate signs a new access and refresh token, stores the refresh token and
// returns both. Nothing is returned unless all three steps succeed.
//
// When previous is set the store only accepts the new token if previous is
// still the stored one, so two refreshes racing on one token cannot both win.
func (service *Service) rotate(context context.Context, owner *account.Account, previous *string) (*Session, error) {
	accessToken, err := service.tokens.SignAccess(sec.AccessSubject{
		AccountID: owner.ID,
		Username:  owner.Username,
		Email:     owner.Email,
		FullName:  owner.FullName,
	})
	if err != nil {
		return nil, fmt.Errorf("auth_service_sign_access_failed: %w", err)
	}

	refreshToken, err := service.tokens.SignRefresh(owner.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_sign_refresh_failed: %w", err)
	}

	if previous == nil {
		err = service.accounts.UpdateRefreshToken(context, owner.ID, &refreshToken)
	} else {
		err = service.accounts.ReplaceRefreshToken(context, owner.ID, *previous, refreshToken)
	}
	switch {
	case errors.Is(err, account.ErrRefreshTokenMismatch):
		return nil, errStaleRefreshToken()
	case err != nil:
		return nil, fmt.Errorf("auth_service_store_refresh_failed: %w", err)
	}
	owner.RefreshToken = &refreshToken

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      owner.Profile(),
	}, nil
}

func errStaleRefreshToken() error {
	return apperr.Unauthorized("Refresh token is expired or used")
}

// findTokenSubject loads the account a verified token names. An unknown
// subject is a NOT_FOUND answered with 401.
func (service *Service) findTokenSubject(context context.Context, accountID string) (*account.Account, error) {
	owner, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.NotFound(resourceUser).WithStatus(http.StatusUnauthorized)
		}
		return nil, fmt.Errorf("auth_service_token_subject_lookup_failed: %w", err)
	}
	return owner, nil
}

func (service *Service) observe(operation string, err error) {
	service.recorder.ObserveSession(operation, outcome(err))
}

// outcome maps an error to a low-cardinality metric label.
func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	var appError *apperr.AppError
	if errors.As(err, &appError) {
		return strings.ToLower(appError.Code)
	}
	return outcomeError
}
