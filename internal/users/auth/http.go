// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	"github.com/taibuivan/vidtube/internal/platform/media"
	"github.com/taibuivan/vidtube/internal/platform/middleware"
	requestutil "github.com/taibuivan/vidtube/internal/platform/request"
	"github.com/taibuivan/vidtube/internal/platform/respond"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before the rest spills to temporary files.
const multipartMemory = 1 << 20

// # Definitions & Constructors

// HandlerConfig carries the transport settings of the users endpoints.
type HandlerConfig struct {
	UploadDir      string
	MaxUploadBytes int64
	CookieSecure   bool
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

// Handler implements the account and session HTTP endpoints.
//
// # Scope
//
// Transport only: cookie handling, multipart staging and response envelopes.
// Every rule about credentials and tokens lives in [Service].
type Handler struct {
	authService *Service
	config      HandlerConfig
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service, config HandlerConfig) *Handler {
	return &Handler{authService: service, config: config}
}

// Routes returns a [chi.Router] with the users endpoints.
//
// # Endpoints
//   - POST /register      : Creates an account (multipart).
//   - POST /login         : Issues a token pair and sets cookies.
//   - POST /refresh-token : Rotates the token pair.
//   - POST /logout        : Revokes the refresh token (authenticated).
//   - GET  /me            : Returns the current account (authenticated).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh-token", handler.refresh)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAccount(handler.authService))
		r.Post("/logout", handler.logout)
		r.Get("/me", handler.currentAccount)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

/*
Register creates a new account.

POST /api/v1/users/register

Description: Stages the avatar and optional cover on local disk, then lets the
service upload them and persist the account. Staged files are always removed.

Request:
  - Body: multipart/form-data (fullName, email, username, password, avatar, coverImage)

Response:
  - 201: Profile: Created account
  - 400: VALIDATION_ERROR / UPLOAD_ERROR
  - 409: CONFLICT: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, handler.config.MaxUploadBytes)
	if err := request.ParseMultipartForm(multipartMemory); err != nil {
		respond.Error(writer, request, multipartError(err))
		return
	}
	defer func() { _ = request.MultipartForm.RemoveAll() }()

	avatar, err := handler.stage(request, FieldAvatar)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer media.Discard(avatar)

	cover, err := handler.stage(request, FieldCoverImage)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer media.Discard(cover)

	profile, err := handler.authService.Register(request.Context(), RegisterInput{
		FullName: request.FormValue(FieldFullName),
		Email:    request.FormValue(FieldEmail),
		Username: request.FormValue(FieldUsername),
		Password: request.FormValue(FieldPassword),
		Avatar:   avatar,
		Cover:    cover,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, profile, "User registered successfully")
}

/*
Login authenticates an account and establishes a session.

POST /api/v1/users/login

Request:
  - Body: loginRequest (Username or Email, Password)

Response:
  - 200: Session: Token pair and account; both tokens are also set as cookies
  - 400: VALIDATION_ERROR
  - 401: UNAUTHORIZED: Wrong password
  - 404: NOT_FOUND: No such account
  - 429: RATE_LIMITED: Too many failed attempts
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session)
	respond.OK(writer, session, "User logged in successfully")
}

/*
Refresh rotates the token pair.

POST /api/v1/users/refresh-token

Description: The refresh token is read from the refreshToken cookie, falling
back to the JSON body for clients that cannot hold cookies.

Response:
  - 200: Token pair; cookies are replaced
  - 400: VALIDATION_ERROR: Signature or expiry check failed
  - 401: UNAUTHORIZED: Missing, stale or revoked token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	refreshToken := ""
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		refreshToken = cookie.Value
	}

	if refreshToken == "" {
		var input refreshRequest
		if err := requestutil.DecodeOptionalJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
		refreshToken = input.RefreshToken
	}

	session, err := handler.authService.Refresh(request.Context(), refreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session)
	respond.OK(writer, map[string]string{
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
	}, "Access token refreshed")
}

/*
Logout terminates the current session.

POST /api/v1/users/logout

Response:
  - 200: Empty object; both cookies are cleared
  - 401: UNAUTHORIZED
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	profile, err := requestutil.RequiredAccount(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), profile.ID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearSessionCookies(writer)
	respond.OK(writer, map[string]any{}, "User logged out")
}

/*
CurrentAccount returns the account attached by authentication.

GET /api/v1/users/me
*/
func (handler *Handler) currentAccount(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, ctxutil.GetAccount(request.Context()), "Current user fetched successfully")
}

// # Helpers

// stage copies the named multipart file to the upload directory. An absent
// file yields a nil asset.
func (handler *Handler) stage(request *http.Request, field string) (*media.Asset, error) {
	files := request.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, nil
	}

	asset, err := media.Stage(handler.config.UploadDir, files[0])
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return asset, nil
}

func (handler *Handler) setSessionCookies(writer http.ResponseWriter, session *Session) {
	http.SetCookie(writer, handler.cookie(constants.AccessTokenCookieName, session.AccessToken, handler.config.AccessTTL))
	http.SetCookie(writer, handler.cookie(constants.RefreshTokenCookieName, session.RefreshToken, handler.config.RefreshTTL))
}

func (handler *Handler) clearSessionCookies(writer http.ResponseWriter) {
	http.SetCookie(writer, handler.cookie(constants.AccessTokenCookieName, "", -1))
	http.SetCookie(writer, handler.cookie(constants.RefreshTokenCookieName, "", -1))
}

// cookie builds an HttpOnly session cookie. A negative ttl expires it immediately.
func (handler *Handler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.SessionCookiePath,
		Secure:   handler.config.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}

	switch {
	case ttl < 0:
		cookie.MaxAge = -1
	case ttl > 0:
		cookie.MaxAge = int(ttl / time.Second)
	}

	return cookie
}

// multipartError maps form parsing failures to client errors.
func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return apperr.ValidationError("Upload exceeds the maximum allowed size")
	}
	if errors.Is(err, http.ErrNotMultipart) {
		return apperr.ValidationError("Expected a multipart/form-data body")
	}
	return apperr.ValidationError("Malformed multipart body").WithCause(err)
}
