// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	"github.com/taibuivan/vidtube/internal/platform/respond"
	"github.com/taibuivan/vidtube/internal/users/account"
)

// Authenticator resolves an access token to the account it belongs to.
//
// # Why an interface?
//
// It decouples the middleware from the auth service implementation so that
// tests can inject a stub.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*account.Profile, error)
}

/*
AccessToken locates the access token presented with a request.

The accessToken cookie takes priority; otherwise an
'Authorization: Bearer <token>' header is used. Returns "" when neither is present.
*/
func AccessToken(request *http.Request) string {
	if cookie, err := request.Cookie(constants.AccessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := request.Header.Get(constants.HeaderAuthorization)
	if len(header) > len(constants.BearerPrefix) && strings.EqualFold(header[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		return strings.TrimSpace(header[len(constants.BearerPrefix):])
	}

	return ""
}

// RequireAccount blocks requests that do not carry a valid access token.
//
// # Flow
//  1. Locate the token with [AccessToken].
//  2. Resolve it through the [Authenticator]; any failure aborts with its error.
//  3. Inject the [*account.Profile] into the request context for downstream use.
func RequireAccount(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			profile, err := authenticator.Authenticate(request.Context(), AccessToken(request))
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			recordIdentity(request.Context(), profile.ID)
			ctx := ctxutil.WithAccount(request.Context(), profile)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Identity Slot

// identitySlot lets RequireAccount report the account id back to the
// StructuredLogger that wraps it, since outer middleware cannot see inner contexts.
type identitySlot struct {
	accountID string
}

type identitySlotKey struct{}

func withIdentitySlot(ctx context.Context) (context.Context, *identitySlot) {
	slot := &identitySlot{}
	return context.WithValue(ctx, identitySlotKey{}, slot), slot
}

func recordIdentity(ctx context.Context, accountID string) {
	if slot, ok := ctx.Value(identitySlotKey{}).(*identitySlot); ok {
		slot.accountID = accountID
	}
}
