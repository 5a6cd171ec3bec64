// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/platform/ctxutil"
	"github.com/taibuivan/vidtube/internal/platform/middleware"
	"github.com/taibuivan/vidtube/internal/users/account"
)

// stubAuthenticator accepts exactly one token.
type stubAuthenticator struct {
	validToken string
	seen       string
}

func (stub *stubAuthenticator) Authenticate(_ context.Context, token string) (*account.Profile, error) {
	stub.seen = token
	if token == "" {
		return nil, apperr.Unauthorized("Unauthorized request")
	}
	if token != stub.validToken {
		return nil, apperr.ValidationError("Invalid access token")
	}
	return &account.Profile{ID: "acc-1", Username: "alice"}, nil
}

type recordedObservation struct {
	method string
	route  string
	status int
}

type fakeObserver struct {
	observations []recordedObservation
}

func (observer *fakeObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	observer.observations = append(observer.observations, recordedObservation{method, route, status})
}

type corsConfig struct {
	development bool
	origins     []string
}

func (cfg corsConfig) IsDevelopment() bool      { return cfg.development }
func (cfg corsConfig) AllowedOrigins() []string { return cfg.origins }

/*
TestAccessToken_ResolutionOrder verifies the cookie wins over the Authorization header.
*/
func TestAccessToken_ResolutionOrder(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{"cookie_only", "cookie-token", "", "cookie-token"},
		{"bearer_only", "", "Bearer header-token", "header-token"},
		{"bearer_lowercase", "", "bearer header-token", "header-token"},
		{"cookie_wins", "cookie-token", "Bearer header-token", "cookie-token"},
		{"wrong_scheme", "", "Basic dXNlcjpwYXNz", ""},
		{"bare_prefix", "", "Bearer ", ""},
		{"none", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				request.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				request.Header.Set(constants.HeaderAuthorization, tt.header)
			}

			assert.Equal(t, tt.want, middleware.AccessToken(request))
		})
	}
}

/*
TestRequireAccount attaches the profile on success and rejects everything else.
*/
func TestRequireAccount(t *testing.T) {
	authenticator := &stubAuthenticator{validToken: "good"}

	var attached *account.Profile
	handler := middleware.RequireAccount(authenticator)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		attached = ctxutil.GetAccount(request.Context())
		writer.WriteHeader(http.StatusOK)
	}))

	t.Run("valid_token", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/me", nil)
		request.Header.Set(constants.HeaderAuthorization, "Bearer good")
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, attached)
		assert.Equal(t, "acc-1", attached.ID)
	})

	t.Run("missing_token", func(t *testing.T) {
		attached = nil
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Nil(t, attached)
	})

	t.Run("invalid_token", func(t *testing.T) {
		attached = nil
		request := httptest.NewRequest(http.MethodGet, "/me", nil)
		request.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: "forged"})
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "forged", authenticator.seen)
		assert.Nil(t, attached)
	})
}

/*
TestStructuredLogger_RecordsAccount checks the finished-request log carries the account id.
*/
func TestStructuredLogger_RecordsAccount(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	inner := middleware.RequireAccount(&stubAuthenticator{validToken: "good"})(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))
	handler := middleware.RequestID()(middleware.StructuredLogger(logger)(inner))

	request := httptest.NewRequest(http.MethodGet, "/me", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer good")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.NotEmpty(t, recorder.Header().Get(constants.HeaderXRequestID))
	assert.Contains(t, buffer.String(), `"msg":"http_request_finished"`)
	assert.Contains(t, buffer.String(), `"account_id":"acc-1"`)
}

func TestRequestID_ReusesClientValue(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "client-id")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, "client-id", seen)
	assert.Equal(t, "client-id", recorder.Header().Get(constants.HeaderXRequestID))
}

/*
TestRateLimiter_RejectsAfterBurst ensures a client exceeding the bucket gets 429.
*/
func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewRateLimiter(ctx, 0.001, 2)
	handler := limiter.Handler(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 3)
	for range 3 {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.RemoteAddr = "203.0.113.7:5000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		statuses = append(statuses, recorder.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)

	// A different client has its own bucket.
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "198.51.100.1:5000"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestCORS_AllowList reflects only configured origins outside development.
*/
func TestCORS_AllowList(t *testing.T) {
	next := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	handler := middleware.CORS(corsConfig{origins: []string{"https://app.vidtube.dev"}})(next)

	allowed := httptest.NewRequest(http.MethodOptions, "/api/v1/users/login", nil)
	allowed.Header.Set(constants.HeaderOrigin, "https://app.vidtube.dev")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, allowed)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://app.vidtube.dev", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", recorder.Header().Get("Access-Control-Allow-Credentials"))

	denied := httptest.NewRequest(http.MethodGet, "/", nil)
	denied.Header.Set(constants.HeaderOrigin, "https://evil.example.com")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, denied)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestPanicRecovery_Returns500(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	handler := middleware.PanicRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "boom")
	assert.Contains(t, buffer.String(), "panic_recovered")
}

/*
TestMetrics_UsesRoutePattern checks observations are labelled with the chi pattern.
*/
func TestMetrics_UsesRoutePattern(t *testing.T) {
	observer := &fakeObserver{}

	router := chi.NewRouter()
	router.Use(middleware.Metrics(observer))
	router.Get("/users/{id}", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusAccepted)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/42", nil))

	require.Len(t, observer.observations, 1)
	assert.Equal(t, recordedObservation{http.MethodGet, "/users/{id}", http.StatusAccepted}, observer.observations[0])
}
