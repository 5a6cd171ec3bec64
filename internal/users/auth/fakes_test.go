// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/media"
	"github.com/taibuivan/vidtube/internal/platform/sec"
	"github.com/taibuivan/vidtube/internal/users/account"
	"github.com/taibuivan/vidtube/internal/users/auth"
	"github.com/taibuivan/vidtube/pkg/uuid"
)

// # Credential Store

// memoryStore is an in-memory account.Repository with unique username and email.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]*account.Account

	// hideIdentity makes FindByIdentity miss, simulating a lost pre-check race.
	hideIdentity bool
	// loseWrites makes FindByID miss freshly created accounts.
	loseWrites bool
	// beforeReplace runs ahead of every ReplaceRefreshToken, outside the lock.
	beforeReplace func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[string]*account.Account)}
}

func (store *memoryStore) FindByIdentity(_ context.Context, username, email string) (*account.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.hideIdentity {
		return nil, apperr.NotFound("Account")
	}
	for _, stored := range store.accounts {
		if username != "" && stored.Username == username {
			return clone(stored), nil
		}
	}
	for _, stored := range store.accounts {
		if email != "" && stored.Email == email {
			return clone(stored), nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (store *memoryStore) FindByID(_ context.Context, id string) (*account.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.accounts[id]
	if !ok || store.loseWrites {
		return nil, apperr.NotFound("Account")
	}
	return clone(stored), nil
}

func (store *memoryStore) Create(_ context.Context, created *account.Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, stored := range store.accounts {
		if stored.Username == created.Username || stored.Email == created.Email {
			return apperr.Conflict("User with email or username already exists")
		}
	}

	created.ID = uuid.New()
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	store.accounts[created.ID] = clone(created)
	return nil
}

func (store *memoryStore) UpdateRefreshToken(_ context.Context, id string, token *string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if stored, ok := store.accounts[id]; ok {
		if token == nil {
			stored.RefreshToken = nil
		} else {
			value := *token
			stored.RefreshToken = &value
		}
	}
	return nil
}

func (store *memoryStore) ReplaceRefreshToken(_ context.Context, id, current, next string) error {
	if store.beforeReplace != nil {
		store.beforeReplace()
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.accounts[id]
	if !ok || !stored.HasRefreshToken(current) {
		return account.ErrRefreshTokenMismatch
	}
	stored.RefreshToken = &next
	return nil
}

func (store *memoryStore) count() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.accounts)
}

// storedToken returns the refresh token currently persisted for id.
func (store *memoryStore) storedToken(t *testing.T, id string) *string {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.accounts[id]
	require.True(t, ok, "account %s not stored", id)
	return stored.RefreshToken
}

func clone(source *account.Account) *account.Account {
	copied := *source
	if source.RefreshToken != nil {
		token := *source.RefreshToken
		copied.RefreshToken = &token
	}
	return &copied
}

// # Media Uploader

// fakeUploader returns a CDN URL derived from the asset filename.
type fakeUploader struct {
	fail     map[string]bool
	emptyURL map[string]bool
	uploaded []string
	// staged holds the staged bytes seen for each filename at upload time.
	staged map[string][]byte
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{fail: map[string]bool{}, emptyURL: map[string]bool{}, staged: map[string][]byte{}}
}

func (uploader *fakeUploader) Upload(_ context.Context, asset *media.Asset) (*media.Uploaded, error) {
	if asset == nil {
		return nil, media.ErrNoFile
	}
	if asset.LocalPath != "" {
		content, err := os.ReadFile(asset.LocalPath)
		if err != nil {
			return nil, err
		}
		uploader.staged[asset.Filename] = content
	}
	if uploader.fail[asset.Filename] {
		return nil, errors.New("storage unavailable")
	}
	uploader.uploaded = append(uploader.uploaded, asset.Filename)
	if uploader.emptyURL[asset.Filename] {
		return &media.Uploaded{}, nil
	}
	return &media.Uploaded{URL: "https://cdn.example.com/" + asset.Filename, Key: asset.Filename}, nil
}

// # Login Guard

// memoryGuard locks a key after max failures.
type memoryGuard struct {
	max      int
	failures map[string]int
}

func newMemoryGuard(max int) *memoryGuard {
	return &memoryGuard{max: max, failures: map[string]int{}}
}

func (guard *memoryGuard) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if guard.failures[key] >= guard.max {
		return false, 90 * time.Second, nil
	}
	return true, 0, nil
}

func (guard *memoryGuard) Fail(_ context.Context, key string) error {
	guard.failures[key]++
	return nil
}

func (guard *memoryGuard) Reset(_ context.Context, key string) error {
	delete(guard.failures, key)
	return nil
}

// # Recorder

type outcomeRecorder struct {
	outcomes []string
}

func (recorder *outcomeRecorder) ObserveSession(operation, outcome string) {
	recorder.outcomes = append(recorder.outcomes, operation+":"+outcome)
}

// # Fixture

type fixture struct {
	service  *auth.Service
	store    *memoryStore
	uploader *fakeUploader
	guard    *memoryGuard
	recorder *outcomeRecorder
	tokens   *sec.TokenService
	hasher   *sec.BcryptHasher
}

func testTokenConfig() sec.TokenConfig {
	return sec.TokenConfig{
		AccessSecret:  "test-access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "test-refresh-secret",
		RefreshTTL:    240 * time.Hour,
		Issuer:        "vidtube",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := sec.NewTokenService(testTokenConfig())
	require.NoError(t, err)

	fx := &fixture{
		store:    newMemoryStore(),
		uploader: newFakeUploader(),
		guard:    newMemoryGuard(3),
		recorder: &outcomeRecorder{},
		tokens:   tokens,
		hasher:   sec.NewBcryptHasher(bcrypt.MinCost),
	}
	fx.service = auth.NewService(fx.store, fx.hasher, fx.tokens, fx.uploader,
		auth.WithLoginGuard(fx.guard),
		auth.WithRecorder(fx.recorder),
	)
	return fx
}

func validRegistration() auth.RegisterInput {
	return auth.RegisterInput{
		FullName: "Alice Liddell",
		Email:    "alice@example.com",
		Username: "Alice",
		Password: "wonderland-42",
		Avatar:   &media.Asset{Filename: "avatar.png"},
	}
}

// registered creates the default account and returns its profile.
func (fx *fixture) registered(t *testing.T) *account.Profile {
	t.Helper()
	profile, err := fx.service.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	return profile
}

// loggedIn registers the default account and logs it in.
func (fx *fixture) loggedIn(t *testing.T) *auth.Session {
	t.Helper()
	fx.registered(t)
	session, err := fx.service.Login(context.Background(), auth.LoginInput{Username: "alice", Password: "wonderland-42"})
	require.NoError(t, err)
	return session
}

// requireCode asserts err is an AppError with code and HTTP status.
func requireCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError, "expected *apperr.AppError, got %v", err)
	require.Equal(t, code, appError.Code, appError.Message)
	require.Equal(t, status, appError.HTTPStatus)
}
