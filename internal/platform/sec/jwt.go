// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// session manager through the auth package's PasswordHasher and TokenSigner
// interfaces.
//
// Access and refresh tokens are signed with different HMAC secrets so that a
// refresh token can never be replayed as an access token and vice versa.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or shape checks.
var ErrInvalidToken = errors.New("sec: invalid token")

// AccessClaims represents the payload embedded inside a JWT access token.
//
// Identity fields are abbreviated to keep the JWT payload small.
type AccessClaims struct {
	jwt.RegisteredClaims

	AccountID string `json:"uid"`
	Username  string `json:"unm"`
	Email     string `json:"eml"`
	FullName  string `json:"fnm"`
}

// RefreshClaims represents the payload of a refresh token. It only carries the
// subject; everything else is resolved from the stored account.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// AccessSubject is the identity an access token is issued for.
type AccessSubject struct {
	AccountID string
	Username  string
	Email     string
	FullName  string
}

// TokenConfig holds the secrets and lifetimes of both token kinds.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService handles generation and verification of HS256 JWT tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	clock         func() time.Time
}

// Option customizes a [TokenService].
type Option func(*TokenService)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(clock func() time.Time) Option {
	return func(service *TokenService) {
		service.clock = clock
	}
}

// NewTokenService creates a new TokenService.
func NewTokenService(cfg TokenConfig, opts ...Option) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("sec: access and refresh secrets are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("sec: token lifetimes must be positive")
	}

	service := &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// AccessTTL returns the configured access token lifetime.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }

// SignAccess creates a short-lived access token for subject.
func (service *TokenService) SignAccess(subject AccessSubject) (string, error) {
	currentTime := service.clock()
	claims := AccessClaims{
		RegisteredClaims: service.registered(subject.AccountID, currentTime, service.accessTTL),
		AccountID:        subject.AccountID,
		Username:         subject.Username,
		Email:            subject.Email,
		FullName:         subject.FullName,
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	return signedToken, nil
}

// SignRefresh creates a long-lived refresh token for accountID.
//
// Every token gets a unique ID so two tokens minted in the same second differ,
// which the stored-value comparison on refresh relies on.
func (service *TokenService) SignRefresh(accountID string) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: service.registered(accountID, service.clock(), service.refreshTTL),
	}
	claims.ID = uuid.NewString()

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}

	return signedToken, nil
}

// VerifyAccess checks the signature and validity of an access token.
func (service *TokenService) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := service.parse(tokenString, claims, service.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh checks the signature and validity of a refresh token.
func (service *TokenService) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := service.parse(tokenString, claims, service.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (service *TokenService) registered(subject string, issuedAt time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    service.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
}

func (service *TokenService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.clock),
	}
	if service.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(service.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, parserOptions...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return nil
}
