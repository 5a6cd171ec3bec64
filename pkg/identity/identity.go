// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package identity canonicalizes the login identifiers of an account.
//
// # Normalization
//
// Usernames are compared case-insensitively and independent of Unicode
// compatibility forms, so "Ａlice" (full-width) and "alice" name the same
// account. Emails are trimmed and lower-cased, so registration, lookup and
// login throttling all agree on one spelling.
package identity

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Username returns the canonical form of a username: NFKC-normalized,
// trimmed and lower-cased.
func Username(raw string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(raw)))
}

// Email returns the canonical form of an email address: trimmed and lower-cased.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Key returns a stable key for the identity a login attempt targets.
//
// The username wins when both are supplied, matching the lookup order of the
// credential store. An empty result means no identity was supplied.
func Key(username, email string) string {
	if name := Username(username); name != "" {
		return "u:" + name
	}
	if address := Email(email); address != "" {
		return "e:" + address
	}
	return ""
}
