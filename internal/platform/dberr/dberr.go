// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

// IsNoRows reports whether err is the pgx "no rows in result set" sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// Wrap inspects a database error and classifies it into a meaningful [apperr.AppError].
//
//   - pgx.ErrNoRows becomes NOT_FOUND for resource.
//   - A unique violation becomes CONFLICT.
//   - Anything else is wrapped with action for the server log and left for
//     respond.Error to convert into INTERNAL_ERROR.
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	if IsNoRows(err) {
		return apperr.NotFound(resource)
	}

	if IsUniqueViolation(err) {
		return apperr.Conflict(resource + " already exists").WithCause(err)
	}

	return fmt.Errorf("%s: %w", action, err)
}
