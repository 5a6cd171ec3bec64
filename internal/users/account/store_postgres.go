// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/database/schema"
	"github.com/taibuivan/vidtube/internal/platform/dberr"
	"github.com/taibuivan/vidtube/pkg/uuid"
)

// resourceAccount is the resource name used in NOT_FOUND and CONFLICT messages.
const resourceAccount = "Account"

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool, clock: time.Now}
}

// selectAccount is the projection shared by every lookup.
var selectAccount = fmt.Sprintf(`SELECT %s FROM %s`,
	strings.Join(schema.UserAccount.Columns(), ", "), schema.UserAccount.Table)

/*
Create inserts a new row into users.account.

Description: Generates a UUIDv7 when the ID is empty and stamps both
timestamps. The unique indexes on username and email turn a concurrent
duplicate registration into apperr.Conflict.

Parameters:
  - context: context.Context
  - account: *Account

Returns:
  - error: apperr.Conflict or database errors
*/
func (repository *PostgresRepository) Create(context context.Context, account *Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		schema.UserAccount.Table, strings.Join(schema.UserAccount.Columns(), ", "),
	)

	if account.ID == "" {
		account.ID = uuid.New()
	}
	now := repository.clock().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.Username,
		account.Email,
		account.FullName,
		account.PasswordHash,
		account.Avatar,
		account.CoverImage,
		account.RefreshToken,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("User with email or username already exists").WithCause(err)
		}
		return fmt.Errorf("postgres_account_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByIdentity returns the account matching either identity field.

Description: Empty arguments are bound as NULL so they can never match a row.
When both fields match different accounts the username match wins.

Parameters:
  - context: context.Context
  - username: string
  - email: string

Returns:
  - *Account: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByIdentity(context context.Context, username, email string) (*Account, error) {
	if username == "" && email == "" {
		return nil, apperr.NotFound(resourceAccount)
	}

	query := fmt.Sprintf(`%s
		WHERE %s = $1 OR %s = $2
		ORDER BY (%s = $1) DESC NULLS LAST
		LIMIT 1`,
		selectAccount,
		schema.UserAccount.Username, schema.UserAccount.Email,
		schema.UserAccount.Username,
	)

	row := repository.pool.QueryRow(context, query, nullable(username), nullable(email))
	account, err := scanAccount(row)
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount, "postgres_account_repo_find_by_identity_failed")
	}

	return account, nil
}

/*
FindByID retrieves an account by primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Account: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Account, error) {
	if !uuid.Valid(id) {
		return nil, apperr.NotFound(resourceAccount)
	}

	query := fmt.Sprintf(`%s WHERE %s = $1`, selectAccount, schema.UserAccount.ID)

	account, err := scanAccount(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount, "postgres_account_repo_find_by_id_failed")
	}

	return account, nil
}

/*
UpdateRefreshToken overwrites the refresh token column and nothing else.

Parameters:
  - context: context.Context
  - id: string
  - token: *string (nil clears the column)

Returns:
  - error: Database errors
*/
func (repository *PostgresRepository) UpdateRefreshToken(context context.Context, id string, token *string) error {
	if !uuid.Valid(id) {
		return nil
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.UserAccount.Table,
		schema.UserAccount.RefreshToken, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
	)

	if _, err := repository.pool.Exec(context, query, id, token, repository.clock().UTC()); err != nil {
		return fmt.Errorf("postgres_account_repo_update_refresh_token_failed: %w", err)
	}

	return nil
}

/*
ReplaceRefreshToken swaps the refresh token with a compare-and-set UPDATE.

Parameters:
  - context: context.Context
  - id: string
  - current: string
  - next: string

Returns:
  - error: ErrRefreshTokenMismatch when no row held current, or database errors
*/
func (repository *PostgresRepository) ReplaceRefreshToken(context context.Context, id, current, next string) error {
	if !uuid.Valid(id) {
		return ErrRefreshTokenMismatch
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $3, %s = $4 WHERE %s = $1 AND %s = $2`,
		schema.UserAccount.Table,
		schema.UserAccount.RefreshToken, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.RefreshToken,
	)

	tag, err := repository.pool.Exec(context, query, id, current, next, repository.clock().UTC())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_replace_refresh_token_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRefreshTokenMismatch
	}

	return nil
}

// scanAccount hydrates an Account in schema.UserAccount.Columns order.
func scanAccount(row pgx.Row) (*Account, error) {
	account := &Account{}
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.FullName,
		&account.PasswordHash,
		&account.Avatar,
		&account.CoverImage,
		&account.RefreshToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// nullable binds an empty string as SQL NULL.
func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
