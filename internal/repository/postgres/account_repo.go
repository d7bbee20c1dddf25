package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/autofill-glue/internal/errs"
	"github.com/and161185/autofill-glue/internal/model"
)

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *model.AccountRecord) error {
	const q = `
INSERT INTO accounts (id, name, secret_hash, salt)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Name, a.SecretHash, a.Salt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.AccountRecord, error) {
	const q = `
SELECT id, name, secret_hash, salt, created_at
FROM accounts WHERE id=$1`
	return scanAccount(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByName selects an account by name.
func (r *AccountRepo) GetByName(ctx context.Context, name string) (*model.AccountRecord, error) {
	const q = `
SELECT id, name, secret_hash, salt, created_at
FROM accounts WHERE name=$1`
	return scanAccount(r.db.Pool.QueryRow(ctx, q, name))
}

func scanAccount(row pgx.Row) (*model.AccountRecord, error) {
	var a model.AccountRecord
	if err := row.Scan(&a.ID, &a.Name, &a.SecretHash, &a.Salt, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// RecordIssue stamps last_signin_at and appends to token_issues in one transaction.
func (r *AccountRepo) RecordIssue(ctx context.Context, issue model.TokenIssue) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const upd = `UPDATE accounts SET last_signin_at=now() WHERE id=$1`
	tag, err := tx.Exec(ctx, upd, issue.AccountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	const ins = `
INSERT INTO token_issues (id, account_id, device_hash, expires_at)
VALUES ($1, $2, $3, $4)`
	_, err = tx.Exec(ctx, ins, issue.ID, issue.AccountID, issue.DeviceHash, issue.ExpiresAt)
	return err
}
