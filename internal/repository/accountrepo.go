// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/autofill-glue/internal/model"
)

// AccountRepository stores enrolled device accounts and their token issues.
type AccountRepository interface {
	// Create inserts a new account. A taken name yields errs.ErrAlreadyExists.
	Create(ctx context.Context, a *model.AccountRecord) error
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.AccountRecord, error)
	// GetByName loads an account by name.
	GetByName(ctx context.Context, name string) (*model.AccountRecord, error)
	// RecordIssue stores an issued token and stamps the account's last sign-in.
	RecordIssue(ctx context.Context, issue model.TokenIssue) error
}
