package accounts

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when no record matches a lookup or update.
var ErrNotFound = errors.New("account not found")

// ErrDuplicateContact is returned when the contact address is already registered.
var ErrDuplicateContact = errors.New("email already exists")

// ErrDuplicateHandle is returned when the handle is already taken.
var ErrDuplicateHandle = errors.New("user already exists")

// Store persists accounts. Implementations must be safe for concurrent use.
//
// Create enforces handle and contact uniqueness as a backstop to the checks
// Service.Register performs, reporting ErrDuplicateContact or
// ErrDuplicateHandle. Update writes the whole record and reports ErrNotFound
// when the account no longer exists.
type Store interface {
	Create(ctx context.Context, a *Account) error
	GetByHandle(ctx context.Context, handle string) (*Account, error)
	GetByContact(ctx context.Context, contact string) (*Account, error)
	Update(ctx context.Context, a *Account) error
	Ping(ctx context.Context) error
}
