package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Unique constraint names created by migrations/001_accounts.up.sql.
const (
	pgContactConstraint = "accounts_email_key"
	pgHandleConstraint  = "accounts_username_key"
)

// PostgresStore persists accounts to PostgreSQL. Entries live in a JSONB
// column so that every ledger mutation is a single-row write.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create implements Store. Sets ID, CreatedAt, UpdatedAt on a.
func (r *PostgresStore) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.NewString()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	q := `
		INSERT INTO accounts (id, username, email, password_hash, currencies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, q,
		a.ID, a.Handle, a.Contact, a.SecretHash, entriesOrEmpty(a.Entries),
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == pgContactConstraint {
				return ErrDuplicateContact
			}
			return ErrDuplicateHandle
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetByHandle implements Store.
func (r *PostgresStore) GetByHandle(ctx context.Context, handle string) (*Account, error) {
	return r.scanOne(ctx, `
		SELECT id::text, username, email, password_hash, currencies, created_at, updated_at
		FROM accounts WHERE username = $1`, handle)
}

// GetByContact implements Store.
func (r *PostgresStore) GetByContact(ctx context.Context, contact string) (*Account, error) {
	return r.scanOne(ctx, `
		SELECT id::text, username, email, password_hash, currencies, created_at, updated_at
		FROM accounts WHERE email = $1`, contact)
}

// Update implements Store. Handle and contact are immutable and not written.
func (r *PostgresStore) Update(ctx context.Context, a *Account) error {
	now := time.Now().UTC()
	q := `UPDATE accounts SET password_hash = $2, currencies = $3, updated_at = $4 WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, a.ID, a.SecretHash, entriesOrEmpty(a.Entries), now)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	a.UpdatedAt = now
	return nil
}

// Ping implements Store.
func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// scanOne executes a single-row query and scans the result into an Account.
// Column order: id, username, email, password_hash, currencies, created_at, updated_at.
func (r *PostgresStore) scanOne(ctx context.Context, q string, args ...any) (*Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, q, args...).Scan(
		&a.ID, &a.Handle, &a.Contact, &a.SecretHash, &a.Entries,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

// entriesOrEmpty keeps the JSONB column a JSON array rather than null.
func entriesOrEmpty(e []Entry) []Entry {
	if e == nil {
		return []Entry{}
	}
	return e
}
