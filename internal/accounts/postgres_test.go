//go:build integration

package accounts_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/walletd/internal/accounts"
)

func setupPostgres(t *testing.T) *accounts.PostgresStore {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect to postgres: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/001_accounts.up.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	db.Exec(ctx, "DELETE FROM accounts")

	t.Cleanup(db.Close)
	return accounts.NewPostgresStore(db)
}

func TestPostgresStore_roundTrip(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	a := &accounts.Account{Handle: "alice", Contact: "a@x.com", SecretHash: "$2a$10$hash"}
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected ID to be assigned")
	}

	got, err := store.GetByHandle(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByHandle: %v", err)
	}
	if got.ID != a.ID || got.Contact != "a@x.com" || len(got.Entries) != 0 {
		t.Errorf("unexpected record: %#v", got)
	}

	got.Entries = []accounts.Entry{{Key: "USD", Value: 100}, {Key: "USD", Value: 50}}
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	again, err := store.GetByContact(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByContact: %v", err)
	}
	if len(again.Entries) != 2 || again.Entries[1] != (accounts.Entry{Key: "USD", Value: 50}) {
		t.Errorf("entries not persisted in order: %#v", again.Entries)
	}
}

func TestPostgresStore_uniqueConstraints(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	store.Create(ctx, &accounts.Account{Handle: "alice", Contact: "a@x.com", SecretHash: "h"})

	err := store.Create(ctx, &accounts.Account{Handle: "bob", Contact: "a@x.com", SecretHash: "h"})
	if !errors.Is(err, accounts.ErrDuplicateContact) {
		t.Errorf("expected ErrDuplicateContact, got %v", err)
	}
	err = store.Create(ctx, &accounts.Account{Handle: "alice", Contact: "b@x.com", SecretHash: "h"})
	if !errors.Is(err, accounts.ErrDuplicateHandle) {
		t.Errorf("expected ErrDuplicateHandle, got %v", err)
	}
}

func TestPostgresStore_notFound(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	if _, err := store.GetByHandle(ctx, "nobody"); !errors.Is(err, accounts.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	err := store.Update(ctx, &accounts.Account{ID: "00000000-0000-0000-0000-000000000000"})
	if !errors.Is(err, accounts.ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
}
