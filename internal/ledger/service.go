// Package ledger manages the named balances owned by a resolved account.
//
// Every mutation is a read-modify-write: the caller resolves the account, the
// service changes its entries in memory and writes the whole record back once.
// Concurrent mutations of one account are last-write-wins.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmerrifield20/walletd/internal/accounts"
	"go.uber.org/zap"
)

// ErrMissingField is returned when an entry is added without a key or value.
var ErrMissingField = errors.New("Invalid JSON format in the request body")

// ErrEntryNotFound is returned when no entry carries the requested key.
var ErrEntryNotFound = errors.New("Currency not found")

// accountWriter is the storage interface consumed by Service.
type accountWriter interface {
	Update(ctx context.Context, a *accounts.Account) error
}

// EntryInput is an entry as submitted by a caller. Nil fields were absent or
// null in the request.
type EntryInput struct {
	Key   *string  `json:"currency"`
	Value *float64 `json:"amount"`
}

// Validate reports ErrMissingField unless both fields are present.
func (in EntryInput) Validate() error {
	if in.Key == nil || in.Value == nil {
		return ErrMissingField
	}
	return nil
}

// Service implements list, add, set-by-key and remove-by-key over an account's
// entries.
type Service struct {
	store  accountWriter
	logger *zap.Logger
}

// NewService creates a new Service.
func NewService(store accountWriter, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// List returns the account's entries in order. The result is never nil.
func (s *Service) List(a *accounts.Account) []accounts.Entry {
	if a.Entries == nil {
		return []accounts.Entry{}
	}
	return a.Entries
}

// Add appends an entry. Keys are not checked for uniqueness, so adding the same
// key twice yields two entries.
func (s *Service) Add(ctx context.Context, a *accounts.Account, in EntryInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	a.Entries = append(a.Entries, accounts.Entry{Key: *in.Key, Value: *in.Value})
	return s.save(ctx, a, "add")
}

// SetByKey overwrites the value of the first entry whose key equals key.
// Later entries sharing the key are left untouched.
func (s *Service) SetByKey(ctx context.Context, a *accounts.Account, key string, value float64) error {
	idx := -1
	for i := range a.Entries {
		if a.Entries[i].Key == key {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrEntryNotFound
	}
	a.Entries[idx].Value = value
	return s.save(ctx, a, "set")
}

// RemoveByKey deletes every entry whose key equals key. Removing a key that is
// not present is not an error.
func (s *Service) RemoveByKey(ctx context.Context, a *accounts.Account, key string) error {
	kept := make([]accounts.Entry, 0, len(a.Entries))
	for _, e := range a.Entries {
		if e.Key != key {
			kept = append(kept, e)
		}
	}
	removed := len(a.Entries) - len(kept)
	a.Entries = kept
	if err := s.save(ctx, a, "remove"); err != nil {
		return err
	}
	s.logger.Debug("entries removed",
		zap.String("handle", a.Handle),
		zap.String("key", key),
		zap.Int("removed", removed),
	)
	return nil
}

func (s *Service) save(ctx context.Context, a *accounts.Account, op string) error {
	if err := s.store.Update(ctx, a); err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return accounts.ErrUnknownHandle
		}
		return fmt.Errorf("%s entry: %w", op, err)
	}
	return nil
}
