package accounts

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrUnknownHandle is returned when no account is registered under a handle.
var ErrUnknownHandle = errors.New("username does not exist")

// ErrBadSecret is returned when a secret does not match the stored hash.
var ErrBadSecret = errors.New("password is incorrect")

// secretHasher is the hashing interface consumed by Service, satisfied by
// *identity.BcryptHasher.
type secretHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// Service implements the credential rules: registration, authentication and
// resolution of a verified handle back to its current account.
type Service struct {
	store  Store
	hasher secretHasher
	logger *zap.Logger
}

// NewService creates a new Service.
func NewService(store Store, hasher secretHasher, logger *zap.Logger) *Service {
	return &Service{store: store, hasher: hasher, logger: logger}
}

// Register creates a new account with an empty ledger.
//
// The contact is checked before the handle, so a request that collides on both
// reports ErrDuplicateContact. The checks are not atomic with the insert; the
// store's uniqueness constraints catch what slips through a concurrent race.
func (s *Service) Register(ctx context.Context, handle, contact, secret string) (*Account, error) {
	if _, err := s.store.GetByContact(ctx, contact); err == nil {
		return nil, ErrDuplicateContact
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup contact: %w", err)
	}

	if _, err := s.store.GetByHandle(ctx, handle); err == nil {
		return nil, ErrDuplicateHandle
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup handle: %w", err)
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	a := &Account{
		Handle:     handle,
		Contact:    contact,
		SecretHash: hash,
		Entries:    []Entry{},
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicateContact) || errors.Is(err, ErrDuplicateHandle) {
			s.logger.Warn("registration lost uniqueness race",
				zap.String("handle", handle),
				zap.Error(err),
			)
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account registered", zap.String("handle", handle), zap.String("account_id", a.ID))
	return a, nil
}

// Authenticate verifies a handle/secret pair and returns the account on success.
func (s *Service) Authenticate(ctx context.Context, handle, secret string) (*Account, error) {
	a, err := s.Resolve(ctx, handle)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(secret, a.SecretHash) {
		return nil, ErrBadSecret
	}
	return a, nil
}

// Resolve fetches the current account for a handle asserted by a verified
// token. A token can outlive its account, so every protected call goes
// through here.
func (s *Service) Resolve(ctx context.Context, handle string) (*Account, error) {
	a, err := s.store.GetByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnknownHandle
		}
		return nil, fmt.Errorf("lookup handle: %w", err)
	}
	return a, nil
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
