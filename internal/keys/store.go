// Package keys stores the GitHub token outside the config file.
package keys

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mithrel/gitnotes/internal/db"
)

// TokenStore holds one token per account.
type TokenStore interface {
	Get(ctx context.Context, account string) (string, error)
	Put(ctx context.Context, account, token string) error
	Delete(ctx context.Context, account string) error
}

var ErrTokenNotFound = errors.New("token not found")

// DefaultAccount is used while the GitHub login is not yet known.
const DefaultAccount = "default"

const (
	BackendKeyring = "keyring"
	BackendState   = "state"
)

// StateStore keeps the token in the local state database.
type StateStore struct {
	DB db.Store
}

func tokenKey(account string) string {
	if account == "" {
		account = DefaultAccount
	}
	return "auth.token." + account
}

func (s *StateStore) Get(ctx context.Context, account string) (string, error) {
	var tok string
	if err := s.DB.Get(ctx, tokenKey(account), &tok); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	if tok == "" {
		return "", ErrTokenNotFound
	}
	return tok, nil
}

func (s *StateStore) Put(ctx context.Context, account, token string) error {
	return s.DB.Put(ctx, tokenKey(account), token)
}

func (s *StateStore) Delete(ctx context.Context, account string) error {
	return s.DB.Delete(ctx, tokenKey(account))
}

// Open picks the backend named by the token_store setting. A keyring that
// is not usable on this system falls back to the state database.
func Open(backend string, state db.Store) (TokenStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendKeyring:
		if KeyringAvailable() {
			return &KeyringStore{}, nil
		}
		return &StateStore{DB: state}, nil
	case BackendState:
		return &StateStore{DB: state}, nil
	}
	return nil, fmt.Errorf("unknown token store %q (want keyring or state)", backend)
}
