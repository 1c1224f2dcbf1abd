package keys

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"
)

const DefaultKeyringService = "gitnotes"

// KeyringStore keeps tokens in the system keyring.
type KeyringStore struct {
	Service string
}

func (s *KeyringStore) Get(_ context.Context, account string) (string, error) {
	val, err := keyring.Get(s.service(), accountName(account))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	return val, nil
}

func (s *KeyringStore) Put(_ context.Context, account, token string) error {
	return keyring.Set(s.service(), accountName(account), token)
}

func (s *KeyringStore) Delete(_ context.Context, account string) error {
	err := keyring.Delete(s.service(), accountName(account))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func (s *KeyringStore) service() string {
	if s != nil && s.Service != "" {
		return s.Service
	}
	return DefaultKeyringService
}

func accountName(account string) string {
	if account == "" {
		return DefaultAccount
	}
	return account
}

// KeyringAvailable reports whether a system keyring backend answers. A
// missing D-Bus session or an unsupported platform both count as absent.
func KeyringAvailable() bool {
	_, err := keyring.Get(DefaultKeyringService, "_probe_")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
