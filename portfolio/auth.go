package portfolio

import (
	"context"
	"errors"

	"github.com/robinvdvleuten/margin/storage"
	"github.com/robinvdvleuten/margin/vault"
)

// IsFirstRun reports whether no password has been stored yet.
func (s *Service) IsFirstRun(ctx context.Context) (bool, error) {
	_, err := s.settings.Get(ctx, storage.SettingPasswordHash)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	return false, err
}

// SetPassword stores the password hash. The encryption key is generated the
// first time only; replacing the password keeps existing data readable.
func (s *Service) SetPassword(ctx context.Context, password string) error {
	if password == "" {
		return invalid("password", "must not be empty")
	}

	hash, err := vault.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.settings.Set(ctx, storage.SettingPasswordHash, hash); err != nil {
		return err
	}

	_, err = s.settings.Get(ctx, storage.SettingEncryptKey)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	key, err := vault.GenerateKey()
	if err != nil {
		return err
	}
	return s.settings.Set(ctx, storage.SettingEncryptKey, key)
}

// VerifyPassword reports whether password matches the stored hash. It is
// false when no password has been set.
func (s *Service) VerifyPassword(ctx context.Context, password string) (bool, error) {
	hash, err := s.settings.Get(ctx, storage.SettingPasswordHash)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return vault.CheckPassword(hash, password), nil
}
