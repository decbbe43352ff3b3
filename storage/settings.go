package storage

import (
	"context"
	"time"
)

// Setting keys.
const (
	SettingPasswordHash = "password_hash"
	SettingEncryptKey   = "encrypt_key"
)

// SettingStore is a key/value table for application settings.
type SettingStore struct {
	db *DB
}

func NewSettingStore(db *DB) *SettingStore {
	return &SettingStore{db: db}
}

// Get returns the value for key or an error matching ErrNotFound.
func (s *SettingStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", notFound(err, "get setting "+key)
	}
	return value, nil
}

// Set inserts or replaces the value for key.
func (s *SettingStore) Set(ctx context.Context, key, value string) error {
	now := time.Now()
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO settings (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now, now,
	)
	return err
}
