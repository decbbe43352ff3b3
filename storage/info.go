package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
)

// Info describes the database file.
type Info struct {
	Path      string    `json:"path"`
	Exists    bool      `json:"exists"`
	Size      int64     `json:"size,omitempty"`
	HumanSize string    `json:"humanSize,omitempty"`
	Modified  time.Time `json:"modified,omitempty"`
}

// Stat reports on the database file at path.
func Stat(path string) (Info, error) {
	info := Info{Path: path}

	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("stat database: %w", err)
	}

	info.Exists = true
	info.Size = fi.Size()
	info.HumanSize = units.HumanSize(float64(fi.Size()))
	info.Modified = fi.ModTime()
	return info, nil
}

// Backup checkpoints the WAL and copies the database file to dest.
func (db *DB) Backup(dest string) error {
	if _, err := os.Stat(db.path); err != nil {
		return fmt.Errorf("database file does not exist: %w", err)
	}

	if _, err := db.conn.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	if abs, err := filepath.Abs(dest); err == nil {
		if src, err := filepath.Abs(db.path); err == nil && src == abs {
			return errors.New("backup destination is the database itself")
		}
	}

	return copyFile(db.path, dest)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to read database file: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return out.Close()
}
