package storage

import (
	"context"
	"fmt"
	"time"
)

// Source is a platform assets are held at.
type Source struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultSources are seeded on startup.
var DefaultSources = []string{
	"支付宝",
	"天天基金",
	"微信",
	"腾讯理财通",
	"且慢",
	"雪球",
	"京东金融",
	"易方达基金APP",
	"华夏基金APP",
	"广发基金APP",
	"招商银行",
	"工商银行",
	"建设银行",
	"华泰证券",
	"中信证券",
	"国泰君安",
}

// SourceStore persists sources.
type SourceStore struct {
	db *DB
}

func NewSourceStore(db *DB) *SourceStore {
	return &SourceStore{db: db}
}

// List returns all sources in insertion order.
func (s *SourceStore) List(ctx context.Context) ([]Source, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM sources ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.ID, &src.Name, &src.CreatedAt, &src.UpdatedAt); err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// GetByName returns the source called name.
func (s *SourceStore) GetByName(ctx context.Context, name string) (*Source, error) {
	src := &Source{}
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM sources WHERE name = ?`, name,
	).Scan(&src.ID, &src.Name, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "get source "+name)
	}
	return src, nil
}

// Create inserts src.
func (s *SourceStore) Create(ctx context.Context, src *Source) error {
	now := time.Now()
	src.CreatedAt = now
	src.UpdatedAt = now

	res, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO sources (name, created_at, updated_at) VALUES (?, ?, ?)`,
		src.Name, src.CreatedAt, src.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}
	src.ID, err = res.LastInsertId()
	return err
}

// Delete removes the source with id.
func (s *SourceStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete source %d: %w", id, err)
	}
	return expectRow(res, fmt.Sprintf("delete source %d", id))
}

// Seed inserts every name not already present. Running it again is a no-op.
func (s *SourceStore) Seed(ctx context.Context, names []string) error {
	now := time.Now()
	for _, name := range names {
		_, err := s.db.conn.ExecContext(ctx,
			`INSERT INTO sources (name, created_at, updated_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
			name, now, now,
		)
		if err != nil {
			return fmt.Errorf("seed source %s: %w", name, err)
		}
	}
	return nil
}
