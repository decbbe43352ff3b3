package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robinvdvleuten/margin/storage"
)

// Source is a platform holdings are kept at.
type Source struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created"`
}

// Sources lists every source in insertion order.
func (s *Service) Sources(ctx context.Context) ([]Source, error) {
	rows, err := s.sources.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Source, 0, len(rows))
	for _, row := range rows {
		out = append(out, Source{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt})
	}
	return out, nil
}

// AddSource creates a source. Names are unique.
func (s *Service) AddSource(ctx context.Context, name string) (*Source, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}

	_, err := s.sources.GetByName(ctx, name)
	if err == nil {
		return nil, fmt.Errorf("source %q: %w", name, ErrDuplicate)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	row := &storage.Source{Name: name}
	if err := s.sources.Create(ctx, row); err != nil {
		return nil, err
	}
	return &Source{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

// DeleteSource removes a source. Holdings that name it are left untouched.
func (s *Service) DeleteSource(ctx context.Context, id int64) error {
	return s.sources.Delete(ctx, id)
}

// SeedSources inserts the default sources that are missing.
func (s *Service) SeedSources(ctx context.Context) error {
	return s.sources.Seed(ctx, storage.DefaultSources)
}
