package store

import (
	"context"
	"time"
)

// Media is one file tracked by the library.
type Media struct {
	ID        int64
	Path      string
	Hash      string // empty until computed
	UpdatedAt time.Time
}

// MediaStore defines the persistence operations the media actions need.
type MediaStore interface {
	// ListWithoutHash returns every media row that has no content hash yet.
	ListWithoutHash(ctx context.Context) ([]Media, error)

	// ListPaths returns the path of every media row.
	ListPaths(ctx context.Context) ([]string, error)

	// GetByPath retrieves a media row by path.
	// Returns ErrMediaNotFound if no row has that path.
	GetByPath(ctx context.Context, path string) (*Media, error)

	// SetHash stores the content hash of the row with the given path.
	// Returns ErrMediaNotFound if no row has that path.
	SetHash(ctx context.Context, path, hash string) error

	// DeleteByPath removes the row with the given path.
	// Returns ErrMediaNotFound if no row has that path.
	DeleteByPath(ctx context.Context, path string) error
}
