package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/phrazzld/shelf/internal/platform/logger"
	"github.com/phrazzld/shelf/internal/store"
)

// PostgresMediaStore implements store.MediaStore on the media table.
type PostgresMediaStore struct {
	db store.DBTX
}

// NewPostgresMediaStore creates a new PostgresMediaStore.
// db may be a *sql.DB or a *sql.Tx.
func NewPostgresMediaStore(db store.DBTX) *PostgresMediaStore {
	return &PostgresMediaStore{db: db}
}

// Ensure PostgresMediaStore implements store.MediaStore
var _ store.MediaStore = (*PostgresMediaStore)(nil)

// ListWithoutHash returns rows whose hash has not been computed, oldest first.
func (s *PostgresMediaStore) ListWithoutHash(ctx context.Context) ([]store.Media, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, updated_at
		FROM media
		WHERE hash IS NULL
		ORDER BY id ASC
	`)
	if err != nil {
		log.Error("failed to query media without hash", "error", err)
		return nil, fmt.Errorf("failed to list media without hash: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var media []store.Media
	for rows.Next() {
		var m store.Media
		if err := rows.Scan(&m.ID, &m.Path, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		media = append(media, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media rows: %w", MapError(err))
	}

	log.Debug("listed media without hash", "count", len(media))
	return media, nil
}

// ListPaths returns every tracked path in id order.
func (s *PostgresMediaStore) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM media ORDER BY id ASC`)
	if err != nil {
		logger.FromContext(ctx).Error("failed to query media paths", "error", err)
		return nil, fmt.Errorf("failed to list media paths: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan media path: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media paths: %w", MapError(err))
	}
	return paths, nil
}

// GetByPath retrieves a media row by path.
func (s *PostgresMediaStore) GetByPath(ctx context.Context, path string) (*store.Media, error) {
	var m store.Media
	var hash sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, path, hash, updated_at
		FROM media
		WHERE path = $1
	`, path).Scan(&m.ID, &m.Path, &hash, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrMediaNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to get media by path", "error", err)
		return nil, fmt.Errorf("failed to get media: %w", MapError(err))
	}

	m.Hash = hash.String
	return &m, nil
}

// SetHash stores the content hash of the row with the given path.
func (s *PostgresMediaStore) SetHash(ctx context.Context, path, hash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE media
		SET hash = $1, updated_at = NOW()
		WHERE path = $2
	`, hash, path)
	if err != nil {
		logger.FromContext(ctx).Error("failed to set media hash", "error", err)
		return fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err))
	}
	return CheckRowsAffected(result, store.ErrMediaNotFound)
}

// DeleteByPath removes the row with the given path.
func (s *PostgresMediaStore) DeleteByPath(ctx context.Context, path string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE path = $1`, path)
	if err != nil {
		logger.FromContext(ctx).Error("failed to delete media", "error", err)
		return fmt.Errorf("%w: %w", store.ErrDeleteFailed, MapError(err))
	}
	return CheckRowsAffected(result, store.ErrMediaNotFound)
}
