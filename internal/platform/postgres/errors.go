package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/shelf/internal/store"
)

// PostgreSQL SQLSTATE codes translated by MapError.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

type violation struct {
	sentinel error
	kind     string
	subject  func(*pgconn.PgError) string
}

func constraintName(e *pgconn.PgError) string { return e.ConstraintName }
func columnName(e *pgconn.PgError) string     { return e.ColumnName }

var violations = map[string]violation{
	uniqueViolationCode:     {store.ErrDuplicate, "unique violation", constraintName},
	foreignKeyViolationCode: {store.ErrInvalidEntity, "foreign key violation", constraintName},
	checkViolationCode:      {store.ErrInvalidEntity, "check constraint violation", constraintName},
	notNullViolationCode:    {store.ErrInvalidEntity, "not null violation", columnName},
}

// MapError translates driver errors into store sentinels. The driver error
// stays in the chain so its detail survives for logging; unknown errors pass
// through untouched.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	v, ok := violations[pgErr.Code]
	if !ok {
		return err
	}
	return fmt.Errorf("%w: %s (%s): %w", v.sentinel, v.kind, v.subject(pgErr), err)
}

// CheckRowsAffected returns notFound when an UPDATE or DELETE touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil result provided to CheckRowsAffected")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
