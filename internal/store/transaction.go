package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/phrazzld/shelf/internal/platform/logger"
)

// TxFn runs inside a transaction opened by RunInTransaction.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn in a transaction on db. The transaction commits
// when fn returns nil and rolls back otherwise. An error wrapping ErrRollback
// rolls back and is swallowed. A panic in fn rolls back and re-panics.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback after panic failed", "error", rbErr, "panic", p)
		} else {
			log.Error("rolled back transaction after panic", "panic", p)
		}
		panic(p)
	}()

	if fnErr := fn(ctx, tx); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed", "error", rbErr, "cause", fnErr)
			return fmt.Errorf("rollback failed: %v (cause: %w)", rbErr, fnErr)
		}
		if errors.Is(fnErr, ErrRollback) {
			log.Debug("transaction rolled back on request", "reason", fnErr)
			return nil
		}
		log.Debug("transaction rolled back", "error", fnErr)
		return fnErr
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", "error", err)
		return fmt.Errorf("%w: commit: %w", ErrTransactionFailed, err)
	}
	return nil
}
