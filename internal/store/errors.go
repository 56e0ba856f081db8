package store

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by store implementations. Callers match them with
// errors.Is; implementations wrap driver errors beneath them.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicate     = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")
	ErrUpdateFailed  = errors.New("update failed")
	ErrDeleteFailed  = errors.New("delete failed")

	// ErrTransactionFailed wraps commit failures from RunInTransaction.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrRollback, returned (possibly wrapped) from a TxFn, rolls the
	// transaction back without RunInTransaction reporting a failure.
	ErrRollback = errors.New("rollback requested")

	// ErrMediaNotFound is returned when no media row has the given path.
	ErrMediaNotFound = fmt.Errorf("%w: media", ErrNotFound)
)
