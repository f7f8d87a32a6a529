package uow

import (
	"errors"
	"fmt"
)

// ErrConcurrentUpdate signals that another transaction won a write race; the
// whole operation may be retried by the caller.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// StorageError wraps backing store failures (connectivity, timeouts, driver
// errors) so callers can tell them apart from business rule rejections.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err unless it is nil, already a StorageError, or one of the
// sentinels callers match on.
func Storage(op string, err error, passthrough ...error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) || errors.Is(err, ErrConcurrentUpdate) {
		return err
	}
	for _, target := range passthrough {
		if errors.Is(err, target) {
			return err
		}
	}
	return &StorageError{Op: op, Err: err}
}
