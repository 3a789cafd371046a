package querycache

import (
	"errors"
	"fmt"
)

var (
	ErrNamespaceRequired = errors.New("querycache: namespace is required")
	ErrNilLoader         = errors.New("querycache: nil loader")
	// ErrTypeMismatch means two Query handles with different value types were
	// used for the same key while a load was in flight.
	ErrTypeMismatch = errors.New("querycache: value type mismatch for key")
)

// InvalidateError is returned when an invalidation could not bump the key's
// generation. Keys extending Key may still be served; when DelErr is also set
// Key itself may be too.
type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error // nil when the delete succeeded
}

func (e *InvalidateError) Error() string {
	if e.DelErr == nil {
		return fmt.Sprintf("invalidate %q failed: gen bump failed: %v", e.Key, e.BumpErr)
	}
	return fmt.Sprintf("invalidate %q failed: gen bump and delete failed: bump=%v; delete=%v",
		e.Key, e.BumpErr, e.DelErr)
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
