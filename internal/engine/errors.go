package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrPoolExhausted is returned by NextAvailableAgent when every configured
// agent slot is occupied and no stale or orphaned claim can be reclaimed.
var ErrPoolExhausted = errors.New("agent pool exhausted")

// LockTimeoutError reports that a lock could not be acquired within the
// bounded wait. The operation performed no side effect and is safe to retry.
type LockTimeoutError struct {
	Key  string
	Wait time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("lock %q not acquired within %s", e.Key, e.Wait)
}

// IsLockTimeout reports whether err is a lock acquisition timeout.
func IsLockTimeout(err error) bool {
	var lt *LockTimeoutError
	return errors.As(err, &lt)
}
