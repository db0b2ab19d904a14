package cache

import (
	"errors"
	"fmt"
)

// ErrMiss is returned by GetJSON when the key holds no value.
var ErrMiss = errors.New("cache miss")

// CacheError reports a failed cache operation. It is never swallowed by this
// package; callers decide whether it is fatal.
type CacheError struct {
	Operation string
	Key       string
	Cause     error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q failed: %v", e.Operation, e.Key, e.Cause)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

func newCacheError(operation, key string, cause error) *CacheError {
	return &CacheError{Operation: operation, Key: key, Cause: cause}
}
