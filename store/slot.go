package store

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by a Slot when nothing is stored under a key.
var ErrNotFound = errors.New("slot is empty")

// Slot is a named key/value persistence area holding serialized text.
type Slot interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// StorageError describes a failed slot operation.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Locator is implemented by slots that can say where a key is kept.
type Locator interface {
	Locate(key string) string
}
