// Package storage keeps finished documents for the stored delivery modes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ErrInvalidName signals a name that could escape the store namespace.
var ErrInvalidName = errors.New("invalid file name")

// Store saves, returns and deletes output documents by file name. Missing
// names report domain.ErrNotFound.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Open(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
}

// Sweeper is implemented by stores that need explicit retention.
type Sweeper interface {
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)
}

// ValidName rejects empty names, path separators and dot segments.
func ValidName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	case strings.ContainsAny(name, `/\`), strings.Contains(name, ".."):
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	case path.Base(name) != name:
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}
