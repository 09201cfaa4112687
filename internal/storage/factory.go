package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by NewStore.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

// DefaultSQLitePath is used when a sqlite store is requested without a path.
const DefaultSQLitePath = "helix.db"

var ErrUnsupportedBackend = errors.New("unsupported store backend")

// NewStore builds the backend named by kind. An empty kind means memory.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		if sqlitePath == "" {
			sqlitePath = DefaultSQLitePath
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, kind)
	}
}

// CloseIfSupported closes stores that hold resources.
func CloseIfSupported(store Store) error {
	if store == nil {
		return nil
	}
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
