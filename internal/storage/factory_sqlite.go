//go:build sqlite

package storage

// DefaultStoreKind is "sqlite" when built with -tags sqlite.
func DefaultStoreKind() string {
	return KindSQLite
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}
