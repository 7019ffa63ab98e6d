package storage

import "github.com/pkg/errors"

// ErrKeyNotFound is returned by Get when a key has never been written or
// has been deleted.
var ErrKeyNotFound = errors.New("storage: key not found")

// BlobStore is the persistence surface of the app: opaque JSON blobs under
// string keys, the same shape browser localStorage gave the original UI.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
