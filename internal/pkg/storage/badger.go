package storage

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BadgerStore is the durable BlobStore, backed by an embedded Badger
// database under the configured data directory.
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger
}

// OpenBadger opens (creating if needed) the blob database at dir.
func OpenBadger(dir string, logger *zap.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open blob store at %s", dir)
	}

	logger.Info("Blob store opened", zap.String("dir", dir))
	return &BadgerStore{db: db, logger: logger}, nil
}

func (s *BadgerStore) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read blob %q", key)
	}
	return value, nil
}

func (s *BadgerStore) Set(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to write blob %q", key)
	}
	return nil
}

func (s *BadgerStore) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete blob %q", key)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
