package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/knowledge/core"
	"github.com/poiesic/knowledge/storage"
)

// FingerprintIndex implements storage.FingerprintIndex for BadgerDB.
type FingerprintIndex struct {
	backend *Backend
}

var _ storage.FingerprintIndex = (*FingerprintIndex)(nil)

// NewFingerprintIndex creates a fingerprint index on the given backend.
func NewFingerprintIndex(backend *Backend) (storage.FingerprintIndex, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &FingerprintIndex{backend: backend}, nil
}

// Get retrieves the record for a document path.
func (idx *FingerprintIndex) Get(ctx context.Context, path string) (*core.FingerprintRecord, error) {
	var record *core.FingerprintRecord

	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFingerprintKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalFingerprintRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Put stores or replaces the record for a document path.
func (idx *FingerprintIndex) Put(ctx context.Context, record *core.FingerprintRecord) error {
	if record == nil || record.Path == "" {
		return storage.ErrInvalidQuery
	}

	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFingerprintKey(record.Path), storage.MarshalFingerprintRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
	}
	return nil
}

// Delete removes the record for a document path.
func (idx *FingerprintIndex) Delete(ctx context.Context, path string) error {
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeFingerprintKey(path)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrWriteFailed, err)
	}
	return nil
}

// All returns every record in the index, ordered by path.
func (idx *FingerprintIndex) All(ctx context.Context) ([]*core.FingerprintRecord, error) {
	var records []*core.FingerprintRecord

	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(fingerprintRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalFingerprintRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Close is a no-op; the shared backend owns the database handle.
func (idx *FingerprintIndex) Close() error {
	return nil
}
