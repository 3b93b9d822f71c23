package badger

import (
	"context"
	"crypto/ed25519"

	"github.com/dgraph-io/badger/v4"
	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/ledger/account"
)

var (
	accountPrefix = []byte("account/")
	ownerPrefix   = []byte("owner/")
)

type store struct {
	db *badger.DB
}

// New returns a badger backed account store. The store takes ownership of
// the database.
func New(db *badger.DB) account.Store {
	return &store{
		db: db,
	}
}

// Open opens a badger database at the path. An empty path opens an in-memory
// database.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening account database at %q", path)
	}
	return db, nil
}

func accountKey(address ed25519.PublicKey) []byte {
	return append(append([]byte{}, accountPrefix...), address...)
}

func ownerKey(owner, address ed25519.PublicKey) []byte {
	key := append(append([]byte{}, ownerPrefix...), owner...)
	return append(key, address...)
}

func (s *store) Get(_ context.Context, address ed25519.PublicKey) (*account.Record, error) {
	var record *account.Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		record, err = get(txn, address)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *store) GetBatch(_ context.Context, addresses ...ed25519.PublicKey) (map[string]*account.Record, error) {
	res := make(map[string]*account.Record)
	err := s.db.View(func(txn *badger.Txn) error {
		for _, address := range addresses {
			record, err := get(txn, address)
			if err == account.ErrAccountNotFound {
				continue
			} else if err != nil {
				return err
			}
			res[base58.Encode(address)] = record
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *store) Save(_ context.Context, records ...*account.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return errors.Wrap(account.ErrInvalidRecord, err.Error())
		}
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, record := range records {
			existing, err := get(txn, record.Address)
			switch err {
			case nil:
				if err := txn.Delete(ownerKey(existing.Owner, existing.Address)); err != nil {
					return err
				}
			case account.ErrAccountNotFound:
			default:
				return err
			}

			if record.IsEmpty() {
				if err := txn.Delete(accountKey(record.Address)); err != nil {
					return err
				}
				continue
			}

			if err := txn.Set(accountKey(record.Address), record.Marshal()); err != nil {
				return err
			}
			if err := txn.Set(ownerKey(record.Owner, record.Address), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "error saving accounts")
	}
	return nil
}

func (s *store) GetAllByOwner(_ context.Context, owner ed25519.PublicKey) ([]*account.Record, error) {
	prefix := append(append([]byte{}, ownerPrefix...), owner...)

	var res []*account.Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			address := ed25519.PublicKey(it.Item().KeyCopy(nil)[len(prefix):])
			record, err := get(txn, address)
			if err != nil {
				return errors.Wrapf(err, "dangling owner index for %s", base58.Encode(address))
			}
			res = append(res, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *store) Count(_ context.Context) (uint64, error) {
	var count uint64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = accountPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(accountPrefix); it.ValidForPrefix(accountPrefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *store) reset() error {
	return s.db.DropAll()
}

func get(txn *badger.Txn, address ed25519.PublicKey) (*account.Record, error) {
	item, err := txn.Get(accountKey(address))
	if err == badger.ErrKeyNotFound {
		return nil, account.ErrAccountNotFound
	} else if err != nil {
		return nil, err
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	record := &account.Record{}
	if err := record.Unmarshal(value); err != nil {
		return nil, errors.Wrap(err, "corrupt account record")
	}
	return record, nil
}
