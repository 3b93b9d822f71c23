package memory

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sort"
	"sync"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/ledger/account"
)

type store struct {
	mu      sync.Mutex
	records map[string]*account.Record
}

type ByAddress []*account.Record

func (a ByAddress) Len() int      { return len(a) }
func (a ByAddress) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a ByAddress) Less(i, j int) bool {
	return bytes.Compare(a[i].Address, a[j].Address) < 0
}

func New() account.Store {
	return &store{
		records: make(map[string]*account.Record),
	}
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*account.Record)
}

func (s *store) Get(_ context.Context, address ed25519.PublicKey) (*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.records[base58.Encode(address)]
	if !ok {
		return nil, account.ErrAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

func (s *store) GetBatch(_ context.Context, addresses ...ed25519.PublicKey) (map[string]*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make(map[string]*account.Record)
	for _, address := range addresses {
		key := base58.Encode(address)
		if item, ok := s.records[key]; ok {
			cloned := item.Clone()
			res[key] = &cloned
		}
	}
	return res, nil
}

func (s *store) Save(_ context.Context, records ...*account.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return errors.Wrap(account.ErrInvalidRecord, err.Error())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		key := base58.Encode(record.Address)
		if record.IsEmpty() {
			delete(s.records, key)
			continue
		}

		cloned := record.Clone()
		s.records[key] = &cloned
	}
	return nil
}

func (s *store) GetAllByOwner(_ context.Context, owner ed25519.PublicKey) ([]*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*account.Record
	for _, item := range s.records {
		if bytes.Equal(item.Owner, owner) {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}

	sort.Sort(ByAddress(res))
	return res, nil
}

func (s *store) Count(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.records)), nil
}
