package ledger

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"

	"github.com/code-payments/burn-hook/pkg/ledger/account"
	"github.com/code-payments/burn-hook/pkg/solana/system"
)

// workingSet buffers every account touched by a transaction. Nothing reaches
// the store until commit, so a failed transaction leaves no trace.
type workingSet struct {
	store   account.Store
	records map[string]*account.Record
	dirty   map[string]struct{}
	order   []string

	aborted error
}

func newWorkingSet(store account.Store) *workingSet {
	return &workingSet{
		store:   store,
		records: make(map[string]*account.Record),
		dirty:   make(map[string]struct{}),
	}
}

// get returns the current state of the account. Addresses without an
// account resolve to an empty, system owned record.
func (w *workingSet) get(ctx context.Context, address ed25519.PublicKey) (*account.Record, error) {
	key := base58.Encode(address)
	if record, ok := w.records[key]; ok {
		return record, nil
	}

	record, err := w.store.Get(ctx, address)
	switch err {
	case nil:
	case account.ErrAccountNotFound:
		record = &account.Record{
			Address: append(ed25519.PublicKey{}, address...),
			Owner:   append(ed25519.PublicKey{}, system.ProgramKey...),
		}
	default:
		return nil, err
	}

	w.records[key] = record
	return record, nil
}

func (w *workingSet) put(record *account.Record) {
	key := base58.Encode(record.Address)
	w.records[key] = record

	if _, ok := w.dirty[key]; !ok {
		w.dirty[key] = struct{}{}
		w.order = append(w.order, key)
	}
}

func (w *workingSet) abort(err error) {
	if w.aborted == nil {
		w.aborted = err
	}
}

func (w *workingSet) commit(ctx context.Context) error {
	if len(w.order) == 0 {
		return nil
	}

	records := make([]*account.Record, 0, len(w.order))
	for _, key := range w.order {
		records = append(records, w.records[key])
	}
	return w.store.Save(ctx, records...)
}
