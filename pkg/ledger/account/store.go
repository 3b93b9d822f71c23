package account

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidRecord   = errors.New("invalid account record")
)

type Store interface {
	// Get returns the account at the address
	//
	// ErrAccountNotFound is returned if the account doesn't exist
	Get(ctx context.Context, address ed25519.PublicKey) (*Record, error)

	// GetBatch is like Get, but for multiple accounts. Missing accounts are
	// omitted from the result, which is keyed by base58 address.
	GetBatch(ctx context.Context, addresses ...ed25519.PublicKey) (map[string]*Record, error)

	// Save atomically writes all records. Empty records are deleted.
	Save(ctx context.Context, records ...*Record) error

	// GetAllByOwner returns every account owned by the program
	GetAllByOwner(ctx context.Context, owner ed25519.PublicKey) ([]*Record, error)

	// Count returns the number of stored accounts
	Count(ctx context.Context) (uint64, error)
}
