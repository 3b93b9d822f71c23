package burnhook

import (
	"context"
	"crypto/ed25519"
)

// Transfer describes a hooked transfer whose accounts have been validated.
type Transfer struct {
	Source      ed25519.PublicKey
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
	Amount      uint64

	// MintAuthority is set when the derived mint authority was supplied
	MintAuthority ed25519.PublicKey
}

// TransferPolicy decides whether a validated hooked transfer may proceed.
type TransferPolicy interface {
	Check(ctx context.Context, transfer *Transfer) error
}

// TransferPolicyFunc adapts a function to a TransferPolicy.
type TransferPolicyFunc func(ctx context.Context, transfer *Transfer) error

func (f TransferPolicyFunc) Check(ctx context.Context, transfer *Transfer) error {
	return f(ctx, transfer)
}

// PassThroughPolicy acknowledges every transfer.
var PassThroughPolicy TransferPolicy = TransferPolicyFunc(func(_ context.Context, _ *Transfer) error {
	return nil
})
