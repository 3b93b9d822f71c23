// Package runtime defines the interface between on-chain program processors
// and the host executing them.
package runtime

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/solana"
)

// MaxInvokeDepth is the maximum depth of nested cross program invocations,
// including the top level instruction.
const MaxInvokeDepth = 5

var ErrNotEnoughAccountKeys = errors.Wrap(solana.InstructionErrorNotEnoughAccountKeys, "not enough account keys")

// AccountInfo is the view of an account handed to a processor. Processors
// mutate Lamports, Data and Owner in place; the host persists the changes
// after validating them.
type AccountInfo struct {
	Key        ed25519.PublicKey
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool

	IsSigner   bool
	IsWritable bool
}

// Meta returns the account meta that forwards this account with its current
// privileges.
func (a *AccountInfo) Meta() solana.AccountMeta {
	return solana.AccountMeta{
		PublicKey:  a.Key,
		IsSigner:   a.IsSigner,
		IsWritable: a.IsWritable,
	}
}

// IsOwnedBy reports whether the account is owned by the program.
func (a *AccountInfo) IsOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, program)
}

// IsEmpty reports whether the account holds neither lamports nor data.
func (a *AccountInfo) IsEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0
}

// SignerSeeds are the seeds, including the bump, of a program derived
// address the invoking program signs for.
type SignerSeeds [][]byte

// Invoker performs cross program invocations on behalf of the executing
// program. Accounts referenced by the instruction must be among those passed
// to the executing program.
type Invoker interface {
	Invoke(ctx context.Context, instruction solana.Instruction, signers ...SignerSeeds) error
}

// Processor is an on-chain program.
type Processor interface {
	Process(ctx context.Context, invoker Invoker, programID ed25519.PublicKey, accounts []*AccountInfo, data []byte) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, invoker Invoker, programID ed25519.PublicKey, accounts []*AccountInfo, data []byte) error

func (f ProcessorFunc) Process(ctx context.Context, invoker Invoker, programID ed25519.PublicKey, accounts []*AccountInfo, data []byte) error {
	return f(ctx, invoker, programID, accounts, data)
}

// Metas returns the account metas of the infos in order.
func Metas(accounts []*AccountInfo) []solana.AccountMeta {
	metas := make([]solana.AccountMeta, len(accounts))
	for i, account := range accounts {
		metas[i] = account.Meta()
	}
	return metas
}

// Find returns the first account with the key.
func Find(accounts []*AccountInfo, key ed25519.PublicKey) (*AccountInfo, bool) {
	for _, account := range accounts {
		if bytes.Equal(account.Key, key) {
			return account, true
		}
	}
	return nil, false
}

// RequireAccounts returns ErrNotEnoughAccountKeys if fewer than n accounts
// were provided.
func RequireAccounts(accounts []*AccountInfo, n int) error {
	if len(accounts) < n {
		return errors.Wrapf(ErrNotEnoughAccountKeys, "got %d, need %d", len(accounts), n)
	}
	return nil
}
