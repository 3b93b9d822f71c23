// Package ledger is an in-process host for on-chain programs. It executes
// transactions atomically against an account store, providing the system,
// Token-2022 and associated token account programs as builtins.
package ledger

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/burn-hook/pkg/ledger/account"
	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/runtime"
	"github.com/code-payments/burn-hook/pkg/solana/system"
	"github.com/code-payments/burn-hook/pkg/solana/token"
)

var (
	// NativeLoaderKey owns the builtin programs.
	NativeLoaderKey = solana.MustBase58Decode("NativeLoader1111111111111111111111111111111")

	// UpgradeableLoaderKey owns programs registered with RegisterProgram.
	UpgradeableLoaderKey = solana.MustBase58Decode("BPFLoaderUpgradeab1e11111111111111111111111")
)

var (
	ErrNoInstructions       = errors.New("transaction has no instructions")
	ErrProgramAlreadyExists = errors.New("program already registered")
)

type Ledger struct {
	log *logrus.Entry

	// Transactions are serialized
	mu       sync.Mutex
	accounts account.Store
	programs map[string]runtime.Processor
}

// New returns a ledger over the store with the builtin programs deployed.
func New(ctx context.Context, accounts account.Store) (*Ledger, error) {
	l := &Ledger{
		log:      logrus.StandardLogger().WithField("type", "ledger"),
		accounts: accounts,
		programs: make(map[string]runtime.Processor),
	}

	builtins := []struct {
		id        ed25519.PublicKey
		processor runtime.Processor
	}{
		{system.ProgramKey, runtime.ProcessorFunc(processSystem)},
		{token.Program2022Key, newTokenProcessor(token.Program2022Key)},
		{token.AssociatedTokenAccountProgramKey, runtime.ProcessorFunc(processAssociatedTokenAccount)},
	}
	for _, builtin := range builtins {
		if err := l.deploy(ctx, builtin.id, NativeLoaderKey, builtin.processor); err != nil {
			return nil, errors.Wrapf(err, "error deploying builtin %s", base58.Encode(builtin.id))
		}
	}

	return l, nil
}

// RegisterProgram deploys a program at the address.
func (l *Ledger) RegisterProgram(ctx context.Context, programID ed25519.PublicKey, processor runtime.Processor) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.programs[base58.Encode(programID)]; ok {
		return ErrProgramAlreadyExists
	}
	return l.deploy(ctx, programID, UpgradeableLoaderKey, processor)
}

func (l *Ledger) deploy(ctx context.Context, programID, loader ed25519.PublicKey, processor runtime.Processor) error {
	err := l.accounts.Save(ctx, &account.Record{
		Address:    programID,
		Owner:      loader,
		Lamports:   1,
		Executable: true,
	})
	if err != nil {
		return err
	}

	l.programs[base58.Encode(programID)] = processor
	return nil
}

// GetAccount returns the committed state of an account.
func (l *Ledger) GetAccount(ctx context.Context, address ed25519.PublicKey) (*account.Record, error) {
	return l.accounts.Get(ctx, address)
}

// GetAccountData implements an account data fetcher over committed state.
func (l *Ledger) GetAccountData(ctx context.Context) func(ed25519.PublicKey) ([]byte, error) {
	return func(address ed25519.PublicKey) ([]byte, error) {
		record, err := l.accounts.Get(ctx, address)
		if err != nil {
			return nil, err
		}
		return record.Data, nil
	}
}

// GetTokenAccount decodes a committed token account.
func (l *Ledger) GetTokenAccount(ctx context.Context, address ed25519.PublicKey) (*token.Account, error) {
	record, err := l.accounts.Get(ctx, address)
	if err != nil {
		return nil, err
	}

	var tokenAccount token.Account
	if !tokenAccount.Unmarshal(record.Data) {
		return nil, errors.Errorf("%s is not a token account", base58.Encode(address))
	}
	return &tokenAccount, nil
}

// GetMint decodes a committed mint.
func (l *Ledger) GetMint(ctx context.Context, address ed25519.PublicKey) (*token.Mint, error) {
	record, err := l.accounts.Get(ctx, address)
	if err != nil {
		return nil, err
	}

	var mint token.Mint
	if !mint.Unmarshal(record.Data) {
		return nil, errors.Errorf("%s is not a mint", base58.Encode(address))
	}
	return &mint, nil
}

// Airdrop credits lamports to a system owned account.
func (l *Ledger) Airdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ws := newWorkingSet(l.accounts)
	record, err := ws.get(ctx, address)
	if err != nil {
		return err
	}
	if !system.IsSystemOwned(record.Owner) {
		return errors.Errorf("%s is not system owned", base58.Encode(address))
	}
	if record.Lamports+lamports < record.Lamports {
		return solana.InstructionErrorArithmeticOverflow
	}

	updated := record.Clone()
	updated.Lamports += lamports
	ws.put(&updated)
	return ws.commit(ctx)
}

// ExecuteTransaction runs the instructions in order as one atomic unit. Any
// failure discards every change and is reported as a solana.InstructionError
// carrying the index of the failing instruction.
func (l *Ledger) ExecuteTransaction(ctx context.Context, signers []ed25519.PublicKey, instructions ...solana.Instruction) error {
	if len(instructions) == 0 {
		return ErrNoInstructions
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	log := l.log.WithFields(logrus.Fields{
		"method":       "ExecuteTransaction",
		"instructions": len(instructions),
	})

	privileges := func(meta solana.AccountMeta) (bool, bool, error) {
		if meta.IsSigner && !containsKey(signers, meta.PublicKey) {
			return false, false, errors.Wrapf(solana.InstructionErrorMissingRequiredSignature, "%s", base58.Encode(meta.PublicKey))
		}
		return meta.IsSigner, meta.IsWritable, nil
	}

	ws := newWorkingSet(l.accounts)
	for i, instruction := range instructions {
		err := l.execute(ctx, ws, nil, instruction, privileges)
		if err == nil {
			err = ws.aborted
		}
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"index":   i,
				"program": base58.Encode(instruction.Program),
			}).Debug("transaction failed")
			return solana.InstructionError{Index: i, Err: err}
		}
	}

	if err := ws.commit(ctx); err != nil {
		log.WithError(err).Warn("failure committing transaction")
		return errors.Wrap(err, "error committing transaction")
	}

	log.WithField("accounts", len(ws.order)).Debug("transaction committed")
	return nil
}
