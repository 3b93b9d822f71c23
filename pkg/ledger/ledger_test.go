package ledger

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/burn-hook/pkg/ledger/account"
	"github.com/code-payments/burn-hook/pkg/ledger/account/memory"
	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/runtime"
	"github.com/code-payments/burn-hook/pkg/solana/system"
	"github.com/code-payments/burn-hook/pkg/solana/token"
)

const testLamports = 10_000_000_000

func setup(t *testing.T) (context.Context, *Ledger) {
	ctx := context.Background()

	l, err := New(ctx, memory.New())
	require.NoError(t, err)
	return ctx, l
}

func TestNew_Builtins(t *testing.T) {
	ctx, l := setup(t)

	for _, program := range []ed25519.PublicKey{system.ProgramKey, token.Program2022Key, token.AssociatedTokenAccountProgramKey} {
		record, err := l.GetAccount(ctx, program)
		require.NoError(t, err)
		assert.True(t, record.Executable)
		assert.Equal(t, NativeLoaderKey, record.Owner)
	}
}

func TestRegisterProgram(t *testing.T) {
	ctx, l := setup(t)
	program := generateKeys(t, 1)[0]

	noop := runtime.ProcessorFunc(func(context.Context, runtime.Invoker, ed25519.PublicKey, []*runtime.AccountInfo, []byte) error {
		return nil
	})

	require.NoError(t, l.RegisterProgram(ctx, program, noop))
	assert.Equal(t, ErrProgramAlreadyExists, l.RegisterProgram(ctx, program, noop))
	assert.Equal(t, ErrProgramAlreadyExists, l.RegisterProgram(ctx, system.ProgramKey, noop))

	record, err := l.GetAccount(ctx, program)
	require.NoError(t, err)
	assert.True(t, record.Executable)
	assert.Equal(t, UpgradeableLoaderKey, record.Owner)

	require.NoError(t, l.ExecuteTransaction(ctx, nil, solana.NewInstruction(program, nil)))
}

func TestExecuteTransaction_Errors(t *testing.T) {
	ctx, l := setup(t)
	keys := generateKeys(t, 2)

	assert.Equal(t, ErrNoInstructions, l.ExecuteTransaction(ctx, nil))

	err := l.ExecuteTransaction(ctx, nil, solana.NewInstruction(keys[0], nil))
	assertInstructionError(t, err, 0, solana.InstructionErrorUnsupportedProgramID)

	require.NoError(t, l.Airdrop(ctx, keys[0], testLamports))
	err = l.ExecuteTransaction(ctx, nil, system.Transfer(keys[0], keys[1], 1))
	assertInstructionError(t, err, 0, solana.InstructionErrorMissingRequiredSignature)
}

func TestExecuteTransaction_SystemTransfer(t *testing.T) {
	ctx, l := setup(t)
	keys := generateKeys(t, 2)

	require.NoError(t, l.Airdrop(ctx, keys[0], testLamports))
	require.NoError(t, l.ExecuteTransaction(ctx, []ed25519.PublicKey{keys[0]}, system.Transfer(keys[0], keys[1], 1_000)))

	assertLamports(t, l, keys[0], testLamports-1_000)
	assertLamports(t, l, keys[1], 1_000)

	err := l.ExecuteTransaction(ctx, []ed25519.PublicKey{keys[1]}, system.Transfer(keys[1], keys[0], 1_001))
	assertInstructionError(t, err, 0, solana.InstructionErrorCustom)
}

func TestExecuteTransaction_Atomic(t *testing.T) {
	ctx, l := setup(t)
	keys := generateKeys(t, 3)

	require.NoError(t, l.Airdrop(ctx, keys[0], testLamports))

	err := l.ExecuteTransaction(
		ctx,
		[]ed25519.PublicKey{keys[0], keys[1]},
		system.Transfer(keys[0], keys[1], 1_000),
		system.Transfer(keys[1], keys[2], 500),
		system.Transfer(keys[1], keys[2], 501),
	)
	assertInstructionError(t, err, 2, solana.InstructionErrorCustom)

	assertLamports(t, l, keys[0], testLamports)
	for _, key := range keys[1:] {
		_, err := l.GetAccount(ctx, key)
		assert.Equal(t, account.ErrAccountNotFound, err)
	}
}

func TestExecuteTransaction_CreateAccount(t *testing.T) {
	ctx, l := setup(t)
	keys := generateKeys(t, 3)
	funder, created, owner := keys[0], keys[1], keys[2]

	require.NoError(t, l.Airdrop(ctx, funder, testLamports))

	create := system.CreateAccount(funder, created, owner, system.MinimumBalanceForRentExemption(64), 64)

	err := l.ExecuteTransaction(ctx, []ed25519.PublicKey{funder}, create)
	assertInstructionError(t, err, 0, solana.InstructionErrorMissingRequiredSignature)

	require.NoError(t, l.ExecuteTransaction(ctx, []ed25519.PublicKey{funder, created}, create))

	record, err := l.GetAccount(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, owner, record.Owner)
	assert.Len(t, record.Data, 64)
	assert.Equal(t, system.MinimumBalanceForRentExemption(64), record.Lamports)

	err = l.ExecuteTransaction(ctx, []ed25519.PublicKey{funder, created}, create)
	assertInstructionError(t, err, 0, solana.InstructionErrorCustom)
	assert.True(t, errors.Is(err, system.ErrorAccountAlreadyInUse))
}

func TestExecuteTransaction_AccountRules(t *testing.T) {
	ctx, l := setup(t)
	keys := generateKeys(t, 3)
	program, payer, owned := keys[0], keys[1], keys[2]

	require.NoError(t, l.Airdrop(ctx, payer, testLamports))

	var mutate func(accounts []*runtime.AccountInfo)
	require.NoError(t, l.RegisterProgram(ctx, program, runtime.ProcessorFunc(func(_ context.Context, _ runtime.Invoker, _ ed25519.PublicKey, accounts []*runtime.AccountInfo, _ []byte) error {
		mutate(accounts)
		return nil
	})))

	create := system.CreateAccount(payer, owned, program, system.MinimumBalanceForRentExemption(8), 8)
	require.NoError(t, l.ExecuteTransaction(ctx, []ed25519.PublicKey{payer, owned}, create))

	for _, tc := range []struct {
		name     string
		metas    []solana.AccountMeta
		mutate   func(accounts []*runtime.AccountInfo)
		expected solana.InstructionErrorKey
	}{
		{
			name:     "readonly data",
			metas:    []solana.AccountMeta{solana.NewReadonlyAccountMeta(owned, false)},
			mutate:   func(accounts []*runtime.AccountInfo) { accounts[0].Data[0] = 1 },
			expected: solana.InstructionErrorReadonlyDataModified,
		},
		{
			name:     "readonly lamports",
			metas:    []solana.AccountMeta{solana.NewReadonlyAccountMeta(owned, false), solana.NewAccountMeta(payer, true)},
			mutate:   func(accounts []*runtime.AccountInfo) { accounts[0].Lamports--; accounts[1].Lamports++ },
			expected: solana.InstructionErrorReadonlyLamportChange,
		},
		{
			name:     "external data",
			metas:    []solana.AccountMeta{solana.NewAccountMeta(payer, true)},
			mutate:   func(accounts []*runtime.AccountInfo) { accounts[0].Data = []byte{1} },
			expected: solana.InstructionErrorExternalAccountDataModified,
		},
		{
			name:     "external owner",
			metas:    []solana.AccountMeta{solana.NewAccountMeta(payer, true)},
			mutate:   func(accounts []*runtime.AccountInfo) { accounts[0].Owner = program },
			expected: solana.InstructionErrorModifiedProgramID,
		},
		{
			name:     "external spend",
			metas:    []solana.AccountMeta{solana.NewAccountMeta(payer, true), solana.NewAccountMeta(owned, false)},
			mutate:   func(accounts []*runtime.AccountInfo) { accounts[0].Lamports--; accounts[1].Lamports++ },
			expected: solana.InstructionErrorExternalAccountLamportSpend,
		},
		{
			name:     "unbalanced",
			metas:    []solana.AccountMeta{solana.NewAccountMeta(owned, false)},
			mutate:   func(accounts []*runtime.AccountInfo) { accounts[0].Lamports++ },
			expected: solana.InstructionErrorUnbalancedInstruction,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mutate = tc.mutate

			err := l.ExecuteTransaction(ctx, []ed25519.PublicKey{payer}, solana.NewInstruction(program, nil, tc.metas...))
			assertInstructionError(t, err, 0, tc.expected)
		})
	}

	// Programs may move lamports out of and write to accounts they own
	mutate = func(accounts []*runtime.AccountInfo) {
		accounts[0].Data[0] = 7
		accounts[0].Lamports--
		accounts[1].Lamports++
	}
	metas := []solana.AccountMeta{solana.NewAccountMeta(owned, false), solana.NewAccountMeta(payer, false)}
	require.NoError(t, l.ExecuteTransaction(ctx, nil, solana.NewInstruction(program, nil, metas...)))

	record, err := l.GetAccount(ctx, owned)
	require.NoError(t, err)
	assert.EqualValues(t, 7, record.Data[0])
	assert.Equal(t, system.MinimumBalanceForRentExemption(8)-1, record.Lamports)
}

func TestInvoke_SignerSeeds(t *testing.T) {
	ctx, l := setup(t)
	keys := generateKeys(t, 2)
	program, destination := keys[0], keys[1]

	vault, bump, err := solana.FindProgramAddressAndBump(program, []byte("vault"))
	require.NoError(t, err)
	require.NoError(t, l.Airdrop(ctx, vault, testLamports))

	var seeds runtime.SignerSeeds
	require.NoError(t, l.RegisterProgram(ctx, program, runtime.ProcessorFunc(func(ctx context.Context, invoker runtime.Invoker, _ ed25519.PublicKey, accounts []*runtime.AccountInfo, _ []byte) error {
		return invoker.Invoke(ctx, system.Transfer(accounts[0].Key, accounts[1].Key, 100), seeds)
	})))

	instruction := solana.NewInstruction(program, nil, solana.NewAccountMeta(vault, false), solana.NewAccountMeta(destination, false))

	seeds = runtime.SignerSeeds{[]byte("vault"), {bump}}
	require.NoError(t, l.ExecuteTransaction(ctx, nil, instruction))
	assertLamports(t, l, destination, 100)

	seeds = runtime.SignerSeeds{[]byte("other"), {bump}}
	err = l.ExecuteTransaction(ctx, nil, instruction)
	require.Error(t, err)
	assertLamports(t, l, destination, 100)
}

func TestInvoke_PrivilegeEscalation(t *testing.T) {
	ctx, l := setup(t)
	keys := generateKeys(t, 3)
	program, from, to := keys[0], keys[1], keys[2]

	require.NoError(t, l.Airdrop(ctx, from, testLamports))
	require.NoError(t, l.RegisterProgram(ctx, program, runtime.ProcessorFunc(func(ctx context.Context, invoker runtime.Invoker, _ ed25519.PublicKey, accounts []*runtime.AccountInfo, _ []byte) error {
		return invoker.Invoke(ctx, system.Transfer(accounts[0].Key, accounts[1].Key, 100))
	})))

	// from doesn't sign
	err := l.ExecuteTransaction(ctx, nil, solana.NewInstruction(program, nil, solana.NewAccountMeta(from, false), solana.NewAccountMeta(to, false)))
	assertInstructionError(t, err, 0, solana.InstructionErrorPrivilegeEscalation)

	// to isn't writable
	err = l.ExecuteTransaction(ctx, []ed25519.PublicKey{from}, solana.NewInstruction(program, nil, solana.NewAccountMeta(from, true), solana.NewReadonlyAccountMeta(to, false)))
	assertInstructionError(t, err, 0, solana.InstructionErrorPrivilegeEscalation)

	require.NoError(t, l.ExecuteTransaction(ctx, []ed25519.PublicKey{from}, solana.NewInstruction(program, nil, solana.NewAccountMeta(from, true), solana.NewAccountMeta(to, false))))
	assertLamports(t, l, to, 100)
}

func TestInvoke_SwallowedFailureAborts(t *testing.T) {
	ctx, l := setup(t)
	keys := generateKeys(t, 3)
	program, from, to := keys[0], keys[1], keys[2]

	require.NoError(t, l.Airdrop(ctx, from, 50))
	require.NoError(t, l.RegisterProgram(ctx, program, runtime.ProcessorFunc(func(ctx context.Context, invoker runtime.Invoker, _ ed25519.PublicKey, accounts []*runtime.AccountInfo, _ []byte) error {
		_ = invoker.Invoke(ctx, system.Transfer(accounts[0].Key, accounts[1].Key, 100))
		return nil
	})))

	err := l.ExecuteTransaction(ctx, []ed25519.PublicKey{from}, solana.NewInstruction(program, nil, solana.NewAccountMeta(from, true), solana.NewAccountMeta(to, false)))
	assertInstructionError(t, err, 0, solana.InstructionErrorCustom)
	assertLamports(t, l, from, 50)
}

func TestInvoke_Depth(t *testing.T) {
	ctx, l := setup(t)
	program := generateKeys(t, 1)[0]

	var calls int
	require.NoError(t, l.RegisterProgram(ctx, program, runtime.ProcessorFunc(func(ctx context.Context, invoker runtime.Invoker, programID ed25519.PublicKey, _ []*runtime.AccountInfo, _ []byte) error {
		calls++
		return invoker.Invoke(ctx, solana.NewInstruction(programID, nil))
	})))

	err := l.ExecuteTransaction(ctx, nil, solana.NewInstruction(program, nil))
	assertInstructionError(t, err, 0, solana.InstructionErrorCallDepth)
	assert.Equal(t, runtime.MaxInvokeDepth, calls)
}

func TestInvoke_Reentrancy(t *testing.T) {
	ctx, l := setup(t)
	keys := generateKeys(t, 2)
	first, second := keys[0], keys[1]

	var calls int
	invokeOther := func(other ed25519.PublicKey) runtime.Processor {
		return runtime.ProcessorFunc(func(ctx context.Context, invoker runtime.Invoker, _ ed25519.PublicKey, _ []*runtime.AccountInfo, _ []byte) error {
			calls++
			return invoker.Invoke(ctx, solana.NewInstruction(other, nil))
		})
	}
	require.NoError(t, l.RegisterProgram(ctx, first, invokeOther(second)))
	require.NoError(t, l.RegisterProgram(ctx, second, invokeOther(first)))

	err := l.ExecuteTransaction(ctx, nil, solana.NewInstruction(first, nil))
	assertInstructionError(t, err, 0, solana.InstructionErrorReentrancyNotAllowed)
	assert.Equal(t, 2, calls)
}

func TestInvoke_ReentrancyAfterSelfRecursion(t *testing.T) {
	ctx, l := setup(t)
	keys := generateKeys(t, 2)
	first, second := keys[0], keys[1]

	// first -> first -> second -> first
	var firstCalls, secondCalls int
	require.NoError(t, l.RegisterProgram(ctx, first, runtime.ProcessorFunc(func(ctx context.Context, invoker runtime.Invoker, programID ed25519.PublicKey, _ []*runtime.AccountInfo, _ []byte) error {
		firstCalls++
		if firstCalls == 1 {
			return invoker.Invoke(ctx, solana.NewInstruction(programID, nil))
		}
		return invoker.Invoke(ctx, solana.NewInstruction(second, nil))
	})))
	require.NoError(t, l.RegisterProgram(ctx, second, runtime.ProcessorFunc(func(ctx context.Context, invoker runtime.Invoker, _ ed25519.PublicKey, _ []*runtime.AccountInfo, _ []byte) error {
		secondCalls++
		return invoker.Invoke(ctx, solana.NewInstruction(first, nil))
	})))

	err := l.ExecuteTransaction(ctx, nil, solana.NewInstruction(first, nil))
	assertInstructionError(t, err, 0, solana.InstructionErrorReentrancyNotAllowed)
	assert.Equal(t, 2, firstCalls)
	assert.Equal(t, 1, secondCalls)
}

func assertInstructionError(t *testing.T, err error, index int, key solana.InstructionErrorKey) {
	require.Error(t, err)

	var txnErr solana.InstructionError
	require.True(t, errors.As(err, &txnErr), "unexpected error: %v", err)
	assert.Equal(t, index, txnErr.Index)
	assert.Equal(t, key, txnErr.ErrorKey(), "unexpected error: %v", err)
}

func assertLamports(t *testing.T, l *Ledger, address ed25519.PublicKey, expected uint64) {
	record, err := l.GetAccount(context.Background(), address)
	require.NoError(t, err)
	assert.Equal(t, expected, record.Lamports)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
