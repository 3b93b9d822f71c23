package burnhook

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/burn-hook/pkg/ledger"
	"github.com/code-payments/burn-hook/pkg/ledger/account/memory"
	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/system"
	"github.com/code-payments/burn-hook/pkg/solana/token"
	"github.com/code-payments/burn-hook/pkg/solana/transferhook"
)

const (
	testDecimals = 9

	testMintAmount = 1000 * 1_000_000_000
)

type testEnv struct {
	ctx     context.Context
	ledger  *ledger.Ledger
	program ed25519.PublicKey
	payer   ed25519.PublicKey
}

type testHolder struct {
	wallet  ed25519.PublicKey
	account ed25519.PublicKey
}

func setup(t *testing.T, overrides *testOverrides, opts ...Option) *testEnv {
	ctx := context.Background()

	l, err := ledger.New(ctx, memory.New())
	require.NoError(t, err)

	if overrides == nil {
		overrides = &testOverrides{
			feeNumerator:   defaultFeeNumerator,
			feeDenominator: defaultFeeDenominator,
		}
	}
	if overrides.programID == nil {
		overrides.programID = generateKeys(t, 1)[0]
	}

	program := New(withManualTestOverrides(overrides), opts...)
	require.NoError(t, l.RegisterProgram(ctx, overrides.programID, program))

	payer := generateKeys(t, 1)[0]
	require.NoError(t, l.Airdrop(ctx, payer, 100*1_000_000_000))

	return &testEnv{
		ctx:     ctx,
		ledger:  l,
		program: overrides.programID,
		payer:   payer,
	}
}

func (e *testEnv) createMint(t *testing.T, authority ed25519.PublicKey, hooked bool) ed25519.PublicKey {
	mint := generateKeys(t, 1)[0]

	layout := &token.Mint{}
	if hooked {
		layout.Extensions = []token.Extension{token.NewTransferHookExtension(authority, e.program)}
	}
	size := uint64(layout.Size())

	instructions := []solana.Instruction{
		system.CreateAccount(e.payer, mint, token.Program2022Key, system.MinimumBalanceForRentExemption(size), size),
	}
	if hooked {
		instructions = append(instructions, token.InitializeTransferHook(token.Program2022Key, mint, authority, e.program))
	}
	instructions = append(instructions, token.InitializeMint2(token.Program2022Key, mint, authority, testDecimals))

	require.NoError(t, e.ledger.ExecuteTransaction(e.ctx, []ed25519.PublicKey{e.payer, mint}, instructions...))
	return mint
}

func (e *testEnv) createHolder(t *testing.T, mint ed25519.PublicKey) *testHolder {
	wallet := generateKeys(t, 1)[0]

	create, address, err := token.CreateAssociatedTokenAccount(e.payer, wallet, mint, token.Program2022Key)
	require.NoError(t, err)
	require.NoError(t, e.ledger.ExecuteTransaction(e.ctx, []ed25519.PublicKey{e.payer}, create))

	return &testHolder{
		wallet:  wallet,
		account: address,
	}
}

func (e *testEnv) mintTo(t *testing.T, mint, authority ed25519.PublicKey, holder *testHolder, amount uint64) {
	mintTo := token.MintTo(token.Program2022Key, mint, holder.account, authority, amount)
	require.NoError(t, e.ledger.ExecuteTransaction(e.ctx, []ed25519.PublicKey{authority}, mintTo))
}

func (e *testEnv) initializeExtraAccountMetaList(t *testing.T, mint ed25519.PublicKey) ed25519.PublicKey {
	address, _, err := GetExtraAccountMetaListAddress(e.program, mint)
	require.NoError(t, err)

	require.NoError(t, e.ledger.ExecuteTransaction(e.ctx, []ed25519.PublicKey{e.payer}, e.initializeInstruction(address, mint)))
	return address
}

func (e *testEnv) initializeInstruction(address, mint ed25519.PublicKey) solana.Instruction {
	return NewInitializeExtraAccountMetaListInstruction(e.program, &InitializeExtraAccountMetaListInstructionAccounts{
		Payer:                  e.payer,
		ExtraAccountMetaList:   address,
		Mint:                   mint,
		TokenProgram:           token.Program2022Key,
		AssociatedTokenProgram: token.AssociatedTokenAccountProgramKey,
	})
}

// executeInstruction builds an interface Execute invocation carrying the
// resolved extra accounts, as the token program would issue it.
func (e *testEnv) executeInstruction(t *testing.T, source, destination *testHolder, mint ed25519.PublicKey, amount uint64) solana.Instruction {
	extras, metaList, err := transferhook.ResolveExecuteExtraAccounts(
		e.program,
		source.account,
		mint,
		destination.account,
		source.wallet,
		amount,
		e.ledger.GetAccountData(e.ctx),
	)
	require.NoError(t, err)

	return transferhook.NewExecuteInstruction(e.program, source.account, mint, destination.account, source.wallet, metaList, amount, extras...)
}

func (e *testEnv) balance(t *testing.T, address ed25519.PublicKey) uint64 {
	account, err := e.ledger.GetTokenAccount(e.ctx, address)
	require.NoError(t, err)
	return account.Amount
}

func (e *testEnv) supply(t *testing.T, mint ed25519.PublicKey) uint64 {
	decoded, err := e.ledger.GetMint(e.ctx, mint)
	require.NoError(t, err)
	return decoded.Supply
}

func assertErrorCode(t *testing.T, err error, expected ErrorCode) {
	require.Error(t, err)
	assert.True(t, errors.Is(err, expected), "expected %v, got %v", expected, err)

	var txnErr solana.InstructionError
	if errors.As(err, &txnErr) {
		assert.Equal(t, solana.InstructionErrorCustom, txnErr.ErrorKey())
		require.NotNil(t, txnErr.CustomError())
		assert.EqualValues(t, expected, *txnErr.CustomError())
	}
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
