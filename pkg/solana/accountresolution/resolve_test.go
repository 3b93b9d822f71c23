package accountresolution

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/burn-hook/pkg/solana"
)

func TestResolve(t *testing.T) {
	keys := generateKeys(t, 5)
	program := keys[4]

	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(keys[0], false),
		solana.NewReadonlyAccountMeta(keys[1], false),
		solana.NewAccountMeta(keys[2], false),
		solana.NewReadonlyAccountMeta(keys[3], true),
	}

	derived, err := NewProgramDerivedMeta([]Seed{NewLiteralSeed([]byte("seed")), NewInstructionDataSeed(1, 2)}, false, true)
	require.NoError(t, err)
	// References the literal resolved at position 4
	external, err := NewExternalProgramDerivedMeta(4, []Seed{NewAccountKeySeed(3), NewAccountDataSeed(0, 2, 4)}, false, false)
	require.NoError(t, err)

	metas := []ExtraAccountMeta{
		NewLiteralMeta(keys[1], true, false),
		derived,
		external,
	}

	instructionData := []byte{9, 8, 7, 6}
	accountData := []byte{0, 1, 2, 3, 4, 5, 6}
	fetch := func(address ed25519.PublicKey) ([]byte, error) {
		if !assert.Equal(t, keys[0], address) {
			return nil, errors.New("unexpected account")
		}
		return accountData, nil
	}

	resolved, err := Resolve(metas, program, instructionData, accounts, fetch)
	require.NoError(t, err)
	require.Len(t, resolved, 3)

	assert.Equal(t, keys[1], resolved[0].PublicKey)
	assert.True(t, resolved[0].IsSigner)
	assert.False(t, resolved[0].IsWritable)

	expected, err := solana.FindProgramAddress(program, []byte("seed"), []byte{8, 7})
	require.NoError(t, err)
	assert.Equal(t, expected, resolved[1].PublicKey)
	assert.True(t, resolved[1].IsWritable)

	expected, err = solana.FindProgramAddress(keys[1], keys[3], []byte{2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, expected, resolved[2].PublicKey)

	// The caller's slice is left untouched
	assert.Len(t, accounts, 4)

	all := append(append([]solana.AccountMeta{}, accounts...), resolved...)
	position, err := Check(metas, program, instructionData, all, len(accounts), fetch)
	require.NoError(t, err)
	assert.Equal(t, -1, position)

	// A substituted account is reported at its position
	swapped := append([]solana.AccountMeta{}, all...)
	swapped[5] = solana.NewAccountMeta(keys[2], false)
	position, err = Check(metas, program, instructionData, swapped, len(accounts), fetch)
	assert.ErrorIs(t, err, ErrResolvedAccountsMismatch)
	assert.Equal(t, 5, position)

	// Missing accounts
	_, err = Check(metas, program, instructionData, all[:6], len(accounts), fetch)
	assert.ErrorIs(t, err, ErrResolvedAccountsMismatch)
}

func TestResolve_Errors(t *testing.T) {
	keys := generateKeys(t, 2)
	program := keys[1]
	accounts := []solana.AccountMeta{solana.NewAccountMeta(keys[0], false)}

	for _, tc := range []struct {
		seed     Seed
		expected error
	}{
		{NewAccountKeySeed(1), ErrAccountIndexOutOfRange},
		{NewInstructionDataSeed(0, 9), ErrInstructionDataTooSmall},
		{NewAccountDataSeed(1, 0, 1), ErrAccountIndexOutOfRange},
		{NewAccountDataSeed(0, 0, 1), ErrAccountDataNotAvailable},
	} {
		meta, err := NewProgramDerivedMeta([]Seed{tc.seed}, false, false)
		require.NoError(t, err)

		_, err = Resolve([]ExtraAccountMeta{meta}, program, make([]byte, 8), accounts, nil)
		assert.ErrorIs(t, err, tc.expected)
	}

	meta, err := NewProgramDerivedMeta([]Seed{NewAccountDataSeed(0, 4, 8)}, false, false)
	require.NoError(t, err)
	_, err = Resolve([]ExtraAccountMeta{meta}, program, nil, accounts, func(ed25519.PublicKey) ([]byte, error) {
		return make([]byte, 11), nil
	})
	assert.ErrorIs(t, err, ErrAccountDataTooSmall)

	meta, err = NewExternalProgramDerivedMeta(3, []Seed{NewLiteralSeed([]byte("x"))}, false, false)
	require.NoError(t, err)
	_, err = Resolve([]ExtraAccountMeta{meta}, program, nil, accounts, nil)
	assert.ErrorIs(t, err, ErrProgramIndexOutOfRange)
}
