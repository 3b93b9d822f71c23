package token

import (
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/system"
)

func TestGetAssociatedAccount(t *testing.T) {
	// Values generated from taken from spl code.
	wallet, err := base58.Decode("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	require.NoError(t, err)
	mint, err := base58.Decode("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")
	require.NoError(t, err)
	addr, err := base58.Decode("H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ")
	require.NoError(t, err)

	actual, err := GetAssociatedAccount(wallet, mint, ProgramKey)
	require.NoError(t, err)
	assert.EqualValues(t, addr, actual)

	// The token program is part of the seeds
	actual, err = GetAssociatedAccount(wallet, mint, Program2022Key)
	require.NoError(t, err)
	assert.NotEqualValues(t, addr, actual)
}

func TestCreateAssociatedAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	expectedAddr, err := GetAssociatedAccount(keys[1], keys[2], Program2022Key)
	require.NoError(t, err)

	instruction, addr, err := CreateAssociatedTokenAccount(keys[0], keys[1], keys[2], Program2022Key)
	require.NoError(t, err)
	assert.Equal(t, expectedAddr, addr)

	assert.Empty(t, instruction.Data)
	assert.Equal(t, 6, len(instruction.Accounts))
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)
	for i := 2; i < len(instruction.Accounts); i++ {
		assert.False(t, instruction.Accounts[i].IsSigner)
		assert.False(t, instruction.Accounts[i].IsWritable)
	}

	assert.EqualValues(t, system.ProgramKey, instruction.Accounts[4].PublicKey)
	assert.EqualValues(t, Program2022Key, instruction.Accounts[5].PublicKey)

	decompiled, err := DecompileCreateAssociatedAccount(instruction)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Subsidizer)
	assert.Equal(t, addr, decompiled.Address)
	assert.Equal(t, keys[1], decompiled.Owner)
	assert.Equal(t, keys[2], decompiled.Mint)
	assert.Equal(t, Program2022Key, decompiled.TokenProgram)

	instruction.Accounts[4].PublicKey = keys[0]
	_, err = DecompileCreateAssociatedAccount(instruction)
	assert.Error(t, err)

	instruction.Program = keys[0]
	_, err = DecompileCreateAssociatedAccount(instruction)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}
