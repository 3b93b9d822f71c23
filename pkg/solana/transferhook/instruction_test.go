package transferhook

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/accountresolution"
	"github.com/code-payments/burn-hook/pkg/solana/token"
)

func TestDiscriminators(t *testing.T) {
	h := sha256.Sum256([]byte("spl-transfer-hook-interface:execute"))
	assert.Equal(t, h[:8], ExecuteDiscriminator)

	// Known value from the interface crate
	assert.Equal(t, []byte{105, 37, 101, 197, 75, 251, 102, 26}, ExecuteDiscriminator)

	assert.NotEqual(t, ExecuteDiscriminator, InitializeExtraAccountMetaListDiscriminator)
	assert.NotEqual(t, InitializeExtraAccountMetaListDiscriminator, UpdateExtraAccountMetaListDiscriminator)
}

func TestExecute_PackUnpack(t *testing.T) {
	data, err := (&Instruction{Type: InstructionTypeExecute, Amount: 42}).Pack()
	require.NoError(t, err)
	require.Len(t, data, 16)
	assert.EqualValues(t, 42, binary.LittleEndian.Uint64(data[8:]))

	decoded, err := Unpack(data)
	require.NoError(t, err)
	assert.Equal(t, InstructionTypeExecute, decoded.Type)
	assert.EqualValues(t, 42, decoded.Amount)

	_, err = Unpack(data[:12])
	assert.Error(t, err)
}

func TestUnpack_Unknown(t *testing.T) {
	_, err := Unpack([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrUnknownInstruction)

	_, err = Unpack(make([]byte, 16))
	assert.Equal(t, ErrUnknownInstruction, err)

	_, err = (&Instruction{}).Pack()
	assert.Equal(t, ErrUnknownInstruction, err)
}

func TestInitializeExtraAccountMetaList_PackUnpack(t *testing.T) {
	keys := generateKeys(t, 4)

	derived, err := accountresolution.NewProgramDerivedMeta(
		[]accountresolution.Seed{accountresolution.NewAccountKeySeed(1)},
		false,
		true,
	)
	require.NoError(t, err)
	metas := []accountresolution.ExtraAccountMeta{
		accountresolution.NewLiteralMeta(keys[0], false, false),
		derived,
	}

	instruction := NewInitializeExtraAccountMetaListInstruction(keys[1], keys[2], keys[3], keys[0], metas)
	require.Len(t, instruction.Accounts, 3)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.True(t, instruction.Accounts[2].IsSigner)

	assert.Equal(t, InitializeExtraAccountMetaListDiscriminator, instruction.Data[:8])
	assert.EqualValues(t, 2, binary.LittleEndian.Uint32(instruction.Data[8:]))
	assert.Len(t, instruction.Data, 12+2*accountresolution.ExtraAccountMetaSize)

	decoded, err := Unpack(instruction.Data)
	require.NoError(t, err)
	assert.Equal(t, InstructionTypeInitializeExtraAccountMetaList, decoded.Type)
	assert.Equal(t, metas, decoded.ExtraAccountMetas)

	data, err := (&Instruction{Type: InstructionTypeUpdateExtraAccountMetaList, ExtraAccountMetas: metas[:1]}).Pack()
	require.NoError(t, err)
	decoded, err = Unpack(data)
	require.NoError(t, err)
	assert.Equal(t, InstructionTypeUpdateExtraAccountMetaList, decoded.Type)
	assert.Equal(t, metas[:1], decoded.ExtraAccountMetas)

	_, err = Unpack(data[:len(data)-1])
	assert.Error(t, err)
	_, err = Unpack(data[:10])
	assert.Error(t, err)
}

func TestNewExecuteInstruction(t *testing.T) {
	keys := generateKeys(t, 7)

	instruction := NewExecuteInstruction(keys[0], keys[1], keys[2], keys[3], keys[4], keys[5], 42, solana.NewAccountMeta(keys[6], false))
	assert.Equal(t, keys[0], instruction.Program)
	require.Len(t, instruction.Accounts, 6)
	for i, account := range instruction.Accounts[:5] {
		assert.Equal(t, keys[i+1], account.PublicKey)
		assert.False(t, account.IsWritable)
		assert.False(t, account.IsSigner)
	}
	assert.True(t, instruction.Accounts[5].IsWritable)
}

func TestAddExtraAccountMetasForExecute(t *testing.T) {
	keys := generateKeys(t, 6)
	hookProgram, source, mint, destination, owner, extra := keys[0], keys[1], keys[2], keys[3], keys[4], keys[5]

	metaListAddress, _, err := GetExtraAccountMetaListAddress(mint, hookProgram)
	require.NoError(t, err)

	derived, err := accountresolution.NewProgramDerivedMeta(
		[]accountresolution.Seed{
			accountresolution.NewLiteralSeed([]byte("owner")),
			accountresolution.NewAccountKeySeed(3),
			accountresolution.NewInstructionDataSeed(8, 8),
		},
		false,
		true,
	)
	require.NoError(t, err)
	metas := []accountresolution.ExtraAccountMeta{
		accountresolution.NewLiteralMeta(mint, false, false),
		accountresolution.NewLiteralMeta(extra, false, false),
		derived,
	}

	list := make([]byte, accountresolution.SizeOf(len(metas)))
	require.NoError(t, accountresolution.Init(list, ExecuteDiscriminator, metas))

	fetch := func(address ed25519.PublicKey) ([]byte, error) {
		if string(address) == string(metaListAddress) {
			return list, nil
		}
		return nil, errors.New("not found")
	}

	transfer := token.TransferChecked(token.Program2022Key, source, mint, destination, owner, 1_000_000, 9)
	require.NoError(t, AddExtraAccountMetasForExecute(&transfer, hookProgram, 1_000_000, fetch))

	amount := make([]byte, 8)
	binary.LittleEndian.PutUint64(amount, 1_000_000)
	expectedDerived, err := solana.FindProgramAddress(hookProgram, []byte("owner"), owner, amount)
	require.NoError(t, err)

	// The mint is already present, so only the remaining accounts are appended
	require.Len(t, transfer.Accounts, 8)
	assert.Equal(t, extra, transfer.Accounts[4].PublicKey)
	assert.Equal(t, expectedDerived, transfer.Accounts[5].PublicKey)
	assert.True(t, transfer.Accounts[5].IsWritable)
	assert.Equal(t, hookProgram, transfer.Accounts[6].PublicKey)
	assert.Equal(t, metaListAddress, transfer.Accounts[7].PublicKey)

	// Missing list
	transfer = token.TransferChecked(token.Program2022Key, source, keys[5], destination, owner, 1, 9)
	assert.Error(t, AddExtraAccountMetasForExecute(&transfer, hookProgram, 1, fetch))
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

func TestAppendDeduped(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := solana.NewInstruction(keys[0], nil, solana.NewReadonlyAccountMeta(keys[1], false))

	// Existing entries are escalated in place
	appendDeduped(&instruction, solana.NewAccountMeta(keys[1], false))
	require.Len(t, instruction.Accounts, 1)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[0].IsSigner)

	// Privileges are never demoted
	appendDeduped(&instruction, solana.NewReadonlyAccountMeta(keys[1], false))
	require.Len(t, instruction.Accounts, 1)
	assert.True(t, instruction.Accounts[0].IsWritable)

	appendDeduped(&instruction, solana.NewReadonlyAccountMeta(keys[2], true))
	require.Len(t, instruction.Accounts, 2)
	assert.Equal(t, keys[2], instruction.Accounts[1].PublicKey)
	assert.True(t, instruction.Accounts[1].IsSigner)
}
