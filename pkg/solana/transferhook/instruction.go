// Package transferhook implements the client side of the SPL transfer hook
// interface: instruction encoding and extra account resolution for Execute.
package transferhook

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/accountresolution"
)

// ExtraAccountMetasSeed is the fixed seed of the extra account meta list
// address.
const ExtraAccountMetasSeed = "extra-account-metas"

const namespace = "spl-transfer-hook-interface"

var (
	ExecuteDiscriminator                        = discriminator("execute")
	InitializeExtraAccountMetaListDiscriminator = discriminator("initialize-extra-account-metas")
	UpdateExtraAccountMetaListDiscriminator     = discriminator("update-extra-account-metas")
)

var ErrUnknownInstruction = errors.New("unknown transfer hook instruction")

func discriminator(name string) []byte {
	h := sha256.Sum256([]byte(namespace + ":" + name))
	return h[:accountresolution.DiscriminatorSize]
}

type InstructionType uint8

const (
	InstructionTypeUnknown InstructionType = iota
	InstructionTypeExecute
	InstructionTypeInitializeExtraAccountMetaList
	InstructionTypeUpdateExtraAccountMetaList
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeExecute:
		return "execute"
	case InstructionTypeInitializeExtraAccountMetaList:
		return "initialize_extra_account_meta_list"
	case InstructionTypeUpdateExtraAccountMetaList:
		return "update_extra_account_meta_list"
	default:
		return "unknown"
	}
}

// Instruction is a decoded transfer hook interface instruction.
type Instruction struct {
	Type InstructionType

	// Execute
	Amount uint64

	// InitializeExtraAccountMetaList and UpdateExtraAccountMetaList
	ExtraAccountMetas []accountresolution.ExtraAccountMeta
}

// Unpack decodes a transfer hook interface instruction. Data that does not
// begin with an interface discriminator yields ErrUnknownInstruction.
func Unpack(data []byte) (*Instruction, error) {
	if len(data) < accountresolution.DiscriminatorSize {
		return nil, errors.Wrap(ErrUnknownInstruction, "data too short")
	}

	tag, rest := data[:accountresolution.DiscriminatorSize], data[accountresolution.DiscriminatorSize:]
	switch {
	case bytes.Equal(tag, ExecuteDiscriminator):
		if len(rest) < 8 {
			return nil, errors.Errorf("invalid execute data size: %d (expected %d)", len(rest), 8)
		}
		return &Instruction{
			Type:   InstructionTypeExecute,
			Amount: binary.LittleEndian.Uint64(rest),
		}, nil
	case bytes.Equal(tag, InitializeExtraAccountMetaListDiscriminator):
		metas, err := unpackMetas(rest)
		if err != nil {
			return nil, err
		}
		return &Instruction{
			Type:              InstructionTypeInitializeExtraAccountMetaList,
			ExtraAccountMetas: metas,
		}, nil
	case bytes.Equal(tag, UpdateExtraAccountMetaListDiscriminator):
		metas, err := unpackMetas(rest)
		if err != nil {
			return nil, err
		}
		return &Instruction{
			Type:              InstructionTypeUpdateExtraAccountMetaList,
			ExtraAccountMetas: metas,
		}, nil
	default:
		return nil, ErrUnknownInstruction
	}
}

// Pack encodes the instruction data.
func (i *Instruction) Pack() ([]byte, error) {
	switch i.Type {
	case InstructionTypeExecute:
		data := make([]byte, accountresolution.DiscriminatorSize+8)
		copy(data, ExecuteDiscriminator)
		binary.LittleEndian.PutUint64(data[accountresolution.DiscriminatorSize:], i.Amount)
		return data, nil
	case InstructionTypeInitializeExtraAccountMetaList:
		return packMetas(InitializeExtraAccountMetaListDiscriminator, i.ExtraAccountMetas), nil
	case InstructionTypeUpdateExtraAccountMetaList:
		return packMetas(UpdateExtraAccountMetaListDiscriminator, i.ExtraAccountMetas), nil
	default:
		return nil, ErrUnknownInstruction
	}
}

// The meta vector is encoded as a u32 count followed by the entries, which is
// the same layout as the stored list without its discriminator and length.
func packMetas(tag []byte, metas []accountresolution.ExtraAccountMeta) []byte {
	list := make([]byte, accountresolution.SizeOf(len(metas)))
	_ = accountresolution.Init(list, tag, metas)

	data := make([]byte, 0, len(list)-4)
	data = append(data, tag...)
	return append(data, list[accountresolution.DiscriminatorSize+4:]...)
}

func unpackMetas(data []byte) ([]accountresolution.ExtraAccountMeta, error) {
	if len(data) < 4 {
		return nil, errors.New("missing extra account meta count")
	}

	// Rebuild the stored layout so the list decoder can be reused
	list := make([]byte, accountresolution.DiscriminatorSize+4+len(data))
	binary.LittleEndian.PutUint32(list[accountresolution.DiscriminatorSize:], uint32(len(data)))
	copy(list[accountresolution.DiscriminatorSize+4:], data)

	count := binary.LittleEndian.Uint32(data)
	if uint64(len(data)) != 4+uint64(count)*accountresolution.ExtraAccountMetaSize {
		return nil, errors.Errorf("invalid extra account meta data size: %d for %d entries", len(data), count)
	}

	return accountresolution.Unpack(list, list[:accountresolution.DiscriminatorSize])
}

// GetExtraAccountMetaListAddress returns the address holding the extra
// account meta list of a mint for a hook program.
func GetExtraAccountMetaListAddress(mint, hookProgram ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(hookProgram, []byte(ExtraAccountMetasSeed), mint)
}

// NewExecuteInstruction returns an Execute instruction with the fixed
// interface accounts followed by any additional accounts.
func NewExecuteInstruction(
	hookProgram ed25519.PublicKey,
	source ed25519.PublicKey,
	mint ed25519.PublicKey,
	destination ed25519.PublicKey,
	owner ed25519.PublicKey,
	extraAccountMetaList ed25519.PublicKey,
	amount uint64,
	additional ...solana.AccountMeta,
) solana.Instruction {
	data, _ := (&Instruction{Type: InstructionTypeExecute, Amount: amount}).Pack()

	accounts := []solana.AccountMeta{
		solana.NewReadonlyAccountMeta(source, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(destination, false),
		solana.NewReadonlyAccountMeta(owner, false),
		solana.NewReadonlyAccountMeta(extraAccountMetaList, false),
	}

	return solana.NewInstruction(hookProgram, data, append(accounts, additional...)...)
}

// NewInitializeExtraAccountMetaListInstruction returns the interface
// instruction creating the list account for a mint.
func NewInitializeExtraAccountMetaListInstruction(
	hookProgram ed25519.PublicKey,
	extraAccountMetaList ed25519.PublicKey,
	mint ed25519.PublicKey,
	authority ed25519.PublicKey,
	metas []accountresolution.ExtraAccountMeta,
	additional ...solana.AccountMeta,
) solana.Instruction {
	data, _ := (&Instruction{Type: InstructionTypeInitializeExtraAccountMetaList, ExtraAccountMetas: metas}).Pack()

	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(extraAccountMetaList, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(authority, true),
	}

	return solana.NewInstruction(hookProgram, data, append(accounts, additional...)...)
}
