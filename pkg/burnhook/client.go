package burnhook

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/system"
	"github.com/code-payments/burn-hook/pkg/solana/transferhook"
)

type ProcessBurnAndTransferInstructionAccounts struct {
	Mint         ed25519.PublicKey
	Source       ed25519.PublicKey
	Destination  ed25519.PublicKey
	Owner        ed25519.PublicKey
	TokenProgram ed25519.PublicKey
}

func NewProcessBurnAndTransferInstruction(
	program ed25519.PublicKey,
	accounts *ProcessBurnAndTransferInstructionAccounts,
	args *ProcessBurnAndTransferInstructionArgs,
) solana.Instruction {
	data := make([]byte, discriminatorSize+ProcessBurnAndTransferInstructionArgsSize)
	copy(data, processBurnAndTransferDiscriminator)
	binary.LittleEndian.PutUint64(data[discriminatorSize:], args.Amount)

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(accounts.Mint, false),
		solana.NewAccountMeta(accounts.Source, false),
		solana.NewAccountMeta(accounts.Destination, false),
		solana.NewAccountMeta(accounts.Owner, true),
		solana.NewReadonlyAccountMeta(accounts.TokenProgram, false),
	)
}

type InitializeExtraAccountMetaListInstructionAccounts struct {
	Payer                  ed25519.PublicKey
	ExtraAccountMetaList   ed25519.PublicKey
	Mint                   ed25519.PublicKey
	TokenProgram           ed25519.PublicKey
	AssociatedTokenProgram ed25519.PublicKey
}

func NewInitializeExtraAccountMetaListInstruction(
	program ed25519.PublicKey,
	accounts *InitializeExtraAccountMetaListInstructionAccounts,
) solana.Instruction {
	data := make([]byte, discriminatorSize+InitializeExtraAccountMetaListInstructionArgsSize)
	copy(data, initializeExtraAccountMetaListDiscriminator)

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(accounts.Payer, true),
		solana.NewAccountMeta(accounts.ExtraAccountMetaList, false),
		solana.NewReadonlyAccountMeta(accounts.Mint, false),
		solana.NewReadonlyAccountMeta(accounts.TokenProgram, false),
		solana.NewReadonlyAccountMeta(accounts.AssociatedTokenProgram, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey, false),
	)
}

type TransferHookInstructionAccounts struct {
	Source               ed25519.PublicKey
	Mint                 ed25519.PublicKey
	Destination          ed25519.PublicKey
	Owner                ed25519.PublicKey
	ExtraAccountMetaList ed25519.PublicKey
	RemainingAccounts    []solana.AccountMeta
}

// NewTransferHookInstruction invokes transfer_hook through the program's own
// discriminator. The token program instead uses the interface encoding built
// by transferhook.NewExecuteInstruction.
func NewTransferHookInstruction(
	program ed25519.PublicKey,
	accounts *TransferHookInstructionAccounts,
	args *TransferHookInstructionArgs,
) solana.Instruction {
	data := make([]byte, discriminatorSize+TransferHookInstructionArgsSize)
	copy(data, transferHookDiscriminator)
	binary.LittleEndian.PutUint64(data[discriminatorSize:], args.Amount)

	execute := transferhook.NewExecuteInstruction(
		program,
		accounts.Source,
		accounts.Mint,
		accounts.Destination,
		accounts.Owner,
		accounts.ExtraAccountMetaList,
		args.Amount,
		accounts.RemainingAccounts...,
	)
	execute.Data = data
	return execute
}
