package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/runtime"
	"github.com/code-payments/burn-hook/pkg/solana/system"
	"github.com/code-payments/burn-hook/pkg/solana/token"
)

// processAssociatedTokenAccount creates the associated token account of a
// wallet by funding and allocating the derived address, then initializing it
// through the token program.
func processAssociatedTokenAccount(ctx context.Context, invoker runtime.Invoker, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	decompiled, err := token.DecompileCreateAssociatedAccount(solana.NewInstruction(programID, data, runtime.Metas(accounts)...))
	if err != nil {
		return errors.Wrap(solana.InstructionErrorInvalidInstructionData, err.Error())
	}

	address, bump, err := solana.FindProgramAddressAndBump(
		programID,
		decompiled.Owner,
		decompiled.TokenProgram,
		decompiled.Mint,
	)
	if err != nil {
		return err
	}
	if !bytes.Equal(address, decompiled.Address) {
		return errors.Wrap(solana.InstructionErrorInvalidSeeds, "associated address mismatch")
	}

	if !accounts[1].IsOwnedBy(system.ProgramKey) || !accounts[1].IsEmpty() {
		return errors.Wrap(solana.InstructionErrorIncorrectProgramID, "associated account already exists")
	}
	if !accounts[3].IsOwnedBy(decompiled.TokenProgram) {
		return errors.Wrap(solana.InstructionErrorIncorrectProgramID, "mint is not owned by the token program")
	}

	err = invoker.Invoke(
		ctx,
		system.CreateAccount(
			decompiled.Subsidizer,
			decompiled.Address,
			decompiled.TokenProgram,
			system.MinimumBalanceForRentExemption(token.AccountSize),
			token.AccountSize,
		),
		runtime.SignerSeeds{decompiled.Owner, decompiled.TokenProgram, decompiled.Mint, {bump}},
	)
	if err != nil {
		return err
	}

	return invoker.Invoke(
		ctx,
		token.InitializeAccount3(decompiled.TokenProgram, decompiled.Address, decompiled.Mint, decompiled.Owner),
	)
}
