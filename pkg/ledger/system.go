package ledger

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/runtime"
	"github.com/code-payments/burn-hook/pkg/solana/system"
)

func processSystem(_ context.Context, _ runtime.Invoker, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	instruction := solana.NewInstruction(programID, data, runtime.Metas(accounts)...)

	if create, err := system.DecompileCreateAccount(instruction); err == nil {
		return createAccount(accounts[0], accounts[1], create)
	} else if err != solana.ErrIncorrectInstruction {
		return errors.Wrap(solana.InstructionErrorInvalidInstructionData, err.Error())
	}

	if transfer, err := system.DecompileTransfer(instruction); err == nil {
		return transferLamports(accounts[0], accounts[1], transfer.Lamports)
	} else if err != solana.ErrIncorrectInstruction {
		return errors.Wrap(solana.InstructionErrorInvalidInstructionData, err.Error())
	}

	return errors.Wrap(solana.InstructionErrorInvalidInstructionData, "unsupported system instruction")
}

func createAccount(funder, created *runtime.AccountInfo, create *system.DecompiledCreateAccount) error {
	if !funder.IsSigner || !created.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}

	if created.Lamports > 0 || len(created.Data) > 0 || !system.IsSystemOwned(created.Owner) {
		return errors.Wrap(system.ErrorAccountAlreadyInUse, "account already in use")
	}
	if create.Size > system.MaxPermittedDataLength {
		return errors.Wrapf(system.ErrorInvalidAccountDataLength, "size %d", create.Size)
	}

	if err := transferLamports(funder, created, create.Lamports); err != nil {
		return err
	}

	created.Data = make([]byte, create.Size)
	created.Owner = append(ed25519.PublicKey{}, create.Owner...)
	return nil
}

func transferLamports(from, to *runtime.AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}
	if len(from.Data) > 0 {
		return errors.Wrap(solana.InstructionErrorInvalidArgument, "from must not carry data")
	}
	if from.Lamports < lamports {
		return errors.Wrapf(system.ErrorResultWithNegativeLamports, "balance %d, need %d", from.Lamports, lamports)
	}

	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}
