package burnhook

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/burn-hook/pkg/solana/accountresolution"
	"github.com/code-payments/burn-hook/pkg/solana/runtime"
	"github.com/code-payments/burn-hook/pkg/solana/system"
	"github.com/code-payments/burn-hook/pkg/solana/transferhook"
)

const (
	InitializeExtraAccountMetaListInstructionArgsSize = 0

	InitializeExtraAccountMetaListInstructionAccountsSize = 6
)

// Positions of the accounts passed to Execute that the table refers to.
const (
	executeDestinationIndex            = 2
	executeOwnerIndex                  = 3
	executeMintIndex                   = 5
	executeAssociatedTokenProgramIndex = 7
)

// ExtraAccountMetas returns the resolution table published for every mint.
// Indices refer to the Execute account list, where the table's own entries
// start at position 5.
func ExtraAccountMetas(mint, tokenProgram, associatedTokenProgram ed25519.PublicKey) ([]accountresolution.ExtraAccountMeta, error) {
	destinationAccount, err := accountresolution.NewExternalProgramDerivedMeta(
		executeAssociatedTokenProgramIndex,
		[]accountresolution.Seed{
			accountresolution.NewAccountKeySeed(executeAssociatedTokenProgramIndex),
			accountresolution.NewAccountKeySeed(executeDestinationIndex),
			accountresolution.NewAccountKeySeed(executeMintIndex),
		},
		false,
		true,
	)
	if err != nil {
		return nil, err
	}

	ownerAccount, err := accountresolution.NewExternalProgramDerivedMeta(
		executeAssociatedTokenProgramIndex,
		[]accountresolution.Seed{
			accountresolution.NewAccountKeySeed(executeOwnerIndex),
			accountresolution.NewAccountKeySeed(executeDestinationIndex),
			accountresolution.NewAccountKeySeed(executeMintIndex),
		},
		false,
		true,
	)
	if err != nil {
		return nil, err
	}

	return []accountresolution.ExtraAccountMeta{
		accountresolution.NewLiteralMeta(mint, false, true),
		accountresolution.NewLiteralMeta(tokenProgram, false, false),
		accountresolution.NewLiteralMeta(associatedTokenProgram, false, false),
		destinationAccount,
		ownerAccount,
	}, nil
}

// ExtraAccountMetaListSize returns the allocated size of the table account,
// including the configured margin.
func (p *Program) ExtraAccountMetaListSize(ctx context.Context, count int) uint64 {
	return uint64(accountresolution.SizeOf(count)) + p.conf.extraAccountMetasSizeMargin.Get(ctx)
}

// initializeExtraAccountMetaList creates and fills the mint's resolution
// table account.
func (p *Program) initializeExtraAccountMetaList(ctx context.Context, invoker runtime.Invoker, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, _ []byte) error {
	log := p.log.WithField("method", "initialize_extra_account_meta_list")

	validated, err := p.validateInitializeExtraAccountMetaList(ctx, programID, accounts)
	if err != nil {
		log.WithError(err).Debug("account validation failed")
		return err
	}

	metas, err := ExtraAccountMetas(validated.mint.Key, validated.tokenProgram.Key, validated.associatedTokenProgram.Key)
	if err != nil {
		return err
	}

	size := p.ExtraAccountMetaListSize(ctx, len(metas))
	lamports := system.MinimumBalanceForRentExemption(size)

	log = log.WithFields(logrus.Fields{
		"mint":     base58.Encode(validated.mint.Key),
		"address":  base58.Encode(validated.extraAccountMetaList.Key),
		"size":     size,
		"lamports": lamports,
	})

	if validated.payer.Lamports < lamports {
		return errors.Wrapf(ErrorCodeInsufficientFundsForRent, "payer holds %d lamports, need %d", validated.payer.Lamports, lamports)
	}

	err = invoker.Invoke(
		ctx,
		system.CreateAccount(validated.payer.Key, validated.extraAccountMetaList.Key, programID, lamports, size),
		extraAccountMetaListSeeds(validated.mint.Key, validated.bump),
	)
	if err != nil {
		log.WithError(err).Debug("failed to create extra account meta list")
		return errors.Wrap(err, "error creating extra account meta list")
	}

	if err := accountresolution.Init(validated.extraAccountMetaList.Data, transferhook.ExecuteDiscriminator, metas); err != nil {
		return errors.Wrap(err, "error writing extra account meta list")
	}

	log.Debug("initialized extra account meta list")
	return nil
}
