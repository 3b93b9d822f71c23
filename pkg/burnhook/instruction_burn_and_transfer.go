package burnhook

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/burn-hook/pkg/solana/runtime"
)

const (
	ProcessBurnAndTransferInstructionArgsSize = 8 // amount

	ProcessBurnAndTransferInstructionAccountsSize = 5
)

type ProcessBurnAndTransferInstructionArgs struct {
	Amount uint64
}

func (a *ProcessBurnAndTransferInstructionArgs) Unmarshal(data []byte) error {
	if len(data) < ProcessBurnAndTransferInstructionArgsSize {
		return errors.Wrapf(ErrorCodeInstructionDidNotDeserialize, "args size %d, need %d", len(data), ProcessBurnAndTransferInstructionArgsSize)
	}
	a.Amount = binary.LittleEndian.Uint64(data)
	return nil
}

// processBurnAndTransfer burns the policy's share of amount from the source
// and transfers the remainder to the destination.
func (p *Program) processBurnAndTransfer(ctx context.Context, invoker runtime.Invoker, _ ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	log := p.log.WithField("method", "process_burn_and_transfer")

	var args ProcessBurnAndTransferInstructionArgs
	if err := args.Unmarshal(data); err != nil {
		return err
	}

	validated, err := p.validateBurnAndTransfer(ctx, accounts)
	if err != nil {
		log.WithError(err).Debug("account validation failed")
		return err
	}

	policy, err := p.feePolicy(ctx)
	if err != nil {
		return err
	}

	burn, transfer, err := policy.Split(args.Amount)
	if err != nil {
		log.WithError(err).Debug("failed to split amount")
		return err
	}

	log = log.WithFields(logrus.Fields{
		"mint":     base58.Encode(validated.mint.Key),
		"source":   base58.Encode(validated.source.Key),
		"amount":   args.Amount,
		"burn":     burn,
		"transfer": transfer,
	})

	ledger := NewCPITokenLedger(invoker, validated.tokenProgram.Key)

	if err := ledger.Burn(ctx, validated.source.Key, validated.mint.Key, validated.owner.Key, burn); err != nil {
		log.WithError(err).Debug("burn failed")
		return errors.Wrap(err, "error burning tokens")
	}

	err = ledger.TransferChecked(
		ctx,
		validated.source.Key,
		validated.mint.Key,
		validated.destination.Key,
		validated.owner.Key,
		transfer,
		validated.decimals,
	)
	if err != nil {
		log.WithError(err).Debug("transfer failed")
		return errors.Wrap(err, "error transferring tokens")
	}

	log.Debug("burned and transferred")
	return nil
}
