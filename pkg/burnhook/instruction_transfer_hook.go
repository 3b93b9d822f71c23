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
	TransferHookInstructionArgsSize = 8 // amount

	transferHookFixedAccountsSize = 5
)

type TransferHookInstructionArgs struct {
	Amount uint64
}

func (a *TransferHookInstructionArgs) Unmarshal(data []byte) error {
	if len(data) < TransferHookInstructionArgsSize {
		return errors.Wrapf(ErrorCodeInstructionDidNotDeserialize, "args size %d, need %d", len(data), TransferHookInstructionArgsSize)
	}
	a.Amount = binary.LittleEndian.Uint64(data)
	return nil
}

// transferHook runs for every transfer of a hooked mint. It validates the
// accounts the token program supplied and applies the transfer policy.
func (p *Program) transferHook(ctx context.Context, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	log := p.log.WithField("method", "transfer_hook")

	var args TransferHookInstructionArgs
	if err := args.Unmarshal(data); err != nil {
		return err
	}

	validated, err := p.validateTransferHook(ctx, programID, accounts, args.Amount)
	if err != nil {
		log.WithError(err).Debug("account validation failed")
		return err
	}

	transfer := &Transfer{
		Source:      validated.source.Key,
		Mint:        validated.mint.Key,
		Destination: validated.destination.Key,
		Owner:       validated.owner.Key,
		Amount:      args.Amount,
	}
	if validated.mintAuthority != nil {
		transfer.MintAuthority = validated.mintAuthority.Key
	}

	log = log.WithFields(logrus.Fields{
		"mint":   base58.Encode(transfer.Mint),
		"amount": args.Amount,
	})

	if err := p.policy.Check(ctx, transfer); err != nil {
		log.WithError(err).Debug("transfer rejected")
		return err
	}

	log.Debug("transfer hook executed")
	return nil
}
