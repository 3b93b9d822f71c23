package burnhook

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/burn-hook/pkg/solana/runtime"
	"github.com/code-payments/burn-hook/pkg/solana/transferhook"
)

// fallback handles instructions encoded with the transfer hook interface,
// which is how the token program invokes the hook. Only Execute is served.
func (p *Program) fallback(ctx context.Context, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	log := p.log.WithField("method", "fallback")

	instruction, err := transferhook.Unpack(data)
	if err != nil {
		log.WithError(err).Debug("unrecognized instruction")
		return errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	switch instruction.Type {
	case transferhook.InstructionTypeExecute:
		args := make([]byte, TransferHookInstructionArgsSize)
		binary.LittleEndian.PutUint64(args, instruction.Amount)
		return p.transferHook(ctx, programID, accounts, args)
	case transferhook.InstructionTypeInitializeExtraAccountMetaList, transferhook.InstructionTypeUpdateExtraAccountMetaList:
		log.WithFields(logrus.Fields{
			"instruction": instruction.Type.String(),
		}).Debug("unsupported interface instruction")
		return errors.Wrapf(ErrInvalidInstructionData, "unsupported interface instruction %s", instruction.Type)
	default:
		return errors.Wrapf(ErrInvalidInstructionData, "unknown interface instruction %d", instruction.Type)
	}
}
