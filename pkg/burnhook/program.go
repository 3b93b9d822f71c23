// Package burnhook implements a Token-2022 transfer hook program that can
// burn a fraction of a transfer and validates hooked transfers against a
// per-mint extra account meta list.
package burnhook

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/burn-hook/pkg/solana/runtime"
)

const discriminatorSize = 8

var (
	processBurnAndTransferDiscriminator         = sighash("process_burn_and_transfer")
	initializeExtraAccountMetaListDiscriminator = sighash("initialize_extra_account_meta_list")
	transferHookDiscriminator                   = sighash("transfer_hook")
)

// sighash is the anchor instruction discriminator for a global instruction.
func sighash(name string) []byte {
	h := sha256.Sum256([]byte("global:" + name))
	return h[:discriminatorSize]
}

// Option configures a Program.
type Option func(p *Program)

// WithTransferPolicy sets the policy applied to validated hooked transfers.
func WithTransferPolicy(policy TransferPolicy) Option {
	return func(p *Program) {
		p.policy = policy
	}
}

// Program is the on-chain processor. It holds no state between
// invocations.
type Program struct {
	log    *logrus.Entry
	conf   *conf
	policy TransferPolicy
}

var _ runtime.Processor = (*Program)(nil)

func New(configProvider ConfigProvider, opts ...Option) *Program {
	p := &Program{
		log:    logrus.StandardLogger().WithField("type", "burnhook/program"),
		conf:   configProvider(),
		policy: PassThroughPolicy,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Process implements runtime.Processor.
func (p *Program) Process(ctx context.Context, invoker runtime.Invoker, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	if err := p.checkProgramID(ctx, programID); err != nil {
		return err
	}

	if len(data) >= discriminatorSize {
		discriminator, args := data[:discriminatorSize], data[discriminatorSize:]

		switch {
		case bytes.Equal(discriminator, processBurnAndTransferDiscriminator):
			return p.processBurnAndTransfer(ctx, invoker, programID, accounts, args)
		case bytes.Equal(discriminator, initializeExtraAccountMetaListDiscriminator):
			return p.initializeExtraAccountMetaList(ctx, invoker, programID, accounts, args)
		case bytes.Equal(discriminator, transferHookDiscriminator):
			return p.transferHook(ctx, programID, accounts, args)
		}
	}

	return p.fallback(ctx, programID, accounts, data)
}

func (p *Program) checkProgramID(ctx context.Context, programID ed25519.PublicKey) error {
	declared := p.conf.programID.Get(ctx)
	if len(declared) == 0 || bytes.Equal(declared, programID) {
		return nil
	}

	return errors.Wrapf(
		ErrorCodeDeclaredProgramIDMismatch,
		"declared %s, executing as %s",
		base58.Encode(declared),
		base58.Encode(programID),
	)
}
