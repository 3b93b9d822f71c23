package burnhook

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/burn-hook/pkg/solana/runtime"
	"github.com/code-payments/burn-hook/pkg/solana/token"
)

// TokenLedger moves and destroys token balances on behalf of the program.
type TokenLedger interface {
	Burn(ctx context.Context, source, mint, owner ed25519.PublicKey, amount uint64) error

	TransferChecked(ctx context.Context, source, mint, destination, owner ed25519.PublicKey, amount uint64, decimals byte) error
}

// cpiTokenLedger issues token program instructions through cross program
// invocation. Signers are the seeds of program derived authorities the
// program signs for, if any.
type cpiTokenLedger struct {
	invoker      runtime.Invoker
	tokenProgram ed25519.PublicKey
	signers      []runtime.SignerSeeds
}

func NewCPITokenLedger(invoker runtime.Invoker, tokenProgram ed25519.PublicKey, signers ...runtime.SignerSeeds) TokenLedger {
	return &cpiTokenLedger{
		invoker:      invoker,
		tokenProgram: tokenProgram,
		signers:      signers,
	}
}

func (l *cpiTokenLedger) Burn(ctx context.Context, source, mint, owner ed25519.PublicKey, amount uint64) error {
	return l.invoker.Invoke(ctx, token.Burn(l.tokenProgram, source, mint, owner, amount), l.signers...)
}

func (l *cpiTokenLedger) TransferChecked(ctx context.Context, source, mint, destination, owner ed25519.PublicKey, amount uint64, decimals byte) error {
	return l.invoker.Invoke(ctx, token.TransferChecked(l.tokenProgram, source, mint, destination, owner, amount, decimals), l.signers...)
}
