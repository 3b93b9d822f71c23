package burnhook

import (
	"crypto/ed25519"

	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/transferhook"
)

var (
	extraAccountMetasPrefix = []byte(transferhook.ExtraAccountMetasSeed)
	mintAuthorityPrefix     = []byte("mint-authority")
)

// GetExtraAccountMetaListAddress returns the address of the resolution table
// the program publishes for a mint.
func GetExtraAccountMetaListAddress(program, mint ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		program,
		extraAccountMetasPrefix,
		mint,
	)
}

// GetMintAuthorityAddress returns the program's derived mint authority.
func GetMintAuthorityAddress(program ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		program,
		mintAuthorityPrefix,
	)
}

func extraAccountMetaListSeeds(mint ed25519.PublicKey, bump uint8) [][]byte {
	return [][]byte{extraAccountMetasPrefix, mint, {bump}}
}
