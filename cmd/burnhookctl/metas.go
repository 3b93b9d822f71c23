package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"text/tabwriter"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/burn-hook/pkg/burnhook"
	"github.com/code-payments/burn-hook/pkg/solana/accountresolution"
	"github.com/code-payments/burn-hook/pkg/solana/transferhook"
)

var metasCommand = &cli.Command{
	Name:  "metas",
	Usage: "Print the extra account resolution table stored for a mint",
	Flags: []cli.Flag{
		programFlag,
		mintFlag,
	},
	Action: func(cctx *cli.Context) error {
		program, mint, err := programAndMint(cctx)
		if err != nil {
			return err
		}

		overrides, err := getConfig(cctx).overrides()
		if err != nil {
			return err
		}
		overrides.ProgramID = program

		encoded, metas, err := encodeExtraAccountMetaList(cctx.Context, burnhook.New(burnhook.WithOverrides(overrides)), overrides, mint)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cctx.App.Writer, 8, 8, 1, ' ', 0)
		for i, meta := range metas {
			fmt.Fprintf(tw, "%d\t%s\n", i, meta)
		}
		fmt.Fprintf(tw, "Size:\t%d\n", len(encoded))
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(cctx.App.Writer, hex.EncodeToString(encoded))
		return nil
	},
}

// encodeExtraAccountMetaList builds the account data the initialize
// instruction would write for the mint, including the size margin.
func encodeExtraAccountMetaList(ctx context.Context, program *burnhook.Program, overrides *burnhook.Overrides, mint ed25519.PublicKey) ([]byte, []accountresolution.ExtraAccountMeta, error) {
	tokenProgram := overrides.TokenProgramID
	if tokenProgram == nil {
		tokenProgram = defaultTokenProgramID
	}
	associatedTokenProgram := overrides.AssociatedTokenProgramID
	if associatedTokenProgram == nil {
		associatedTokenProgram = defaultAssociatedTokenProgramID
	}

	metas, err := burnhook.ExtraAccountMetas(mint, tokenProgram, associatedTokenProgram)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build extra account metas")
	}

	encoded := make([]byte, program.ExtraAccountMetaListSize(ctx, len(metas)))
	if err := accountresolution.Init(encoded, transferhook.ExecuteDiscriminator, metas); err != nil {
		return nil, nil, errors.Wrap(err, "failed to encode extra account meta list")
	}

	if _, err := accountresolution.Unpack(encoded, transferhook.ExecuteDiscriminator); err != nil {
		return nil, nil, errors.Wrapf(err, "encoded list for %s does not round trip", base58.Encode(mint))
	}

	return encoded, metas, nil
}
