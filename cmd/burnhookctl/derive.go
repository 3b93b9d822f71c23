package main

import (
	"crypto/ed25519"
	"fmt"
	"text/tabwriter"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/burn-hook/pkg/burnhook"
)

var programFlag = &cli.StringFlag{
	Name:  "program",
	Usage: "program id, defaults to the configured program_id",
}

var mintFlag = &cli.StringFlag{
	Name:     "mint",
	Usage:    "hooked mint address",
	Required: true,
}

var deriveCommand = &cli.Command{
	Name:  "derive",
	Usage: "Print the program derived addresses for a mint",
	Flags: []cli.Flag{
		programFlag,
		mintFlag,
	},
	Action: func(cctx *cli.Context) error {
		program, mint, err := programAndMint(cctx)
		if err != nil {
			return err
		}

		metaList, metaListBump, err := burnhook.GetExtraAccountMetaListAddress(program, mint)
		if err != nil {
			return errors.Wrap(err, "failed to derive extra account meta list address")
		}
		authority, authorityBump, err := burnhook.GetMintAuthorityAddress(program)
		if err != nil {
			return errors.Wrap(err, "failed to derive mint authority address")
		}

		tw := tabwriter.NewWriter(cctx.App.Writer, 8, 8, 1, ' ', 0)
		fmt.Fprintf(tw, "Program:\t%s\n", base58.Encode(program))
		fmt.Fprintf(tw, "Mint:\t%s\n", base58.Encode(mint))
		fmt.Fprintf(tw, "Extra Account Meta List:\t%s\t(bump %d)\n", base58.Encode(metaList), metaListBump)
		fmt.Fprintf(tw, "Mint Authority:\t%s\t(bump %d)\n", base58.Encode(authority), authorityBump)
		return tw.Flush()
	},
}

func programAndMint(cctx *cli.Context) (ed25519.PublicKey, ed25519.PublicKey, error) {
	encodedProgram := cctx.String(programFlag.Name)
	if len(encodedProgram) == 0 {
		encodedProgram = getConfig(cctx).ProgramID
	}
	if len(encodedProgram) == 0 {
		return nil, nil, errors.New("a program id is required")
	}

	program, err := decodeKey("program", encodedProgram)
	if err != nil {
		return nil, nil, err
	}
	mint, err := decodeKey("mint", cctx.String(mintFlag.Name))
	if err != nil {
		return nil, nil, err
	}

	return program, mint, nil
}
