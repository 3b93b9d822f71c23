package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"text/tabwriter"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/burn-hook/pkg/burnhook"
	"github.com/code-payments/burn-hook/pkg/ledger"
	"github.com/code-payments/burn-hook/pkg/ledger/account"
	"github.com/code-payments/burn-hook/pkg/ledger/account/badger"
	"github.com/code-payments/burn-hook/pkg/ledger/account/memory"
	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/system"
	"github.com/code-payments/burn-hook/pkg/solana/token"
	"github.com/code-payments/burn-hook/pkg/solana/transferhook"
)

const (
	simulationDecimals   = 9
	simulationMintAmount = 1000 * 1_000_000_000
	simulationAirdrop    = 100 * 1_000_000_000
)

var simulateCommand = &cli.Command{
	Name:  "simulate",
	Usage: "Run a hooked transfer and a burn and transfer against a local ledger",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:  "amount",
			Usage: "amount of base units to move in each transfer",
			Value: 100 * 1_000_000_000,
		},
	},
	Action: func(cctx *cli.Context) error {
		config := getConfig(cctx)

		log := logrus.StandardLogger().WithField("type", "burnhookctl/simulate")

		store, closeStore, err := openStore(log, config)
		if err != nil {
			return err
		}
		defer closeStore()

		result, err := runSimulation(cctx.Context, config, store, cctx.Uint64("amount"))
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cctx.App.Writer, 8, 8, 1, ' ', 0)
		fmt.Fprintf(tw, "Program:\t%s\n", base58.Encode(result.Program))
		fmt.Fprintln(tw, "Flow\tAmount\tSource\tDestination\tBurned")
		for _, outcome := range []*transferOutcome{result.HookedTransfer, result.BurnAndTransfer} {
			fmt.Fprintf(
				tw,
				"%s\t%d\t%d -> %d\t%d -> %d\t%d\n",
				outcome.Name,
				outcome.Amount,
				outcome.SourceBefore,
				outcome.SourceAfter,
				outcome.DestinationBefore,
				outcome.DestinationAfter,
				outcome.Burned(),
			)
		}
		return tw.Flush()
	},
}

func openStore(log *logrus.Entry, config *cliConfig) (account.Store, func(), error) {
	switch config.Store {
	case storeBadger:
		db, err := badger.Open(config.StorePath)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open badger store")
		}
		return badger.New(db), closeWithLog(log.WithField("store", storeBadger), db.Close), nil
	default:
		return memory.New(), func() {}, nil
	}
}

// closeWithLog adapts closer for a defer, logging any failure
func closeWithLog(log *logrus.Entry, closer func() error) func() {
	return func() {
		if err := closer(); err != nil {
			log.WithError(err).Warn("failed to close store")
		}
	}
}

type transferOutcome struct {
	Name   string
	Amount uint64

	SourceBefore      uint64
	SourceAfter       uint64
	DestinationBefore uint64
	DestinationAfter  uint64
	SupplyBefore      uint64
	SupplyAfter       uint64
}

func (o *transferOutcome) Burned() uint64 {
	return o.SupplyBefore - o.SupplyAfter
}

type simulationResult struct {
	Program         ed25519.PublicKey
	HookedTransfer  *transferOutcome
	BurnAndTransfer *transferOutcome
}

type simulation struct {
	log     *logrus.Entry
	ledger  *ledger.Ledger
	program ed25519.PublicKey
	payer   ed25519.PublicKey
}

type holder struct {
	wallet  ed25519.PublicKey
	account ed25519.PublicKey
}

// runSimulation deploys the program to a fresh ledger, then moves amount
// through a Token-2022 transfer on a hooked mint and through the program's
// burn and transfer entry point on a plain mint.
func runSimulation(ctx context.Context, config *cliConfig, store account.Store, amount uint64) (*simulationResult, error) {
	overrides, err := config.overrides()
	if err != nil {
		return nil, err
	}
	if overrides.ProgramID == nil {
		if overrides.ProgramID, err = newKey(); err != nil {
			return nil, err
		}
	}

	l, err := ledger.New(ctx, store)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ledger")
	}
	if err := l.RegisterProgram(ctx, overrides.ProgramID, burnhook.New(burnhook.WithOverrides(overrides))); err != nil {
		return nil, errors.Wrap(err, "failed to deploy program")
	}

	payer, err := newKey()
	if err != nil {
		return nil, err
	}
	if err := l.Airdrop(ctx, payer, simulationAirdrop); err != nil {
		return nil, errors.Wrap(err, "failed to fund payer")
	}

	s := &simulation{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":    "burnhookctl/simulation",
			"program": base58.Encode(overrides.ProgramID),
		}),
		ledger:  l,
		program: overrides.ProgramID,
		payer:   payer,
	}

	hooked, err := s.hookedTransfer(ctx, amount)
	if err != nil {
		return nil, errors.Wrap(err, "hooked transfer failed")
	}
	burnAndTransfer, err := s.burnAndTransfer(ctx, amount)
	if err != nil {
		return nil, errors.Wrap(err, "burn and transfer failed")
	}

	return &simulationResult{
		Program:         s.program,
		HookedTransfer:  hooked,
		BurnAndTransfer: burnAndTransfer,
	}, nil
}

func (s *simulation) hookedTransfer(ctx context.Context, amount uint64) (*transferOutcome, error) {
	mint, source, destination, err := s.setupMint(ctx, true)
	if err != nil {
		return nil, err
	}

	metaList, _, err := burnhook.GetExtraAccountMetaListAddress(s.program, mint)
	if err != nil {
		return nil, err
	}
	initialize := burnhook.NewInitializeExtraAccountMetaListInstruction(s.program, &burnhook.InitializeExtraAccountMetaListInstructionAccounts{
		Payer:                  s.payer,
		ExtraAccountMetaList:   metaList,
		Mint:                   mint,
		TokenProgram:           token.Program2022Key,
		AssociatedTokenProgram: token.AssociatedTokenAccountProgramKey,
	})
	if err := s.ledger.ExecuteTransaction(ctx, []ed25519.PublicKey{s.payer}, initialize); err != nil {
		return nil, errors.Wrap(err, "failed to initialize extra account meta list")
	}
	s.log.WithField("extra_account_meta_list", base58.Encode(metaList)).Info("initialized extra account meta list")

	transfer := token.TransferChecked(token.Program2022Key, source.account, mint, destination.account, source.wallet, amount, simulationDecimals)
	if err := transferhook.AddExtraAccountMetasForExecute(&transfer, s.program, amount, s.ledger.GetAccountData(ctx)); err != nil {
		return nil, errors.Wrap(err, "failed to resolve transfer hook accounts")
	}

	return s.measure(ctx, "transfer_checked", mint, source, destination, amount, func() error {
		return s.ledger.ExecuteTransaction(ctx, []ed25519.PublicKey{source.wallet}, transfer)
	})
}

func (s *simulation) burnAndTransfer(ctx context.Context, amount uint64) (*transferOutcome, error) {
	mint, source, destination, err := s.setupMint(ctx, false)
	if err != nil {
		return nil, err
	}

	instruction := burnhook.NewProcessBurnAndTransferInstruction(s.program, &burnhook.ProcessBurnAndTransferInstructionAccounts{
		Mint:         mint,
		Source:       source.account,
		Destination:  destination.account,
		Owner:        source.wallet,
		TokenProgram: token.Program2022Key,
	}, &burnhook.ProcessBurnAndTransferInstructionArgs{Amount: amount})

	return s.measure(ctx, "process_burn_and_transfer", mint, source, destination, amount, func() error {
		return s.ledger.ExecuteTransaction(ctx, []ed25519.PublicKey{s.payer, source.wallet}, instruction)
	})
}

func (s *simulation) measure(ctx context.Context, name string, mint ed25519.PublicKey, source, destination *holder, amount uint64, run func() error) (*transferOutcome, error) {
	outcome := &transferOutcome{
		Name:   name,
		Amount: amount,
	}

	var err error
	if outcome.SourceBefore, outcome.DestinationBefore, outcome.SupplyBefore, err = s.balances(ctx, mint, source, destination); err != nil {
		return nil, err
	}
	if err := run(); err != nil {
		return nil, err
	}
	if outcome.SourceAfter, outcome.DestinationAfter, outcome.SupplyAfter, err = s.balances(ctx, mint, source, destination); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"flow":        name,
		"amount":      amount,
		"burned":      outcome.Burned(),
		"source":      outcome.SourceAfter,
		"destination": outcome.DestinationAfter,
	}).Info("transfer complete")

	return outcome, nil
}

func (s *simulation) balances(ctx context.Context, mint ed25519.PublicKey, source, destination *holder) (uint64, uint64, uint64, error) {
	sourceAccount, err := s.ledger.GetTokenAccount(ctx, source.account)
	if err != nil {
		return 0, 0, 0, err
	}
	destinationAccount, err := s.ledger.GetTokenAccount(ctx, destination.account)
	if err != nil {
		return 0, 0, 0, err
	}
	decoded, err := s.ledger.GetMint(ctx, mint)
	if err != nil {
		return 0, 0, 0, err
	}
	return sourceAccount.Amount, destinationAccount.Amount, decoded.Supply, nil
}

// setupMint creates a mint authorized by the payer along with a funded source
// holder and an empty destination holder.
func (s *simulation) setupMint(ctx context.Context, hooked bool) (ed25519.PublicKey, *holder, *holder, error) {
	mint, err := newKey()
	if err != nil {
		return nil, nil, nil, err
	}

	layout := &token.Mint{}
	if hooked {
		layout.Extensions = []token.Extension{token.NewTransferHookExtension(s.payer, s.program)}
	}
	size := uint64(layout.Size())

	instructions := []solana.Instruction{
		system.CreateAccount(s.payer, mint, token.Program2022Key, system.MinimumBalanceForRentExemption(size), size),
	}
	if hooked {
		instructions = append(instructions, token.InitializeTransferHook(token.Program2022Key, mint, s.payer, s.program))
	}
	instructions = append(instructions, token.InitializeMint2(token.Program2022Key, mint, s.payer, simulationDecimals))

	if err := s.ledger.ExecuteTransaction(ctx, []ed25519.PublicKey{s.payer, mint}, instructions...); err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to create mint")
	}

	source, err := s.createHolder(ctx, mint)
	if err != nil {
		return nil, nil, nil, err
	}
	destination, err := s.createHolder(ctx, mint)
	if err != nil {
		return nil, nil, nil, err
	}

	mintTo := token.MintTo(token.Program2022Key, mint, source.account, s.payer, simulationMintAmount)
	if err := s.ledger.ExecuteTransaction(ctx, []ed25519.PublicKey{s.payer}, mintTo); err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to mint tokens")
	}

	s.log.WithFields(logrus.Fields{
		"mint":   base58.Encode(mint),
		"hooked": hooked,
	}).Debug("created mint")

	return mint, source, destination, nil
}

func (s *simulation) createHolder(ctx context.Context, mint ed25519.PublicKey) (*holder, error) {
	wallet, err := newKey()
	if err != nil {
		return nil, err
	}

	create, address, err := token.CreateAssociatedTokenAccount(s.payer, wallet, mint, token.Program2022Key)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.ExecuteTransaction(ctx, []ed25519.PublicKey{s.payer}, create); err != nil {
		return nil, errors.Wrap(err, "failed to create token account")
	}

	return &holder{
		wallet:  wallet,
		account: address,
	}, nil
}

func newKey() (ed25519.PublicKey, error) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key")
	}
	return pub, nil
}
