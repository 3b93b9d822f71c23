package ledger

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/accountresolution"
	"github.com/code-payments/burn-hook/pkg/solana/runtime"
	"github.com/code-payments/burn-hook/pkg/solana/system"
	"github.com/code-payments/burn-hook/pkg/solana/token"
	"github.com/code-payments/burn-hook/pkg/solana/transferhook"
)

// tokenProcessor implements the subset of Token-2022 needed to mint, hold,
// burn and transfer hooked tokens.
type tokenProcessor struct {
	programID ed25519.PublicKey
}

func newTokenProcessor(programID ed25519.PublicKey) runtime.Processor {
	return &tokenProcessor{programID: programID}
}

func (p *tokenProcessor) Process(ctx context.Context, invoker runtime.Invoker, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, data []byte) error {
	instruction := solana.NewInstruction(programID, data, runtime.Metas(accounts)...)

	cmd, err := token.GetCommand(p.programID, instruction)
	if err != nil {
		return errors.Wrap(token.ErrorInvalidInstruction, err.Error())
	}

	switch cmd {
	case token.CommandInitializeMint2:
		decompiled, err := token.DecompileInitializeMint2(p.programID, instruction)
		if err != nil {
			return errors.Wrap(token.ErrorInvalidInstruction, err.Error())
		}
		return p.initializeMint(accounts[0], decompiled)
	case token.CommandTransferHookExtension:
		decompiled, err := token.DecompileInitializeTransferHook(p.programID, instruction)
		if err != nil {
			return errors.Wrap(token.ErrorInvalidInstruction, err.Error())
		}
		return p.initializeTransferHook(accounts[0], decompiled)
	case token.CommandInitializeAccount3:
		decompiled, err := token.DecompileInitializeAccount3(p.programID, instruction)
		if err != nil {
			return errors.Wrap(token.ErrorInvalidInstruction, err.Error())
		}
		return p.initializeAccount(accounts[0], accounts[1], decompiled)
	case token.CommandMintTo:
		decompiled, err := token.DecompileMintTo(p.programID, instruction)
		if err != nil {
			return errors.Wrap(token.ErrorInvalidInstruction, err.Error())
		}
		return p.mintTo(accounts[0], accounts[1], accounts[2], decompiled.Amount)
	case token.CommandBurn:
		decompiled, err := token.DecompileBurn(p.programID, instruction)
		if err != nil {
			return errors.Wrap(token.ErrorInvalidInstruction, err.Error())
		}
		return p.burn(accounts[0], accounts[1], accounts[2], decompiled.Amount)
	case token.CommandTransferChecked:
		decompiled, err := token.DecompileTransferChecked(p.programID, instruction)
		if err != nil {
			return errors.Wrap(token.ErrorInvalidInstruction, err.Error())
		}
		return p.transferChecked(ctx, invoker, accounts, decompiled)
	default:
		return errors.Wrapf(token.ErrorInvalidInstruction, "unsupported command %d", cmd)
	}
}

func (p *tokenProcessor) initializeTransferHook(mintInfo *runtime.AccountInfo, decompiled *token.DecompiledInitializeTransferHook) error {
	if err := p.checkOwned(mintInfo); err != nil {
		return err
	}

	mint := &token.Mint{
		Extensions: []token.Extension{
			token.NewTransferHookExtension(decompiled.Authority, decompiled.HookProgram),
		},
	}
	if len(mintInfo.Data) != mint.Size() {
		return errors.Wrapf(solana.InstructionErrorInvalidAccountData, "mint size %d, expected %d", len(mintInfo.Data), mint.Size())
	}
	if !bytes.Equal(mintInfo.Data, make([]byte, len(mintInfo.Data))) {
		return solana.InstructionErrorAccountAlreadyInitialized
	}

	copy(mintInfo.Data, mint.Marshal())
	return nil
}

func (p *tokenProcessor) initializeMint(mintInfo *runtime.AccountInfo, decompiled *token.DecompiledInitializeMint2) error {
	if err := p.checkOwned(mintInfo); err != nil {
		return err
	}
	if mintInfo.Lamports < system.MinimumBalanceForRentExemption(uint64(len(mintInfo.Data))) {
		return token.ErrorNotRentExempt
	}

	mint := &token.Mint{}
	switch {
	case len(mintInfo.Data) > token.MintSize:
		// Extensions must already be initialized
		if !mint.Unmarshal(mintInfo.Data) {
			return errors.Wrap(solana.InstructionErrorInvalidAccountData, "uninitialized mint extensions")
		}
	case len(mintInfo.Data) == token.MintSize:
		mint.Unmarshal(mintInfo.Data)
	default:
		return errors.Wrapf(solana.InstructionErrorInvalidAccountData, "mint size %d", len(mintInfo.Data))
	}
	if mint.IsInitialized {
		return errors.Wrap(token.ErrorAlreadyInUse, "mint already initialized")
	}

	mint.MintAuthority = decompiled.MintAuthority
	mint.Decimals = decompiled.Decimals
	mint.IsInitialized = true
	copy(mintInfo.Data, mint.Marshal())
	return nil
}

func (p *tokenProcessor) initializeAccount(accountInfo, mintInfo *runtime.AccountInfo, decompiled *token.DecompiledInitializeAccount) error {
	if err := p.checkOwned(accountInfo); err != nil {
		return err
	}
	if len(accountInfo.Data) != token.AccountSize {
		return errors.Wrapf(solana.InstructionErrorInvalidAccountData, "account size %d", len(accountInfo.Data))
	}
	if accountInfo.Lamports < system.MinimumBalanceForRentExemption(uint64(len(accountInfo.Data))) {
		return token.ErrorNotRentExempt
	}

	var existing token.Account
	if existing.Unmarshal(accountInfo.Data) && existing.State != token.AccountStateUninitialized {
		return errors.Wrap(token.ErrorAlreadyInUse, "account already initialized")
	}

	if _, err := p.loadMint(mintInfo); err != nil {
		return err
	}

	initialized := &token.Account{
		Mint:  decompiled.Mint,
		Owner: decompiled.Owner,
		State: token.AccountStateInitialized,
	}
	copy(accountInfo.Data, initialized.Marshal())
	return nil
}

func (p *tokenProcessor) mintTo(mintInfo, destinationInfo, authorityInfo *runtime.AccountInfo, amount uint64) error {
	mint, err := p.loadMint(mintInfo)
	if err != nil {
		return err
	}
	destination, err := p.loadAccount(destinationInfo)
	if err != nil {
		return err
	}

	if !bytes.Equal(destination.Mint, mintInfo.Key) {
		return token.ErrorMintMismatch
	}
	if mint.MintAuthority == nil || !bytes.Equal(mint.MintAuthority, authorityInfo.Key) {
		return token.ErrorOwnerMismatch
	}
	if !authorityInfo.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}

	if mint.Supply+amount < mint.Supply || destination.Amount+amount < destination.Amount {
		return token.ErrorOverflow
	}

	token.SetSupply(mintInfo.Data, mint.Supply+amount)
	token.SetAmount(destinationInfo.Data, destination.Amount+amount)
	return nil
}

func (p *tokenProcessor) burn(accountInfo, mintInfo, ownerInfo *runtime.AccountInfo, amount uint64) error {
	source, err := p.loadAccount(accountInfo)
	if err != nil {
		return err
	}
	mint, err := p.loadMint(mintInfo)
	if err != nil {
		return err
	}

	if err := checkTransferAuthority(source, mintInfo, ownerInfo); err != nil {
		return err
	}
	if source.Amount < amount {
		return token.ErrorInsufficientFunds
	}
	if mint.Supply < amount {
		return token.ErrorOverflow
	}

	token.SetAmount(accountInfo.Data, source.Amount-amount)
	token.SetSupply(mintInfo.Data, mint.Supply-amount)
	return nil
}

func (p *tokenProcessor) transferChecked(ctx context.Context, invoker runtime.Invoker, accounts []*runtime.AccountInfo, decompiled *token.DecompiledTransferChecked) error {
	sourceInfo, mintInfo, destinationInfo, ownerInfo := accounts[0], accounts[1], accounts[2], accounts[3]

	source, err := p.loadAccount(sourceInfo)
	if err != nil {
		return err
	}
	mint, err := p.loadMint(mintInfo)
	if err != nil {
		return err
	}
	destination, err := p.loadAccount(destinationInfo)
	if err != nil {
		return err
	}

	if err := checkTransferAuthority(source, mintInfo, ownerInfo); err != nil {
		return err
	}
	if !bytes.Equal(destination.Mint, mintInfo.Key) {
		return token.ErrorMintMismatch
	}
	if destination.State == token.AccountStateFrozen {
		return token.ErrorAccountFrozen
	}
	if mint.Decimals != decompiled.Decimals {
		return token.ErrorMintDecimalsMismatch
	}
	if source.Amount < decompiled.Amount {
		return token.ErrorInsufficientFunds
	}

	// Re-read the destination after the debit so self transfers net to zero
	token.SetAmount(sourceInfo.Data, source.Amount-decompiled.Amount)
	if !destination.Unmarshal(destinationInfo.Data) {
		return token.ErrorUninitializedState
	}
	if destination.Amount+decompiled.Amount < destination.Amount {
		return token.ErrorOverflow
	}
	token.SetAmount(destinationInfo.Data, destination.Amount+decompiled.Amount)

	hook, ok := mint.GetTransferHook()
	if !ok {
		return nil
	}
	return p.invokeExecute(ctx, invoker, hook.ProgramID, accounts, decompiled)
}

// invokeExecute calls the mint's transfer hook with the accounts its extra
// account meta list requires, all of which must have been provided to the
// transfer.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/transfer-hook/interface/src/onchain.rs
func (p *tokenProcessor) invokeExecute(
	ctx context.Context,
	invoker runtime.Invoker,
	hookProgram ed25519.PublicKey,
	accounts []*runtime.AccountInfo,
	decompiled *token.DecompiledTransferChecked,
) error {
	metaListAddress, _, err := transferhook.GetExtraAccountMetaListAddress(decompiled.Mint, hookProgram)
	if err != nil {
		return err
	}

	if _, ok := runtime.Find(accounts, hookProgram); !ok {
		return errors.Wrapf(solana.InstructionErrorMissingAccount, "transfer hook program %s", base58.Encode(hookProgram))
	}
	metaListInfo, ok := runtime.Find(accounts, metaListAddress)
	if !ok {
		return errors.Wrapf(solana.InstructionErrorMissingAccount, "extra account meta list %s", base58.Encode(metaListAddress))
	}

	metas, err := accountresolution.Unpack(metaListInfo.Data, transferhook.ExecuteDiscriminator)
	if err != nil {
		return errors.Wrap(solana.InstructionErrorInvalidAccountData, err.Error())
	}

	execute := transferhook.NewExecuteInstruction(
		hookProgram,
		decompiled.Source,
		decompiled.Mint,
		decompiled.Destination,
		decompiled.Owner,
		metaListAddress,
		decompiled.Amount,
	)

	fetch := func(address ed25519.PublicKey) ([]byte, error) {
		info, ok := runtime.Find(accounts, address)
		if !ok {
			return nil, errors.Wrapf(solana.InstructionErrorMissingAccount, "%s", base58.Encode(address))
		}
		return info.Data, nil
	}

	extras, err := accountresolution.Resolve(metas, hookProgram, execute.Data, execute.Accounts, fetch)
	if err != nil {
		return errors.Wrap(solana.InstructionErrorInvalidAccountData, err.Error())
	}
	execute.Accounts = append(execute.Accounts, extras...)

	return invoker.Invoke(ctx, execute)
}

func checkTransferAuthority(source *token.Account, mintInfo, ownerInfo *runtime.AccountInfo) error {
	if !bytes.Equal(source.Mint, mintInfo.Key) {
		return token.ErrorMintMismatch
	}
	if !bytes.Equal(source.Owner, ownerInfo.Key) {
		return token.ErrorOwnerMismatch
	}
	if !ownerInfo.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}
	if source.State == token.AccountStateFrozen {
		return token.ErrorAccountFrozen
	}
	return nil
}

func (p *tokenProcessor) checkOwned(info *runtime.AccountInfo) error {
	if !info.IsOwnedBy(p.programID) {
		return errors.Wrapf(solana.InstructionErrorIncorrectProgramID, "%s is not owned by the token program", base58.Encode(info.Key))
	}
	return nil
}

func (p *tokenProcessor) loadMint(info *runtime.AccountInfo) (*token.Mint, error) {
	if err := p.checkOwned(info); err != nil {
		return nil, err
	}

	var mint token.Mint
	if !mint.Unmarshal(info.Data) || !mint.IsInitialized {
		return nil, errors.Wrapf(token.ErrorInvalidMint, "%s", base58.Encode(info.Key))
	}
	return &mint, nil
}

func (p *tokenProcessor) loadAccount(info *runtime.AccountInfo) (*token.Account, error) {
	if err := p.checkOwned(info); err != nil {
		return nil, err
	}

	var tokenAccount token.Account
	if !tokenAccount.Unmarshal(info.Data) || tokenAccount.State == token.AccountStateUninitialized {
		return nil, errors.Wrapf(token.ErrorUninitializedState, "%s", base58.Encode(info.Key))
	}
	return &tokenAccount, nil
}
