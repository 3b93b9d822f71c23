package burnhook

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

func requireAccounts(accounts []*runtime.AccountInfo, n int) error {
	if len(accounts) < n {
		return errors.Wrapf(ErrorCodeAccountNotEnoughKeys, "got %d accounts, need %d", len(accounts), n)
	}
	return nil
}

func requireSigner(info *runtime.AccountInfo, name string) error {
	if !info.IsSigner {
		return errors.Wrapf(ErrorCodeConstraintSigner, "%s %s", name, base58.Encode(info.Key))
	}
	return nil
}

func requireWritable(info *runtime.AccountInfo, name string) error {
	if !info.IsWritable {
		return errors.Wrapf(ErrorCodeConstraintMut, "%s %s", name, base58.Encode(info.Key))
	}
	return nil
}

func requireOwner(info *runtime.AccountInfo, owner ed25519.PublicKey, name string) error {
	if !info.IsOwnedBy(owner) {
		return errors.Wrapf(
			ErrorCodeAccountOwnedByWrongProgram,
			"%s %s is owned by %s, expected %s",
			name,
			base58.Encode(info.Key),
			base58.Encode(info.Owner),
			base58.Encode(owner),
		)
	}
	return nil
}

func requireProgram(info *runtime.AccountInfo, expected ed25519.PublicKey, name string) error {
	if !bytes.Equal(info.Key, expected) {
		return errors.Wrapf(ErrorCodeInvalidProgramID, "%s %s, expected %s", name, base58.Encode(info.Key), base58.Encode(expected))
	}
	return nil
}

func loadMint(info *runtime.AccountInfo, tokenProgram ed25519.PublicKey) (*token.Mint, error) {
	if err := requireOwner(info, tokenProgram, "mint"); err != nil {
		return nil, err
	}

	var mint token.Mint
	if !mint.Unmarshal(info.Data) || !mint.IsInitialized {
		return nil, errors.Wrapf(ErrorCodeAccountDidNotDeserialize, "mint %s", base58.Encode(info.Key))
	}
	return &mint, nil
}

// loadTokenAccount decodes a token account and checks it holds the mint and
// is owned by the expected wallet. A nil owner skips the owner check.
func loadTokenAccount(info *runtime.AccountInfo, tokenProgram, mint, owner ed25519.PublicKey, name string) (*token.Account, error) {
	if err := requireOwner(info, tokenProgram, name); err != nil {
		return nil, err
	}

	var account token.Account
	if !account.Unmarshal(info.Data) || account.State == token.AccountStateUninitialized {
		return nil, errors.Wrapf(ErrorCodeAccountDidNotDeserialize, "%s %s", name, base58.Encode(info.Key))
	}

	if !bytes.Equal(account.Mint, mint) {
		return nil, errors.Wrapf(ErrorCodeConstraintTokenMint, "%s %s holds mint %s", name, base58.Encode(info.Key), base58.Encode(account.Mint))
	}
	if owner != nil && !bytes.Equal(account.Owner, owner) {
		return nil, errors.Wrapf(ErrorCodeConstraintTokenOwner, "%s %s is owned by %s", name, base58.Encode(info.Key), base58.Encode(account.Owner))
	}

	return &account, nil
}

type burnAndTransferAccounts struct {
	mint         *runtime.AccountInfo
	source       *runtime.AccountInfo
	destination  *runtime.AccountInfo
	owner        *runtime.AccountInfo
	tokenProgram *runtime.AccountInfo

	decimals byte
}

func (p *Program) validateBurnAndTransfer(ctx context.Context, accounts []*runtime.AccountInfo) (*burnAndTransferAccounts, error) {
	if err := requireAccounts(accounts, ProcessBurnAndTransferInstructionAccountsSize); err != nil {
		return nil, err
	}

	validated := &burnAndTransferAccounts{
		mint:         accounts[0],
		source:       accounts[1],
		destination:  accounts[2],
		owner:        accounts[3],
		tokenProgram: accounts[4],
	}

	tokenProgram := p.conf.tokenProgramID.Get(ctx)
	if err := requireProgram(validated.tokenProgram, tokenProgram, "token program"); err != nil {
		return nil, err
	}

	for _, writable := range []struct {
		info *runtime.AccountInfo
		name string
	}{
		{validated.mint, "mint"},
		{validated.source, "source"},
		{validated.destination, "destination"},
		{validated.owner, "owner"},
	} {
		if err := requireWritable(writable.info, writable.name); err != nil {
			return nil, err
		}
	}
	if err := requireSigner(validated.owner, "owner"); err != nil {
		return nil, err
	}

	mint, err := loadMint(validated.mint, tokenProgram)
	if err != nil {
		return nil, err
	}
	validated.decimals = mint.Decimals

	if _, err := loadTokenAccount(validated.source, tokenProgram, validated.mint.Key, validated.owner.Key, "source"); err != nil {
		return nil, err
	}
	if _, err := loadTokenAccount(validated.destination, tokenProgram, validated.mint.Key, nil, "destination"); err != nil {
		return nil, err
	}

	return validated, nil
}

type initializeExtraAccountMetaListAccounts struct {
	payer                  *runtime.AccountInfo
	extraAccountMetaList   *runtime.AccountInfo
	mint                   *runtime.AccountInfo
	tokenProgram           *runtime.AccountInfo
	associatedTokenProgram *runtime.AccountInfo
	systemProgram          *runtime.AccountInfo

	bump uint8
}

func (p *Program) validateInitializeExtraAccountMetaList(ctx context.Context, programID ed25519.PublicKey, accounts []*runtime.AccountInfo) (*initializeExtraAccountMetaListAccounts, error) {
	if err := requireAccounts(accounts, InitializeExtraAccountMetaListInstructionAccountsSize); err != nil {
		return nil, err
	}

	validated := &initializeExtraAccountMetaListAccounts{
		payer:                  accounts[0],
		extraAccountMetaList:   accounts[1],
		mint:                   accounts[2],
		tokenProgram:           accounts[3],
		associatedTokenProgram: accounts[4],
		systemProgram:          accounts[5],
	}

	tokenProgram := p.conf.tokenProgramID.Get(ctx)
	if err := requireProgram(validated.tokenProgram, tokenProgram, "token program"); err != nil {
		return nil, err
	}
	if err := requireProgram(validated.associatedTokenProgram, p.conf.associatedTokenProgramID.Get(ctx), "associated token program"); err != nil {
		return nil, err
	}
	if err := requireProgram(validated.systemProgram, system.ProgramKey, "system program"); err != nil {
		return nil, err
	}

	if err := requireSigner(validated.payer, "payer"); err != nil {
		return nil, err
	}
	if err := requireWritable(validated.payer, "payer"); err != nil {
		return nil, err
	}
	if err := requireWritable(validated.extraAccountMetaList, "extra account meta list"); err != nil {
		return nil, err
	}

	if _, err := loadMint(validated.mint, tokenProgram); err != nil {
		return nil, err
	}

	bump, err := solana.VerifyProgramAddress(programID, validated.extraAccountMetaList.Key, extraAccountMetasPrefix, validated.mint.Key)
	if err != nil {
		return nil, errors.Wrap(ErrorCodeConstraintSeeds, err.Error())
	}
	validated.bump = bump

	if !validated.extraAccountMetaList.IsEmpty() || !system.IsSystemOwned(validated.extraAccountMetaList.Owner) {
		return nil, errors.Wrapf(ErrorCodeExtraAccountMetaListAlreadyInitalized, "extra account meta list %s", base58.Encode(validated.extraAccountMetaList.Key))
	}

	return validated, nil
}

type transferHookAccounts struct {
	source               *runtime.AccountInfo
	mint                 *runtime.AccountInfo
	destination          *runtime.AccountInfo
	owner                *runtime.AccountInfo
	extraAccountMetaList *runtime.AccountInfo

	// Set when the derived mint authority follows the table's accounts
	mintAuthority *runtime.AccountInfo
}

func (p *Program) validateTransferHook(ctx context.Context, programID ed25519.PublicKey, accounts []*runtime.AccountInfo, amount uint64) (*transferHookAccounts, error) {
	if err := requireAccounts(accounts, transferHookFixedAccountsSize); err != nil {
		return nil, err
	}

	validated := &transferHookAccounts{
		source:               accounts[0],
		mint:                 accounts[1],
		destination:          accounts[2],
		owner:                accounts[3],
		extraAccountMetaList: accounts[4],
	}

	tokenProgram := p.conf.tokenProgramID.Get(ctx)
	if _, err := loadMint(validated.mint, tokenProgram); err != nil {
		return nil, err
	}
	if _, err := loadTokenAccount(validated.source, tokenProgram, validated.mint.Key, validated.owner.Key, "source"); err != nil {
		return nil, err
	}
	if _, err := loadTokenAccount(validated.destination, tokenProgram, validated.mint.Key, nil, "destination"); err != nil {
		return nil, err
	}

	if _, err := solana.VerifyProgramAddress(programID, validated.extraAccountMetaList.Key, extraAccountMetasPrefix, validated.mint.Key); err != nil {
		return nil, errors.Wrap(ErrorCodeConstraintSeeds, err.Error())
	}
	if err := requireOwner(validated.extraAccountMetaList, programID, "extra account meta list"); err != nil {
		return nil, err
	}

	metas, err := accountresolution.Unpack(validated.extraAccountMetaList.Data, transferhook.ExecuteDiscriminator)
	if err != nil {
		return nil, errors.Wrap(ErrorCodeAccountDidNotDeserialize, err.Error())
	}

	// Extra accounts are resolved against the instruction as the token
	// program encodes it
	data, err := (&transferhook.Instruction{Type: transferhook.InstructionTypeExecute, Amount: amount}).Pack()
	if err != nil {
		return nil, err
	}

	fetch := func(address ed25519.PublicKey) ([]byte, error) {
		info, ok := runtime.Find(accounts, address)
		if !ok {
			return nil, errors.Wrapf(accountresolution.ErrAccountDataNotAvailable, "%s", base58.Encode(address))
		}
		return info.Data, nil
	}

	position, err := accountresolution.Check(metas, programID, data, runtime.Metas(accounts), transferHookFixedAccountsSize, fetch)
	if err != nil {
		return nil, errors.Wrapf(ErrorCodeExtraAccountMetaListMismatch, "account %d: %v", position, err)
	}

	// The token program only forwards table entries, so the authority is
	// present only when a caller appends it after them
	if next := transferHookFixedAccountsSize + len(metas); len(accounts) > next {
		expected, _, err := GetMintAuthorityAddress(programID)
		if err != nil {
			return nil, err
		}

		if !bytes.Equal(accounts[next].Key, expected) {
			return nil, errors.Wrapf(
				ErrorCodeDerivedAuthorityMismatch,
				"expected %s, got %s",
				base58.Encode(expected),
				base58.Encode(accounts[next].Key),
			)
		}
		validated.mintAuthority = accounts[next]
	}

	return validated, nil
}
