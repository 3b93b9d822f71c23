package transferhook

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/solana"
	"github.com/code-payments/burn-hook/pkg/solana/accountresolution"
)

// ResolveExecuteExtraAccounts reads the extra account meta list of the mint
// and derives the additional accounts an Execute invocation requires. The
// returned accounts follow the five fixed Execute accounts in order.
func ResolveExecuteExtraAccounts(
	hookProgram ed25519.PublicKey,
	source ed25519.PublicKey,
	mint ed25519.PublicKey,
	destination ed25519.PublicKey,
	owner ed25519.PublicKey,
	amount uint64,
	fetch accountresolution.AccountDataFetcher,
) ([]solana.AccountMeta, ed25519.PublicKey, error) {
	if fetch == nil {
		return nil, nil, errors.New("account data fetcher is required")
	}

	metaListAddress, _, err := GetExtraAccountMetaListAddress(mint, hookProgram)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to derive extra account meta list address")
	}

	data, err := fetch(metaListAddress)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to fetch extra account meta list")
	}

	metas, err := accountresolution.Unpack(data, ExecuteDiscriminator)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid extra account meta list")
	}

	execute := NewExecuteInstruction(hookProgram, source, mint, destination, owner, metaListAddress, amount)
	extras, err := accountresolution.Resolve(metas, hookProgram, execute.Data, execute.Accounts, fetch)
	if err != nil {
		return nil, nil, err
	}

	return extras, metaListAddress, nil
}

// AddExtraAccountMetasForExecute appends the accounts a Token-2022 transfer
// needs for the mint's transfer hook: the resolved extra accounts, then the
// hook program, then the meta list. The transfer instruction must carry
// source, mint, destination and owner in its first four positions.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/transfer-hook/interface/src/offchain.rs
func AddExtraAccountMetasForExecute(
	transfer *solana.Instruction,
	hookProgram ed25519.PublicKey,
	amount uint64,
	fetch accountresolution.AccountDataFetcher,
) error {
	if len(transfer.Accounts) < 4 {
		return errors.Errorf("invalid number of accounts: %d (expected at least %d)", len(transfer.Accounts), 4)
	}

	extras, metaListAddress, err := ResolveExecuteExtraAccounts(
		hookProgram,
		transfer.Accounts[0].PublicKey,
		transfer.Accounts[1].PublicKey,
		transfer.Accounts[2].PublicKey,
		transfer.Accounts[3].PublicKey,
		amount,
		fetch,
	)
	if err != nil {
		return err
	}

	for _, extra := range extras {
		appendDeduped(transfer, extra)
	}
	appendDeduped(transfer, solana.NewReadonlyAccountMeta(hookProgram, false))
	appendDeduped(transfer, solana.NewReadonlyAccountMeta(metaListAddress, false))

	return nil
}

// appendDeduped adds the account unless it's already present, in which case
// the existing entry's privileges are escalated to cover the new one.
func appendDeduped(instruction *solana.Instruction, account solana.AccountMeta) {
	i := instruction.IndexOf(account.PublicKey)
	if i < 0 {
		instruction.Accounts = append(instruction.Accounts, account)
		return
	}

	instruction.Accounts[i].IsSigner = instruction.Accounts[i].IsSigner || account.IsSigner
	instruction.Accounts[i].IsWritable = instruction.Accounts[i].IsWritable || account.IsWritable
}
