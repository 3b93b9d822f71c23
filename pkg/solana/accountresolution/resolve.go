package accountresolution

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/solana"
)

var (
	ErrAccountIndexOutOfRange   = errors.New("seed references an account index that does not exist")
	ErrInstructionDataTooSmall  = errors.New("instruction data too small for seed")
	ErrAccountDataTooSmall      = errors.New("account data too small for seed")
	ErrAccountDataNotAvailable  = errors.New("account data not available")
	ErrProgramIndexOutOfRange   = errors.New("program index references an account that does not exist")
	ErrResolvedAccountsMismatch = errors.New("provided accounts do not match the extra account meta list")
)

// AccountDataFetcher returns the data of an account referenced by an
// AccountData seed.
type AccountDataFetcher func(address ed25519.PublicKey) ([]byte, error)

// ResolveMeta derives the address of a single meta against the given account
// list. Seed indices refer to positions within accounts.
func ResolveMeta(
	meta ExtraAccountMeta,
	program ed25519.PublicKey,
	instructionData []byte,
	accounts []solana.AccountMeta,
	fetch AccountDataFetcher,
) (solana.AccountMeta, error) {
	resolved := solana.AccountMeta{
		IsSigner:   meta.IsSigner,
		IsWritable: meta.IsWritable,
	}

	if meta.IsLiteral() {
		resolved.PublicKey = make(ed25519.PublicKey, ed25519.PublicKeySize)
		copy(resolved.PublicKey, meta.AddressConfig[:])
		return resolved, nil
	}

	deriving := program
	if programIndex, ok := meta.ProgramIndex(); ok {
		if int(programIndex) >= len(accounts) {
			return resolved, errors.Wrapf(ErrProgramIndexOutOfRange, "index %d with %d accounts", programIndex, len(accounts))
		}
		deriving = accounts[programIndex].PublicKey
	}

	seeds, err := meta.Seeds()
	if err != nil {
		return resolved, err
	}

	raw := make([][]byte, 0, len(seeds))
	for _, seed := range seeds {
		b, err := resolveSeed(seed, instructionData, accounts, fetch)
		if err != nil {
			return resolved, err
		}
		raw = append(raw, b)
	}

	resolved.PublicKey, err = solana.FindProgramAddress(deriving, raw...)
	if err != nil {
		return resolved, errors.Wrap(err, "failed to derive address")
	}
	return resolved, nil
}

func resolveSeed(seed Seed, instructionData []byte, accounts []solana.AccountMeta, fetch AccountDataFetcher) ([]byte, error) {
	switch seed.Type {
	case SeedTypeLiteral:
		return seed.Bytes, nil
	case SeedTypeInstructionData:
		end := int(seed.Index) + int(seed.Length)
		if end > len(instructionData) {
			return nil, errors.Wrapf(ErrInstructionDataTooSmall, "need %d bytes, have %d", end, len(instructionData))
		}
		return instructionData[seed.Index:end], nil
	case SeedTypeAccountKey:
		if int(seed.Index) >= len(accounts) {
			return nil, errors.Wrapf(ErrAccountIndexOutOfRange, "index %d with %d accounts", seed.Index, len(accounts))
		}
		return accounts[seed.Index].PublicKey, nil
	case SeedTypeAccountData:
		if int(seed.Index) >= len(accounts) {
			return nil, errors.Wrapf(ErrAccountIndexOutOfRange, "index %d with %d accounts", seed.Index, len(accounts))
		}
		if fetch == nil {
			return nil, ErrAccountDataNotAvailable
		}
		data, err := fetch(accounts[seed.Index].PublicKey)
		if err != nil {
			return nil, errors.Wrap(ErrAccountDataNotAvailable, err.Error())
		}
		end := int(seed.DataIndex) + int(seed.Length)
		if end > len(data) {
			return nil, errors.Wrapf(ErrAccountDataTooSmall, "need %d bytes, have %d", end, len(data))
		}
		return data[seed.DataIndex:end], nil
	default:
		return nil, errors.Wrapf(ErrInvalidSeedConfig, "unsupported seed type %d", seed.Type)
	}
}

// Resolve derives every meta in order, appending each result to the account
// list so later entries may reference earlier ones. Only the resolved extra
// accounts are returned.
func Resolve(
	metas []ExtraAccountMeta,
	program ed25519.PublicKey,
	instructionData []byte,
	accounts []solana.AccountMeta,
	fetch AccountDataFetcher,
) ([]solana.AccountMeta, error) {
	all := make([]solana.AccountMeta, len(accounts), len(accounts)+len(metas))
	copy(all, accounts)

	for i, meta := range metas {
		resolved, err := ResolveMeta(meta, program, instructionData, all, fetch)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve extra account %d", i)
		}
		all = append(all, resolved)
	}

	return all[len(accounts):], nil
}

// Check verifies that the accounts following the fixed prefix match the
// metas, deriving each entry against the provided accounts themselves. It
// returns the index of the first mismatching account on failure.
func Check(
	metas []ExtraAccountMeta,
	program ed25519.PublicKey,
	instructionData []byte,
	accounts []solana.AccountMeta,
	fixed int,
	fetch AccountDataFetcher,
) (int, error) {
	if len(accounts) < fixed+len(metas) {
		return len(accounts), errors.Wrapf(ErrResolvedAccountsMismatch, "expected at least %d accounts, got %d", fixed+len(metas), len(accounts))
	}

	for i, meta := range metas {
		position := fixed + i
		resolved, err := ResolveMeta(meta, program, instructionData, accounts[:position], fetch)
		if err != nil {
			return position, errors.Wrapf(err, "failed to resolve extra account %d", i)
		}

		if !bytes.Equal(resolved.PublicKey, accounts[position].PublicKey) {
			return position, errors.Wrapf(
				ErrResolvedAccountsMismatch,
				"account %d: expected %s, got %s",
				position,
				base58.Encode(resolved.PublicKey),
				base58.Encode(accounts[position].PublicKey),
			)
		}
	}

	return -1, nil
}
