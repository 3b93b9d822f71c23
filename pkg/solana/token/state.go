package token

import (
	"crypto/ed25519"

	"github.com/code-payments/burn-hook/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// AccountType is the Token-2022 discriminator placed after the base state of
// any account carrying extensions.
type AccountType byte

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeMint
	AccountTypeAccount
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L40
const MintSize = 82

// Offset of the AccountType byte for Token-2022 accounts with extensions.
// Mints are padded up to the token account size so the two never collide.
const accountTypeOffset = AccountSize

type Account struct {
	// The mint associated with this account
	Mint ed25519.PublicKey
	// The owner of this account.
	Owner ed25519.PublicKey
	// The amount of tokens this account holds.
	Amount uint64
	// If set, then the 'DelegatedAmount' represents the amount
	// authorized by the delegate.
	Delegate ed25519.PublicKey
	/// The account's state
	State AccountState
	// If set, this is a native token, and the value logs the rent-exempt reserve.
	IsNative *uint64
	// The amount delegated
	DelegatedAmount uint64
	// Optional authority to close the account.
	CloseAuthority ed25519.PublicKey
}

func (a *Account) Marshal() []byte {
	b := make([]byte, AccountSize)

	var offset int
	binary.PutKey32(b, a.Mint, &offset)
	binary.PutKey32(b, a.Owner, &offset)
	binary.PutUint64(b, a.Amount, &offset)
	binary.PutOptionalKey32(b, a.Delegate, &offset)
	binary.PutUint8(b, byte(a.State), &offset)
	binary.PutOptionalUint64(b, a.IsNative, &offset)
	binary.PutUint64(b, a.DelegatedAmount, &offset)
	binary.PutOptionalKey32(b, a.CloseAuthority, &offset)

	return b
}

// Unmarshal decodes the base token account state. Token-2022 accounts with
// extensions are accepted as long as they're tagged as an account.
func (a *Account) Unmarshal(b []byte) bool {
	if len(b) < AccountSize {
		return false
	}
	if len(b) > AccountSize && AccountType(b[accountTypeOffset]) != AccountTypeAccount {
		return false
	}

	var offset int
	var state uint8
	binary.GetKey32(b, &a.Mint, &offset)
	binary.GetKey32(b, &a.Owner, &offset)
	binary.GetUint64(b, &a.Amount, &offset)
	binary.GetOptionalKey32(b, &a.Delegate, &offset)
	binary.GetUint8(b, &state, &offset)
	binary.GetOptionalUint64(b, &a.IsNative, &offset)
	binary.GetUint64(b, &a.DelegatedAmount, &offset)
	binary.GetOptionalKey32(b, &a.CloseAuthority, &offset)
	a.State = AccountState(state)

	return true
}

// SetAmount rewrites the balance within already encoded account data,
// preserving any extension data that trails the base state.
func SetAmount(data []byte, amount uint64) bool {
	if len(data) < AccountSize {
		return false
	}

	offset := 2 * ed25519.PublicKeySize
	binary.PutUint64(data, amount, &offset)
	return true
}

type Mint struct {
	// Optional authority used to mint new tokens.
	MintAuthority ed25519.PublicKey
	// Total supply of tokens.
	Supply uint64
	// Number of base 10 digits to the right of the decimal place.
	Decimals byte
	// Is `true` if this structure has been initialized
	IsInitialized bool
	// Optional authority to freeze token accounts.
	FreezeAuthority ed25519.PublicKey

	// Token-2022 extensions, in storage order.
	Extensions []Extension
}

// Size returns the encoded size of the mint, including extensions.
func (m *Mint) Size() int {
	if len(m.Extensions) == 0 {
		return MintSize
	}

	size := AccountSize + 1
	for _, extension := range m.Extensions {
		size += extensionHeaderSize + len(extension.Value)
	}
	return size
}

func (m *Mint) Marshal() []byte {
	b := make([]byte, m.Size())

	var offset int
	binary.PutOptionalKey32(b, m.MintAuthority, &offset)
	binary.PutUint64(b, m.Supply, &offset)
	binary.PutUint8(b, m.Decimals, &offset)
	binary.PutBool(b, m.IsInitialized, &offset)
	binary.PutOptionalKey32(b, m.FreezeAuthority, &offset)

	if len(m.Extensions) > 0 {
		offset = accountTypeOffset
		binary.PutUint8(b, byte(AccountTypeMint), &offset)
		putExtensions(b, m.Extensions, &offset)
	}

	return b
}

func (m *Mint) Unmarshal(b []byte) bool {
	if len(b) < MintSize {
		return false
	}
	if len(b) > MintSize && (len(b) <= AccountSize || AccountType(b[accountTypeOffset]) != AccountTypeMint) {
		return false
	}

	var offset int
	binary.GetOptionalKey32(b, &m.MintAuthority, &offset)
	binary.GetUint64(b, &m.Supply, &offset)
	binary.GetUint8(b, &m.Decimals, &offset)
	binary.GetBool(b, &m.IsInitialized, &offset)
	binary.GetOptionalKey32(b, &m.FreezeAuthority, &offset)

	m.Extensions = nil
	if len(b) > MintSize {
		extensions, ok := getExtensions(b[accountTypeOffset+1:])
		if !ok {
			return false
		}
		m.Extensions = extensions
	}

	return true
}

// SetSupply rewrites the supply within already encoded mint data.
func SetSupply(data []byte, supply uint64) bool {
	if len(data) < MintSize {
		return false
	}

	offset := binary.OptionSize + ed25519.PublicKeySize
	binary.PutUint64(data, supply, &offset)
	return true
}
