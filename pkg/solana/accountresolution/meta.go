package accountresolution

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

// ExtraAccountMetaSize is the packed size of a single ExtraAccountMeta.
const ExtraAccountMetaSize = 1 + SeedConfigSize + 1 + 1

const (
	// DiscriminatorLiteral marks a meta whose address config is the address.
	DiscriminatorLiteral uint8 = 0
	// DiscriminatorProgramDerived marks a meta derived under the program that
	// owns the list.
	DiscriminatorProgramDerived uint8 = 1
	// DiscriminatorExternalProgramDerived is the base for metas derived under
	// another program. The low bits hold the account index of that program.
	DiscriminatorExternalProgramDerived uint8 = 1 << 7
)

var ErrInvalidDiscriminator = errors.New("invalid extra account meta discriminator")

// ExtraAccountMeta is one entry of an extra account meta list.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/libraries/tlv-account-resolution/src/account.rs
type ExtraAccountMeta struct {
	Discriminator uint8
	AddressConfig [SeedConfigSize]byte
	IsSigner      bool
	IsWritable    bool
}

// NewLiteralMeta returns a meta for a fixed address.
func NewLiteralMeta(address ed25519.PublicKey, isSigner, isWritable bool) ExtraAccountMeta {
	meta := ExtraAccountMeta{
		Discriminator: DiscriminatorLiteral,
		IsSigner:      isSigner,
		IsWritable:    isWritable,
	}
	copy(meta.AddressConfig[:], address)
	return meta
}

// NewProgramDerivedMeta returns a meta derived under the program owning the
// list.
func NewProgramDerivedMeta(seeds []Seed, isSigner, isWritable bool) (ExtraAccountMeta, error) {
	config, err := PackSeeds(seeds...)
	if err != nil {
		return ExtraAccountMeta{}, err
	}

	return ExtraAccountMeta{
		Discriminator: DiscriminatorProgramDerived,
		AddressConfig: config,
		IsSigner:      isSigner,
		IsWritable:    isWritable,
	}, nil
}

// NewExternalProgramDerivedMeta returns a meta derived under the program found
// at programIndex in the instruction's account list.
func NewExternalProgramDerivedMeta(programIndex uint8, seeds []Seed, isSigner, isWritable bool) (ExtraAccountMeta, error) {
	if programIndex >= DiscriminatorExternalProgramDerived {
		return ExtraAccountMeta{}, errors.Wrapf(ErrInvalidDiscriminator, "program index %d out of range", programIndex)
	}

	config, err := PackSeeds(seeds...)
	if err != nil {
		return ExtraAccountMeta{}, err
	}

	return ExtraAccountMeta{
		Discriminator: DiscriminatorExternalProgramDerived + programIndex,
		AddressConfig: config,
		IsSigner:      isSigner,
		IsWritable:    isWritable,
	}, nil
}

// IsLiteral reports whether the meta carries a fixed address.
func (m ExtraAccountMeta) IsLiteral() bool {
	return m.Discriminator == DiscriminatorLiteral
}

// ProgramIndex returns the account index of the deriving program for
// external derivations.
func (m ExtraAccountMeta) ProgramIndex() (uint8, bool) {
	if m.Discriminator < DiscriminatorExternalProgramDerived {
		return 0, false
	}
	return m.Discriminator - DiscriminatorExternalProgramDerived, true
}

// Seeds decodes the seed configuration of a derived meta.
func (m ExtraAccountMeta) Seeds() ([]Seed, error) {
	if m.IsLiteral() {
		return nil, errors.Wrap(ErrInvalidDiscriminator, "literal metas have no seeds")
	}
	return UnpackSeeds(m.AddressConfig)
}

func (m ExtraAccountMeta) String() string {
	if m.IsLiteral() {
		return fmt.Sprintf(
			"{Literal: %s, IsSigner: %v, IsWritable: %v}",
			base58.Encode(m.AddressConfig[:]),
			m.IsSigner,
			m.IsWritable,
		)
	}

	return fmt.Sprintf(
		"{Discriminator: %d, IsSigner: %v, IsWritable: %v}",
		m.Discriminator,
		m.IsSigner,
		m.IsWritable,
	)
}

func (m ExtraAccountMeta) marshal(dst []byte) {
	dst[0] = m.Discriminator
	copy(dst[1:], m.AddressConfig[:])
	dst[1+SeedConfigSize] = boolByte(m.IsSigner)
	dst[2+SeedConfigSize] = boolByte(m.IsWritable)
}

func (m *ExtraAccountMeta) unmarshal(src []byte) error {
	m.Discriminator = src[0]
	copy(m.AddressConfig[:], src[1:1+SeedConfigSize])

	var ok bool
	if m.IsSigner, ok = byteBool(src[1+SeedConfigSize]); !ok {
		return errors.New("invalid is_signer value")
	}
	if m.IsWritable, ok = byteBool(src[2+SeedConfigSize]); !ok {
		return errors.New("invalid is_writable value")
	}

	if m.Discriminator > DiscriminatorProgramDerived && m.Discriminator < DiscriminatorExternalProgramDerived {
		return errors.Wrapf(ErrInvalidDiscriminator, "discriminator %d", m.Discriminator)
	}
	return nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func byteBool(b byte) (bool, bool) {
	switch b {
	case 0:
		return false, true
	case 1:
		return true, true
	default:
		return false, false
	}
}
