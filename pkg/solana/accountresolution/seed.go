package accountresolution

import (
	"github.com/pkg/errors"
)

// SeedConfigSize is the size of the packed seed configuration carried by a
// derived extra account meta.
const SeedConfigSize = 32

type SeedType uint8

const (
	SeedTypeUninitialized SeedType = iota
	SeedTypeLiteral
	SeedTypeInstructionData
	SeedTypeAccountKey
	SeedTypeAccountData
)

var (
	ErrSeedConfigTooLarge = errors.New("seed configuration exceeds 32 bytes")
	ErrInvalidSeedConfig  = errors.New("invalid seed configuration")
)

// Seed describes one input to a program derived address. Only the fields
// relevant to the seed's type are meaningful.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/libraries/tlv-account-resolution/src/seeds.rs
type Seed struct {
	Type SeedType

	// Literal
	Bytes []byte

	// InstructionData: Index is the byte offset into the instruction data.
	// AccountKey and AccountData: Index is the position in the account list.
	Index uint8

	// AccountData: byte offset into the referenced account's data.
	DataIndex uint8

	// InstructionData and AccountData
	Length uint8
}

func NewLiteralSeed(b []byte) Seed {
	return Seed{Type: SeedTypeLiteral, Bytes: b}
}

func NewInstructionDataSeed(index, length uint8) Seed {
	return Seed{Type: SeedTypeInstructionData, Index: index, Length: length}
}

func NewAccountKeySeed(index uint8) Seed {
	return Seed{Type: SeedTypeAccountKey, Index: index}
}

func NewAccountDataSeed(accountIndex, dataIndex, length uint8) Seed {
	return Seed{Type: SeedTypeAccountData, Index: accountIndex, DataIndex: dataIndex, Length: length}
}

func (s Seed) packedSize() int {
	switch s.Type {
	case SeedTypeLiteral:
		return 2 + len(s.Bytes)
	case SeedTypeInstructionData:
		return 3
	case SeedTypeAccountKey:
		return 2
	case SeedTypeAccountData:
		return 4
	default:
		return 0
	}
}

// PackSeeds encodes the seeds into a fixed size, zero padded configuration.
func PackSeeds(seeds ...Seed) ([SeedConfigSize]byte, error) {
	var packed [SeedConfigSize]byte

	var offset int
	for _, seed := range seeds {
		size := seed.packedSize()
		if size == 0 {
			return packed, errors.Wrapf(ErrInvalidSeedConfig, "unsupported seed type %d", seed.Type)
		}
		if seed.Type == SeedTypeLiteral && len(seed.Bytes) > 255 {
			return packed, errors.Wrap(ErrInvalidSeedConfig, "literal seed too long")
		}
		if offset+size > SeedConfigSize {
			return packed, ErrSeedConfigTooLarge
		}

		packed[offset] = byte(seed.Type)
		switch seed.Type {
		case SeedTypeLiteral:
			packed[offset+1] = byte(len(seed.Bytes))
			copy(packed[offset+2:], seed.Bytes)
		case SeedTypeInstructionData:
			packed[offset+1] = seed.Index
			packed[offset+2] = seed.Length
		case SeedTypeAccountKey:
			packed[offset+1] = seed.Index
		case SeedTypeAccountData:
			packed[offset+1] = seed.Index
			packed[offset+2] = seed.DataIndex
			packed[offset+3] = seed.Length
		}
		offset += size
	}

	return packed, nil
}

// UnpackSeeds decodes a packed seed configuration. Decoding stops at the
// first uninitialized discriminator.
func UnpackSeeds(packed [SeedConfigSize]byte) ([]Seed, error) {
	var seeds []Seed

	var offset int
	for offset < SeedConfigSize {
		seedType := SeedType(packed[offset])
		if seedType == SeedTypeUninitialized {
			break
		}

		seed := Seed{Type: seedType}
		if size := seed.packedSize(); size == 0 {
			return nil, errors.Wrapf(ErrInvalidSeedConfig, "unsupported seed type %d at offset %d", seedType, offset)
		} else if seedType != SeedTypeLiteral && offset+size > SeedConfigSize {
			return nil, errors.Wrapf(ErrInvalidSeedConfig, "truncated seed at offset %d", offset)
		}

		switch seedType {
		case SeedTypeLiteral:
			if offset+2 > SeedConfigSize {
				return nil, errors.Wrapf(ErrInvalidSeedConfig, "truncated literal at offset %d", offset)
			}
			length := int(packed[offset+1])
			if offset+2+length > SeedConfigSize {
				return nil, errors.Wrapf(ErrInvalidSeedConfig, "truncated literal at offset %d", offset)
			}
			seed.Bytes = make([]byte, length)
			copy(seed.Bytes, packed[offset+2:offset+2+length])
		case SeedTypeInstructionData:
			seed.Index = packed[offset+1]
			seed.Length = packed[offset+2]
		case SeedTypeAccountKey:
			seed.Index = packed[offset+1]
		case SeedTypeAccountData:
			seed.Index = packed[offset+1]
			seed.DataIndex = packed[offset+2]
			seed.Length = packed[offset+3]
		}

		offset += seed.packedSize()
		seeds = append(seeds, seed)
	}

	return seeds, nil
}
