package accountresolution

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/solana/binary"
)

const (
	// DiscriminatorSize is the size of the type tag identifying the
	// instruction a list is written for.
	DiscriminatorSize = 8

	lengthSize = 4
	countSize  = 4

	// HeaderSize is the size of the list preceding its entries.
	HeaderSize = DiscriminatorSize + lengthSize + countSize
)

var (
	ErrDataTooSmall          = errors.New("account data too small for extra account meta list")
	ErrDiscriminatorMismatch = errors.New("extra account meta list discriminator mismatch")
	ErrLengthMismatch        = errors.New("extra account meta list length mismatch")
	ErrAlreadyInitialized    = errors.New("extra account meta list already initialized")
)

// SizeOf returns the number of bytes needed to store a list of n entries.
func SizeOf(n int) int {
	return HeaderSize + n*ExtraAccountMetaSize
}

// Header is the fixed prefix of an extra account meta list.
type Header struct {
	Discriminator []byte
	// Length is the byte length of the value following it: the entry count
	// plus the entries.
	Length uint32
	Count  uint32
}

// ParseHeader decodes the list header. It allows a reader to determine the
// entry count of a list before committing to decode it.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrDataTooSmall
	}

	header := &Header{
		Discriminator: make([]byte, DiscriminatorSize),
	}

	var offset int
	binary.GetBytes(data, header.Discriminator, &offset)
	binary.GetUint32(data, &header.Length, &offset)
	binary.GetUint32(data, &header.Count, &offset)

	if uint64(header.Length) != uint64(countSize)+uint64(header.Count)*ExtraAccountMetaSize {
		return nil, errors.Wrapf(ErrLengthMismatch, "length %d for %d entries", header.Length, header.Count)
	}
	if uint64(len(data)) < uint64(DiscriminatorSize+lengthSize)+uint64(header.Length) {
		return nil, errors.Wrapf(ErrDataTooSmall, "%d entries require %d bytes", header.Count, SizeOf(int(header.Count)))
	}
	return header, nil
}

// IsInitialized reports whether the data already carries a list written for
// the discriminator.
func IsInitialized(data []byte, discriminator []byte) bool {
	if len(data) < DiscriminatorSize {
		return false
	}
	return bytes.Equal(data[:DiscriminatorSize], discriminator)
}

// Init writes the list into data, which must be at least SizeOf(len(metas))
// bytes long. Bytes following the list are left untouched.
func Init(data []byte, discriminator []byte, metas []ExtraAccountMeta) error {
	if len(discriminator) != DiscriminatorSize {
		return errors.Errorf("invalid discriminator size: %d", len(discriminator))
	}
	if IsInitialized(data, discriminator) {
		return ErrAlreadyInitialized
	}
	return write(data, discriminator, metas)
}

// Update rewrites an existing list in place.
func Update(data []byte, discriminator []byte, metas []ExtraAccountMeta) error {
	if !IsInitialized(data, discriminator) {
		return ErrDiscriminatorMismatch
	}
	return write(data, discriminator, metas)
}

func write(data, discriminator []byte, metas []ExtraAccountMeta) error {
	if len(data) < SizeOf(len(metas)) {
		return errors.Wrapf(ErrDataTooSmall, "have %d bytes, need %d", len(data), SizeOf(len(metas)))
	}

	var offset int
	binary.PutBytes(data, discriminator, &offset)
	binary.PutUint32(data, uint32(countSize+len(metas)*ExtraAccountMetaSize), &offset)
	binary.PutUint32(data, uint32(len(metas)), &offset)
	for _, meta := range metas {
		meta.marshal(data[offset : offset+ExtraAccountMetaSize])
		offset += ExtraAccountMetaSize
	}

	return nil
}

// Unpack decodes the entries of a list written for the discriminator.
// Trailing bytes beyond the list are ignored.
func Unpack(data []byte, discriminator []byte) ([]ExtraAccountMeta, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(header.Discriminator, discriminator) {
		return nil, ErrDiscriminatorMismatch
	}

	metas := make([]ExtraAccountMeta, header.Count)
	offset := HeaderSize
	for i := range metas {
		if err := metas[i].unmarshal(data[offset : offset+ExtraAccountMetaSize]); err != nil {
			return nil, errors.Wrapf(err, "invalid entry %d", i)
		}
		offset += ExtraAccountMetaSize
	}

	return metas, nil
}
