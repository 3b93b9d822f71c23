package account

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/solana/binary"
)

// Record is the persisted state of a single ledger account.
type Record struct {
	Address    ed25519.PublicKey
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

func (r *Record) Validate() error {
	if len(r.Address) != ed25519.PublicKeySize {
		return errors.New("address is required")
	}

	if len(r.Owner) != ed25519.PublicKeySize {
		return errors.New("owner is required")
	}

	return nil
}

// IsEmpty reports whether the account holds neither lamports nor data, in
// which case it is purged on commit.
func (r *Record) IsEmpty() bool {
	return r.Lamports == 0 && len(r.Data) == 0
}

func (r *Record) Clone() Record {
	var cloned Record
	r.CopyTo(&cloned)
	return cloned
}

func (r *Record) CopyTo(dst *Record) {
	dst.Address = append(ed25519.PublicKey{}, r.Address...)
	dst.Owner = append(ed25519.PublicKey{}, r.Owner...)
	dst.Lamports = r.Lamports
	dst.Data = append([]byte{}, r.Data...)
	dst.Executable = r.Executable
}

// Equal reports whether the two records hold the same state.
func (r *Record) Equal(other *Record) bool {
	return bytes.Equal(r.Address, other.Address) &&
		bytes.Equal(r.Owner, other.Owner) &&
		r.Lamports == other.Lamports &&
		bytes.Equal(r.Data, other.Data) &&
		r.Executable == other.Executable
}

const recordHeaderSize = ed25519.PublicKeySize + ed25519.PublicKeySize + 8 + 1 + 4

// Marshal encodes the record for storage.
func (r *Record) Marshal() []byte {
	b := make([]byte, recordHeaderSize+len(r.Data))

	var offset int
	binary.PutKey32(b, r.Address, &offset)
	binary.PutKey32(b, r.Owner, &offset)
	binary.PutUint64(b, r.Lamports, &offset)
	binary.PutBool(b, r.Executable, &offset)
	binary.PutUint32(b, uint32(len(r.Data)), &offset)
	binary.PutBytes(b, r.Data, &offset)

	return b
}

func (r *Record) Unmarshal(b []byte) error {
	if len(b) < recordHeaderSize {
		return errors.Errorf("invalid record size: %d", len(b))
	}

	var offset int
	var length uint32
	binary.GetKey32(b, &r.Address, &offset)
	binary.GetKey32(b, &r.Owner, &offset)
	binary.GetUint64(b, &r.Lamports, &offset)
	binary.GetBool(b, &r.Executable, &offset)
	binary.GetUint32(b, &length, &offset)

	if len(b) != recordHeaderSize+int(length) {
		return errors.Errorf("invalid record data size: %d (expected %d)", len(b)-recordHeaderSize, length)
	}

	r.Data = make([]byte, length)
	binary.GetBytes(b, r.Data, &offset)

	return nil
}
