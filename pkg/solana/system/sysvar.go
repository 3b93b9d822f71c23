package system

import (
	"crypto/ed25519"

	"github.com/code-payments/burn-hook/pkg/solana"
)

// RentSysVar points to the system variable "Rent"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
var RentSysVar = solana.MustBase58Decode("SysvarRent111111111111111111111111111111111")

// Default rent parameters of the cluster.
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs#L24-L37
const (
	DefaultLamportsPerByteYear uint64 = 1_000_000_000 / 100 * 365 / (1024 * 1024)
	DefaultExemptionThreshold  uint64 = 2

	// AccountStorageOverhead is the number of bytes billed for every account
	// in addition to its data.
	AccountStorageOverhead uint64 = 128
)

// MinimumBalanceForRentExemption returns the lamports an account of the given
// data size must hold to be exempt from rent.
func MinimumBalanceForRentExemption(size uint64) uint64 {
	return (AccountStorageOverhead + size) * DefaultLamportsPerByteYear * DefaultExemptionThreshold
}

// IsSystemOwned reports whether an account is owned by the system program,
// which is the case for all unallocated addresses.
func IsSystemOwned(owner ed25519.PublicKey) bool {
	return len(owner) == 0 || string(owner) == string(ProgramKey)
}
