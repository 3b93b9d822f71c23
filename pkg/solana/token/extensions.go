package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/burn-hook/pkg/solana/binary"
)

// ExtensionType identifies a Token-2022 TLV extension.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/token/program-2022/src/extension/mod.rs
type ExtensionType uint16

const (
	ExtensionTypeUninitialized ExtensionType = 0
	ExtensionTypeTransferHook  ExtensionType = 14
)

const extensionHeaderSize = 2 + 2

// TransferHookExtensionSize is the size of the TransferHook extension value:
// an optional authority followed by an optional program id, both encoded as
// zero-able keys.
const TransferHookExtensionSize = 2 * ed25519.PublicKeySize

// Extension is a raw Token-2022 extension entry.
type Extension struct {
	Type  ExtensionType
	Value []byte
}

// TransferHook is the decoded TransferHook mint extension.
type TransferHook struct {
	Authority ed25519.PublicKey
	ProgramID ed25519.PublicKey
}

// NewTransferHookExtension encodes a TransferHook extension entry.
func NewTransferHookExtension(authority, programID ed25519.PublicKey) Extension {
	value := make([]byte, TransferHookExtensionSize)
	copy(value, authority)
	copy(value[ed25519.PublicKeySize:], programID)

	return Extension{
		Type:  ExtensionTypeTransferHook,
		Value: value,
	}
}

// GetTransferHook returns the TransferHook extension of the mint, if the mint
// has one configured with a non-zero program id.
func (m *Mint) GetTransferHook() (*TransferHook, bool) {
	for _, extension := range m.Extensions {
		if extension.Type != ExtensionTypeTransferHook || len(extension.Value) != TransferHookExtensionSize {
			continue
		}

		hook := &TransferHook{
			Authority: nonZeroKey(extension.Value[:ed25519.PublicKeySize]),
			ProgramID: nonZeroKey(extension.Value[ed25519.PublicKeySize:]),
		}
		if hook.ProgramID == nil {
			return nil, false
		}
		return hook, true
	}

	return nil, false
}

func nonZeroKey(b []byte) ed25519.PublicKey {
	if bytes.Equal(b, make([]byte, ed25519.PublicKeySize)) {
		return nil
	}

	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, b)
	return key
}

func putExtensions(dst []byte, extensions []Extension, offset *int) {
	for _, extension := range extensions {
		binary.PutUint16(dst, uint16(extension.Type), offset)
		binary.PutUint16(dst, uint16(len(extension.Value)), offset)
		binary.PutBytes(dst, extension.Value, offset)
	}
}

func getExtensions(src []byte) ([]Extension, bool) {
	var extensions []Extension

	var offset int
	for offset+extensionHeaderSize <= len(src) {
		var extensionType, length uint16
		binary.GetUint16(src, &extensionType, &offset)
		binary.GetUint16(src, &length, &offset)

		// Trailing zeroed space is unused capacity
		if ExtensionType(extensionType) == ExtensionTypeUninitialized {
			break
		}

		if offset+int(length) > len(src) {
			return nil, false
		}

		value := make([]byte, length)
		binary.GetBytes(src, value, &offset)
		extensions = append(extensions, Extension{
			Type:  ExtensionType(extensionType),
			Value: value,
		})
	}

	return extensions, true
}
