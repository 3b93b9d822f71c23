package burnhook

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/solana"
)

// Kind classifies failures for callers that react to categories rather than
// individual codes.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindArithmetic
	KindConstraint
	KindDecode
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindArithmetic:
		return "arithmetic"
	case KindConstraint:
		return "constraint"
	case KindDecode:
		return "decode"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// ErrorCode is a program error reported to the host as a custom error. The
// framework ranges below 6000 follow the anchor numbering so clients decode
// them the same way.
type ErrorCode uint32

const (
	ErrorCodeInstructionMissing           ErrorCode = 100
	ErrorCodeInstructionFallbackNotFound  ErrorCode = 101
	ErrorCodeInstructionDidNotDeserialize ErrorCode = 102

	ErrorCodeConstraintMut        ErrorCode = 2000
	ErrorCodeConstraintSigner     ErrorCode = 2002
	ErrorCodeConstraintOwner      ErrorCode = 2004
	ErrorCodeConstraintSeeds      ErrorCode = 2006
	ErrorCodeConstraintAddress    ErrorCode = 2012
	ErrorCodeConstraintTokenMint  ErrorCode = 2014
	ErrorCodeConstraintTokenOwner ErrorCode = 2015

	ErrorCodeAccountDidNotDeserialize   ErrorCode = 3003
	ErrorCodeAccountNotEnoughKeys       ErrorCode = 3005
	ErrorCodeAccountOwnedByWrongProgram ErrorCode = 3007
	ErrorCodeInvalidProgramID           ErrorCode = 3008

	ErrorCodeDeclaredProgramIDMismatch ErrorCode = 4100

	ErrorCodeArithmeticOverflow                    ErrorCode = 6000
	ErrorCodeInvalidFeeConfiguration               ErrorCode = 6001
	ErrorCodeExtraAccountMetaListMismatch          ErrorCode = 6002
	ErrorCodeDerivedAuthorityMismatch              ErrorCode = 6003
	ErrorCodeExtraAccountMetaListAlreadyInitalized ErrorCode = 6004
	ErrorCodeInsufficientFundsForRent              ErrorCode = 6005
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCodeInstructionMissing:                    "InstructionMissing",
	ErrorCodeInstructionFallbackNotFound:           "InstructionFallbackNotFound",
	ErrorCodeInstructionDidNotDeserialize:          "InstructionDidNotDeserialize",
	ErrorCodeConstraintMut:                         "ConstraintMut",
	ErrorCodeConstraintSigner:                      "ConstraintSigner",
	ErrorCodeConstraintOwner:                       "ConstraintOwner",
	ErrorCodeConstraintSeeds:                       "ConstraintSeeds",
	ErrorCodeConstraintAddress:                     "ConstraintAddress",
	ErrorCodeConstraintTokenMint:                   "ConstraintTokenMint",
	ErrorCodeConstraintTokenOwner:                  "ConstraintTokenOwner",
	ErrorCodeAccountDidNotDeserialize:              "AccountDidNotDeserialize",
	ErrorCodeAccountNotEnoughKeys:                  "AccountNotEnoughKeys",
	ErrorCodeAccountOwnedByWrongProgram:            "AccountOwnedByWrongProgram",
	ErrorCodeInvalidProgramID:                      "InvalidProgramId",
	ErrorCodeDeclaredProgramIDMismatch:             "DeclaredProgramIdMismatch",
	ErrorCodeArithmeticOverflow:                    "ArithmeticOverflow",
	ErrorCodeInvalidFeeConfiguration:               "InvalidFeeConfiguration",
	ErrorCodeExtraAccountMetaListMismatch:          "ExtraAccountMetaListMismatch",
	ErrorCodeDerivedAuthorityMismatch:              "DerivedAuthorityMismatch",
	ErrorCodeExtraAccountMetaListAlreadyInitalized: "ExtraAccountMetaListAlreadyInitialized",
	ErrorCodeInsufficientFundsForRent:              "InsufficientFundsForRent",
}

// ErrInvalidInstructionData is returned for transfer hook interface
// instructions other than Execute.
var ErrInvalidInstructionData = solana.InstructionErrorInvalidInstructionData

func (e ErrorCode) Error() string {
	name, ok := errorCodeNames[e]
	if !ok {
		name = "Unknown"
	}
	return fmt.Sprintf("%s (%d)", name, uint32(e))
}

// CustomError implements solana.CodedError.
func (e ErrorCode) CustomError() solana.CustomError {
	return solana.CustomError(e)
}

func (e ErrorCode) Kind() Kind {
	switch {
	case e == ErrorCodeArithmeticOverflow || e == ErrorCodeInvalidFeeConfiguration:
		return KindArithmetic
	case e == ErrorCodeExtraAccountMetaListAlreadyInitalized || e == ErrorCodeInsufficientFundsForRent:
		return KindResource
	case e >= 100 && e < 1000, e == ErrorCodeAccountDidNotDeserialize:
		return KindDecode
	case e >= 2000 && e < 5000, e == ErrorCodeExtraAccountMetaListMismatch, e == ErrorCodeDerivedAuthorityMismatch:
		return KindConstraint
	default:
		return KindUnknown
	}
}

// KindOf classifies an error returned by the program, including host errors
// surfaced from cross program invocations.
func KindOf(err error) Kind {
	var code ErrorCode
	if errors.As(err, &code) {
		return code.Kind()
	}

	var key solana.InstructionErrorKey
	if errors.As(err, &key) {
		switch key {
		case solana.InstructionErrorInvalidInstructionData, solana.InstructionErrorInvalidAccountData:
			return KindDecode
		case solana.InstructionErrorArithmeticOverflow:
			return KindArithmetic
		case solana.InstructionErrorAccountAlreadyInitialized, solana.InstructionErrorInsufficientFunds:
			return KindResource
		case solana.InstructionErrorMissingRequiredSignature, solana.InstructionErrorInvalidSeeds, solana.InstructionErrorIncorrectProgramID:
			return KindConstraint
		}
	}

	return KindUnknown
}
