package burnhook

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/burn-hook/pkg/solana"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "ArithmeticOverflow (6000)", ErrorCodeArithmeticOverflow.Error())
	assert.Equal(t, "Unknown (42)", ErrorCode(42).Error())
	assert.Equal(t, solana.CustomError(2006), ErrorCodeConstraintSeeds.CustomError())

	var coded solana.CodedError = ErrorCodeDerivedAuthorityMismatch
	assert.EqualValues(t, 6003, coded.CustomError())
}

func TestKindOf(t *testing.T) {
	for _, tc := range []struct {
		err      error
		expected Kind
	}{
		{ErrorCodeArithmeticOverflow, KindArithmetic},
		{errors.Wrap(ErrorCodeInvalidFeeConfiguration, "context"), KindArithmetic},
		{ErrorCodeConstraintSeeds, KindConstraint},
		{ErrorCodeConstraintTokenOwner, KindConstraint},
		{ErrorCodeAccountNotEnoughKeys, KindConstraint},
		{ErrorCodeDeclaredProgramIDMismatch, KindConstraint},
		{ErrorCodeExtraAccountMetaListMismatch, KindConstraint},
		{ErrorCodeDerivedAuthorityMismatch, KindConstraint},
		{ErrorCodeInstructionDidNotDeserialize, KindDecode},
		{ErrorCodeAccountDidNotDeserialize, KindDecode},
		{ErrInvalidInstructionData, KindDecode},
		{errors.Wrap(ErrInvalidInstructionData, "context"), KindDecode},
		{ErrorCodeExtraAccountMetaListAlreadyInitalized, KindResource},
		{ErrorCodeInsufficientFundsForRent, KindResource},
		{solana.InstructionErrorAccountAlreadyInitialized, KindResource},
		{solana.InstructionError{Index: 1, Err: errors.Wrap(ErrorCodeConstraintSigner, "owner")}, KindConstraint},
		{errors.New("something else"), KindUnknown},
	} {
		assert.Equal(t, tc.expected, KindOf(tc.err), "%v", tc.err)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "arithmetic", KindArithmetic.String())
	assert.Equal(t, "constraint", KindConstraint.String())
	assert.Equal(t, "decode", KindDecode.String())
	assert.Equal(t, "resource", KindResource.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
