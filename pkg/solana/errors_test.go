package solana

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCodedError uint32

func (e testCodedError) Error() string {
	return "coded"
}

func (e testCodedError) CustomError() CustomError {
	return CustomError(e)
}

func TestInstructionError_Builtin(t *testing.T) {
	e := InstructionError{Index: 1, Err: errors.Wrap(InstructionErrorInvalidInstructionData, "bad tag")}

	assert.Equal(t, InstructionErrorInvalidInstructionData, e.ErrorKey())
	assert.Nil(t, e.CustomError())
	assert.True(t, errors.Is(e, InstructionErrorInvalidInstructionData))
	assert.Contains(t, e.Error(), "Error processing Instruction 1")
}

func TestInstructionError_Custom(t *testing.T) {
	e := InstructionError{Index: 0, Err: CustomError(3)}
	assert.Equal(t, InstructionErrorCustom, e.ErrorKey())
	require.NotNil(t, e.CustomError())
	assert.Equal(t, CustomError(3), *e.CustomError())

	e = InstructionError{Index: 0, Err: errors.Wrap(testCodedError(6000), "overflow")}
	assert.Equal(t, InstructionErrorCustom, e.ErrorKey())
	require.NotNil(t, e.CustomError())
	assert.Equal(t, CustomError(6000), *e.CustomError())
}

func TestInstructionError_Generic(t *testing.T) {
	e := InstructionError{Index: 2, Err: errors.New("something else")}
	assert.Equal(t, InstructionErrorGenericError, e.ErrorKey())

	e = InstructionError{}
	assert.Empty(t, e.ErrorKey())
}
