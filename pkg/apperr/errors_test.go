package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorfFormatsMessageAndUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapErrorf(cause, ErrIO, "writing block %d", 7)

	assert.Equal(t, "writing block 7: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	var coded *CodedError
	assert.True(t, errors.As(err, &coded))
	assert.Equal(t, ErrIO, coded.Code)
}

func TestWrapErrorfWithNilCauseOmitsSuffix(t *testing.T) {
	err := WrapErrorf(nil, ErrInputParse, "lat %f out of range", 91.0)
	assert.Equal(t, "lat 91.000000 out of range", err.Error())
}

func TestCodeStringNames(t *testing.T) {
	assert.Equal(t, "not_found", ErrNotFound.String())
	assert.Equal(t, "invariant_violation", ErrInvariantViolation.String())
	assert.Equal(t, "unknown", Code(999).String())
}

func TestInvariantPanicsWithCodedErrorOnFalse(t *testing.T) {
	assert.Panics(t, func() {
		Invariant(false, "node %d out of range", 3)
	})

	defer func() {
		r := recover()
		var coded *CodedError
		assert.True(t, errors.As(r.(error), &coded))
		assert.Equal(t, ErrInvariantViolation, coded.Code)
	}()
	Invariant(1 == 2, "unreachable")
}

func TestInvariantDoesNotPanicOnTrue(t *testing.T) {
	assert.NotPanics(t, func() {
		Invariant(true, "never shown")
	})
}
