package diagerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	var errs *Errors
	assert.False(t, errs.HasError())
	assert.NoError(t, errs.Err())
	assert.Empty(t, errs.Errors())

	errs = errs.With(New(NewMalformedFixture{File: "a.yaml", Line: 3, Reason: "bad"}))
	errs = errs.With(New(NewUnknownName{File: "a.yaml", Line: 4, Name: "Set", Kind: "constructor"}))
	require.True(t, errs.HasError())
	require.Len(t, errs.Errors(), 2)

	err := errs.Err()
	assert.Contains(t, err.Error(), "a.yaml:3: malformed fixture: bad")
	assert.Contains(t, err.Error(), "a.yaml:4: constructor 'Set' is not declared")

	var unknown NewUnknownName
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Set", unknown.Name)
	assert.Equal(t, UnknownName, unknown.Code())

	assert.Len(t, errs.LogValue().Group(), 2)
}

func TestFormatWithCode(t *testing.T) {
	err := NewArityMismatch{Element: "List(Int, Int)", Symbol: "List", Expected: 1, Got: 2}
	assert.Equal(t, "(E001) arity mismatch in 'List(Int, Int)': 'List' expects 1 arguments but got 2", FormatWithCode(err))

	withStack := New(err)
	assert.NotNil(t, withStack.getStack())
	assert.Contains(t, FormatWithCode(withStack), ":(E001) arity mismatch")
}
