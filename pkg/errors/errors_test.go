package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayError_Unwrap(t *testing.T) {
	err := NewDayError("price", "2023-06-12", Wrap(ErrPriceUnavailable, "no close"))

	assert.True(t, Is(err, ErrPriceUnavailable))
	assert.Contains(t, err.Error(), "2023-06-12")
	assert.Contains(t, err.Error(), "price")

	var dayErr *DayError
	require.True(t, As(err, &dayErr))
	assert.Equal(t, "2023-06-12", dayErr.Day)
}

func TestMultiError(t *testing.T) {
	var m MultiError

	assert.False(t, m.HasErrors())
	assert.Nil(t, m.ToError())

	m.Add(nil)
	assert.False(t, m.HasErrors())

	m.Add(NewDayError("reconcile", "2023-06-10", ErrUnavailable))
	m.Add(NewDayError("price", "2023-06-12", ErrPriceUnavailable))

	err := m.ToError()
	require.Error(t, err)
	assert.True(t, Is(err, ErrUnavailable))
	assert.True(t, Is(err, ErrPriceUnavailable))
	assert.Contains(t, err.Error(), "multiple errors (2)")
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
}
