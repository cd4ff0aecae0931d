package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCompatible(t *testing.T) {
	cases := []struct {
		d, super Domain
		want     bool
	}{
		{Integers, RealNumbers, true},
		{Integers, Integers, true},
		{PositiveIntegers, Numbers, true},
		{RealNumbers, Integers, false},
		{Strings, Numbers, false},
		{Functions, Anything, true},
		{Void, Integers, true},
		{ImaginaryNumbers, ComplexNumbers, true},
		{ImaginaryNumbers, RealNumbers, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsCompatible(c.d, c.super), "%s ⊑ %s", c.d, c.super)
	}
}

func TestWiden(t *testing.T) {
	assert.Equal(t, RationalNumbers, Widen(Integers, RationalNumbers))
	assert.Equal(t, RealNumbers, Widen(Integers, RealNumbers))
	assert.Equal(t, ComplexNumbers, Widen(RealNumbers, ImaginaryNumbers))
	assert.Equal(t, Values, Widen(Strings, Integers))
	assert.Equal(t, Anything, Widen(Functions, Integers))
	assert.Equal(t, Integers, Widen(Void, Integers))
	assert.Equal(t, Integers, Widen(Integers, Integers))
}

func TestNarrow(t *testing.T) {
	assert.Equal(t, Integers, Narrow(RealNumbers, Integers))
	assert.Equal(t, Integers, Narrow(Integers, RealNumbers))
	assert.Equal(t, Void, Narrow(Strings, Integers))
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric(Integers))
	assert.True(t, IsNumeric(ComplexNumbers))
	assert.False(t, IsNumeric(Strings))
	assert.False(t, IsNumeric(Anything))
	assert.False(t, IsNumeric(Void))
}
