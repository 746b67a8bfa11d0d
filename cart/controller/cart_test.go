package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	inErrors "github.com/nandias/storefront/internal/errors"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int32
		err      error
	}{
		{name: "missing falls back to one", raw: "", expected: 1},
		{name: "malformed falls back to one", raw: "abc", expected: 1},
		{name: "valid", raw: "3", expected: 3},
		{name: "column range upper bound", raw: "2147483647", expected: 2147483647},
		{name: "zero", raw: "0", err: inErrors.ErrInvalidQuantity},
		{name: "negative", raw: "-2", err: inErrors.ErrInvalidQuantity},
		{name: "past column range", raw: "2147483648", err: inErrors.ErrInvalidQuantity},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			quantity, err := parseQuantity(test.raw)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err, "quantity should be rejected")
				return
			}
			assert.NoError(t, err, "quantity should be accepted")
			assert.Equal(t, test.expected, quantity, "quantity should be parsed")
		})
	}
}
