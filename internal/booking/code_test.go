package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReservationCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := newReservationCode()
		require.NoError(t, err)
		require.Len(t, code, len(codePrefix)+codeLength)
		assert.True(t, strings.HasPrefix(code, codePrefix))
		for _, c := range code[len(codePrefix):] {
			assert.Contains(t, codeAlphabet, string(c), "code %q uses a character outside the alphabet", code)
		}
		seen[code] = struct{}{}
	}
	// 200 draws from a ~8.5e11 space colliding would indicate a broken
	// random source.
	assert.Len(t, seen, 200)
}

func TestCodeAlphabetOmitsAmbiguousCharacters(t *testing.T) {
	for _, c := range "0O1IL" {
		assert.NotContains(t, codeAlphabet, string(c))
	}
}
