package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captoken/spl/pkg/captokerr"
)

// TestZeroBytes verifies a byte slice is fully overwritten.
func TestZeroBytes(t *testing.T) {
	t.Parallel()

	b := []byte("super-secret-passphrase")
	zeroBytes(b)

	for i, c := range b {
		assert.Equalf(t, byte(0), c, "byte %d not zeroed", i)
	}
}

// TestZeroBytes_Empty ensures zeroing an empty slice doesn't panic.
func TestZeroBytes_Empty(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		zeroBytes(nil)
		zeroBytes([]byte{})
	})
}

// TestPromptNewPassphrase_TooShortMessage checks the error returned for a
// too-short passphrase carries the captokerr suggestion.
func TestPromptNewPassphrase_TooShortMessage(t *testing.T) {
	t.Parallel()

	err := captokerr.WithSuggestion(captokerr.ErrInvalidInput, "passphrase must be at least 8 characters")
	assert.ErrorIs(t, err, captokerr.ErrInvalidInput)
	var ce *captokerr.CapError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Suggestion, "at least 8 characters")
}

// TestPromptNewPassphrase_MismatchMessage checks the mismatch error shape
// used by promptNewPassphrase when confirmation doesn't match.
func TestPromptNewPassphrase_MismatchMessage(t *testing.T) {
	t.Parallel()

	err := captokerr.WithSuggestion(captokerr.ErrInvalidInput, "passphrases do not match")
	assert.ErrorIs(t, err, captokerr.ErrInvalidInput)
	var ce *captokerr.CapError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Suggestion, "do not match")
}
