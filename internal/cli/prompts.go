package cli

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/captoken/spl/pkg/captokerr"
)

// zeroBytes overwrites b with zeros in place, so a passphrase read from the
// terminal doesn't linger in memory longer than necessary.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// promptNewPassphrase prompts for a new keyfile-encryption passphrase with
// confirmation, used by `captoken keygen --out` when writing an
// age-encrypted private key.
func promptNewPassphrase() ([]byte, error) {
	passphrase, err := promptPassword("Enter keyfile passphrase: ")
	if err != nil {
		return nil, err
	}

	if len(passphrase) < 8 {
		zeroBytes(passphrase)
		return nil, captokerr.WithSuggestion(
			captokerr.ErrInvalidInput,
			"passphrase must be at least 8 characters",
		)
	}

	confirm, err := promptPassword("Confirm passphrase: ")
	if err != nil {
		zeroBytes(passphrase)
		return nil, err
	}
	defer zeroBytes(confirm)

	if string(passphrase) != string(confirm) {
		zeroBytes(passphrase)
		return nil, captokerr.WithSuggestion(
			captokerr.ErrInvalidInput,
			"passphrases do not match",
		)
	}

	return passphrase, nil
}
