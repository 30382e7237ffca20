package cli

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/counter"
	"github.com/captoken/spl/internal/seckeys"
	"github.com/captoken/spl/pkg/captokerr"
)

// agePreamble is the start of an age-encrypted file, used to detect whether
// a key file needs a passphrase before it can be read.
const agePreamble = "age-encryption.org/"

// loadPrivateSeedHex resolves mint's --key flag: it is
// either a bare 64-character hex seed, or a path to a key file produced by
// `captoken keygen` (plaintext or age-encrypted).
func loadPrivateSeedHex(keyArg string) (string, error) {
	if looksLikeHexSeed(keyArg) {
		return keyArg, nil
	}

	//nolint:gosec // G304: key path is operator-supplied, not request input
	data, err := os.ReadFile(keyArg)
	if err != nil {
		return "", captokerr.WithSuggestion(captokerr.ErrKeyNotFound, "check the --key path or pass a hex seed directly")
	}

	if strings.HasPrefix(string(data), agePreamble) {
		passphrase, promptErr := promptPassword("Enter keyfile passphrase: ")
		if promptErr != nil {
			return "", promptErr
		}
		defer zeroBytes(passphrase)

		plaintext, decErr := seckeys.Decrypt(data, string(passphrase))
		if decErr != nil {
			return "", captokerr.Wrap(captokerr.ErrDecryptionFailed, "%v", decErr)
		}
		defer zeroBytes(plaintext)

		return strings.TrimSpace(string(plaintext)), nil
	}

	return strings.TrimSpace(string(data)), nil
}

// looksLikeHexSeed reports whether s is a plausible 32-byte hex seed rather
// than a file path.
func looksLikeHexSeed(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

var errEmptyPolicySource = errors.New("policy source is empty")

// loadPolicySource resolves the --policy flag: either inline S-expression
// source, or, prefixed with "@", a path to a file containing it.
func loadPolicySource(policyArg string) (string, error) {
	if !strings.HasPrefix(policyArg, "@") {
		if strings.TrimSpace(policyArg) == "" {
			return "", errEmptyPolicySource
		}
		return policyArg, nil
	}

	path := strings.TrimPrefix(policyArg, "@")
	//nolint:gosec // G304: policy path is operator-supplied, not request input
	data, err := os.ReadFile(path)
	if err != nil {
		return "", captokerr.Wrap(err, "reading policy file %s", path)
	}
	return string(data), nil
}

// perDayCountCallback wires the per-day-count operator to the configured
// tamper-evident counter store (internal/counter), if the operator has set
// a counter.key in config/env. With no key configured it returns nil, and
// the evaluator falls back to its documented zero default — no store is
// opened unkeyed.
func perDayCountCallback(cmd *cobra.Command) func(action, day string) int64 {
	if cfg == nil || cfg.Counter.KeyHex == "" {
		return nil
	}

	key, err := hex.DecodeString(cfg.Counter.KeyHex)
	if err != nil {
		return nil
	}

	path := cfg.Counter.Path
	if strings.HasPrefix(path, "~/") {
		if home, homeErr := os.UserHomeDir(); homeErr == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	store, err := counter.Open(path, key)
	if err != nil {
		if logger != nil {
			logger.Error("opening counter store: %v", err)
		}
		return nil
	}

	if ctx := GetCmdContext(cmd); ctx != nil {
		ctx.Counters = store
	}

	return store.Count
}
