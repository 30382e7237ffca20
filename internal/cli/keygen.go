package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/output"
	"github.com/captoken/spl/internal/seckeys"
	"github.com/captoken/spl/internal/spl"
	"github.com/captoken/spl/pkg/captokerr"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	keygenOut     string
	keygenEncrypt bool
)

// keygenCmd generates a new Ed25519 keypair for minting tokens.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new Ed25519 signing keypair",
	Long: `Generate a new Ed25519 keypair for minting capability tokens.

The public key is always printed to stdout. The private key seed is
written to the file given by --out, or printed to stdout if --out is
omitted. With --encrypt, the private key is written as an age-encrypted
keyfile protected by a passphrase read from the terminal.`,
	Example: `  captoken keygen --out issuer.key
  captoken keygen --out issuer.key --encrypt`,
	RunE: runKeygen,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	keygenCmd.GroupID = groupToken
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVar(&keygenOut, "out", "", "file to write the private key seed to (default: stdout)")
	keygenCmd.Flags().BoolVar(&keygenEncrypt, "encrypt", false, "encrypt the private key with a passphrase (age)")
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	pub, priv, err := spl.GenerateKeypair()
	if err != nil {
		return captokerr.Wrap(err, "generating keypair")
	}

	w := cmd.OutOrStdout()

	if formatter != nil && formatter.Format() == output.FormatJSON {
		type keypairJSON struct {
			PublicKey  string `json:"public_key"`
			PrivateKey string `json:"private_key,omitempty"`
			KeyFile    string `json:"key_file,omitempty"`
		}
		payload := keypairJSON{PublicKey: pub}
		if keygenOut != "" {
			payload.KeyFile = keygenOut
		} else {
			payload.PrivateKey = priv
		}
		if err := writeKeyOutput(priv); err != nil {
			return err
		}
		return writeJSON(w, payload)
	}

	out(w, "Public key:  %s\n", pub)

	if err := writeKeyOutput(priv); err != nil {
		return err
	}

	if keygenOut != "" {
		out(w, "Private key written to %s\n", keygenOut)
	} else {
		out(w, "Private key: %s\n", priv)
	}

	return nil
}

// writeKeyOutput persists privateSeedHex to keygenOut (plaintext or, with
// --encrypt, age-encrypted behind a passphrase). A blank keygenOut is a
// no-op — the caller is responsible for printing the seed instead.
func writeKeyOutput(privateSeedHex string) error {
	if keygenOut == "" {
		return nil
	}

	if !keygenEncrypt {
		if err := os.WriteFile(keygenOut, []byte(privateSeedHex), 0o600); err != nil {
			return fmt.Errorf("writing key file: %w", err)
		}
		return nil
	}

	passphrase, err := promptNewPassphrase()
	if err != nil {
		return err
	}
	defer zeroBytes(passphrase)

	ciphertext, err := seckeys.Encrypt([]byte(privateSeedHex), string(passphrase))
	if err != nil {
		return captokerr.Wrap(err, "encrypting key file")
	}

	if err := os.WriteFile(keygenOut, ciphertext, 0o600); err != nil {
		return fmt.Errorf("writing encrypted key file: %w", err)
	}

	return nil
}
