package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/metrics"
	"github.com/captoken/spl/internal/spl"
	"github.com/captoken/spl/pkg/captokerr"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	mintKey                 string
	mintPolicy              string
	mintOut                 string
	mintSealed              bool
	mintExpires             string
	mintMerkleRoot          string
	mintHashChainCommitment string
	mintPopKey              string
)

// mintCmd signs a policy into a capability token.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint a signed capability token",
	Long: `Sign a policy into a capability token using an Ed25519 issuer key.

--policy accepts inline S-expression source, or @path to read it from a
file. --key accepts a bare 64-character hex private seed, or a path to a
key file written by "captoken keygen" (plaintext or age-encrypted).`,
	Example: `  captoken mint --key issuer.key --policy '(<= (get req "amount") 100)' --out token.json
  captoken mint --key issuer.key --policy @policy.sexp --sealed --out token.json
  captoken mint --key issuer.key --policy '#t' --expires 2026-12-31T00:00:00Z`,
	RunE: runMint,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	mintCmd.GroupID = groupToken
	rootCmd.AddCommand(mintCmd)
	mintCmd.Flags().StringVar(&mintKey, "key", "", "issuer private key: hex seed or key file path (required)")
	mintCmd.Flags().StringVar(&mintPolicy, "policy", "", "policy source, or @file (required)")
	mintCmd.Flags().StringVar(&mintOut, "out", "", "file to write the minted token to (default: stdout)")
	mintCmd.Flags().BoolVar(&mintSealed, "sealed", false, "seal the token against attenuation")
	mintCmd.Flags().StringVar(&mintExpires, "expires", "", "RFC3339 expiry timestamp")
	mintCmd.Flags().StringVar(&mintMerkleRoot, "merkle-root", "", "hex Merkle root bound into the token")
	mintCmd.Flags().StringVar(&mintHashChainCommitment, "hash-chain-commitment", "", "hex hash-chain commitment bound into the token")
	mintCmd.Flags().StringVar(&mintPopKey, "pop-key", "", "hex Ed25519 public key requiring a presentation signature")

	_ = mintCmd.MarkFlagRequired("key")
	_ = mintCmd.MarkFlagRequired("policy")
}

func runMint(cmd *cobra.Command, _ []string) error {
	policySrc, err := loadPolicySource(mintPolicy)
	if err != nil {
		return err
	}

	seedHex, err := loadPrivateSeedHex(mintKey)
	if err != nil {
		return err
	}

	tok, err := spl.Mint(policySrc, seedHex, spl.MintOptions{
		MerkleRoot:          mintMerkleRoot,
		HashChainCommitment: mintHashChainCommitment,
		Sealed:              mintSealed,
		Expires:             mintExpires,
		PopKey:              mintPopKey,
	})
	metrics.Global.RecordMint(err)
	if err != nil {
		return captokerr.Wrap(err, "minting token")
	}

	data := []byte(tok.String() + "\n")

	if mintOut != "" {
		if writeErr := os.WriteFile(mintOut, data, 0o600); writeErr != nil {
			return fmt.Errorf("writing token file: %w", writeErr)
		}
		out(cmd.OutOrStdout(), "Token written to %s\n", mintOut)
		return nil
	}

	_, werr := cmd.OutOrStdout().Write(data)
	return werr
}
