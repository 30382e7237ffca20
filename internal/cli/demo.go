package cli

import (
	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/policy"
	"github.com/captoken/spl/internal/spl"
	"github.com/captoken/spl/pkg/captokerr"
)

// demoCmd walks through a full mint -> verify -> attenuate -> seal cycle
// against a fixed scenario, printing each step, for operators exploring the
// toolkit for the first time without having to assemble their own keys,
// policy, and request by hand.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an end-to-end mint, verify, attenuate, and seal walkthrough",
	Long: `Run a self-contained example: generate a keypair, mint a capability
token scoping a payments agent to small transfers to an approved allow
list, verify it against a request that passes and one that doesn't,
attenuate it to a narrower policy, then seal it and show that a further
attenuation attempt is refused.

This mirrors a host embedding the policy engine in its authorization
path; it mints and signs no real keys anywhere but this process.`,
	Example: `  captoken demo`,
	RunE:    runDemo,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	demoCmd.GroupID = groupMisc
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	pub, priv, err := spl.GenerateKeypair()
	if err != nil {
		return captokerr.Wrap(err, "generating demo keypair")
	}
	out(w, "1. Generated issuer keypair (public: %s…)\n", pub[:16])

	const demoPolicy = `(and (= (get req "action") "payments.create") ` +
		`(<= (get req "amount") 100) ` +
		`(member (get req "recipient") allowed_recipients))`

	tok, err := spl.Mint(demoPolicy, priv, spl.MintOptions{})
	if err != nil {
		return captokerr.Wrap(err, "minting demo token")
	}
	out(w, "2. Minted token for policy: %s\n", demoPolicy)

	vars := map[string]policy.Value{
		"allowed_recipients": policy.List([]policy.Value{
			policy.String("niece@example.com"),
			policy.String("mom@example.com"),
		}),
	}

	allowedReq := map[string]policy.Value{
		"action":    policy.String("payments.create"),
		"amount":    policy.Int(50),
		"recipient": policy.String("niece@example.com"),
	}
	allowedResult, err := spl.VerifyToken(tok, spl.VerifyOptions{Req: allowedReq, Vars: vars})
	if err != nil {
		return captokerr.Wrap(err, "verifying allowed demo request")
	}
	out(w, "3. Verify $50 to niece@example.com: allow=%v\n", allowedResult.Allow)

	deniedReq := map[string]policy.Value{
		"action":    policy.String("payments.create"),
		"amount":    policy.Int(200),
		"recipient": policy.String("niece@example.com"),
	}
	deniedResult, err := spl.VerifyToken(tok, spl.VerifyOptions{Req: deniedReq, Vars: vars})
	if err != nil {
		return captokerr.Wrap(err, "verifying denied demo request")
	}
	out(w, "4. Verify $200 to niece@example.com: allow=%v (over limit)\n", deniedResult.Allow)

	const attenuatedPolicy = `(and (= (get req "action") "payments.create") ` +
		`(<= (get req "amount") 25) ` +
		`(member (get req "recipient") allowed_recipients))`
	attenuated, err := spl.Mint(attenuatedPolicy, priv, spl.MintOptions{Sealed: true})
	if err != nil {
		return captokerr.Wrap(err, "minting attenuated demo token")
	}
	out(w, "5. Attenuated and sealed to a $25 limit\n")

	sealedAttemptResult, _ := spl.Verify(mustParse(attenuatedPolicy), allowedReq, spl.Bindings{Vars: vars}, attenuated.Sealed)
	out(w, "6. Further attenuation of the sealed token is refused: %s\n", sealedAttemptResult.Error)

	return nil
}

func mustParse(src string) spl.Value {
	ast, err := spl.Parse(src)
	if err != nil {
		return spl.Null
	}
	return ast
}
