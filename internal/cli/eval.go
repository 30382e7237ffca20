package cli

import (
	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/output"
	"github.com/captoken/spl/internal/policy"
	"github.com/captoken/spl/internal/spl"
	"github.com/captoken/spl/pkg/captokerr"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	evalPolicy   string
	evalReq      string
	evalVars     string
	evalExitCode bool
)

// evalCmd parses and evaluates a policy against a request without any
// token envelope — the unsigned eval_policy/verify path of the public
// facade, useful for developing a policy before it is ever minted.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a policy against a request, without a signed token",
	Long: `Parse and evaluate an S-expression policy against a request and a set
of host-supplied variables, bypassing the signed-token envelope entirely.

This exercises the same evaluator verify --token does, but skips
expiry/signature/PoP checks — useful while iterating on a policy before
it is minted.`,
	Example: `  captoken eval --policy '(<= (get req "amount") 100)' --req '{"amount": 50}'
  captoken eval --policy @policy.sexp --req '{"action": "read"}' --vars '{"role": "agent"}'`,
	RunE: runEval,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	evalCmd.GroupID = groupPolicy
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalPolicy, "policy", "", "policy source, or @file (required)")
	evalCmd.Flags().StringVar(&evalReq, "req", "{}", "request JSON object")
	evalCmd.Flags().StringVar(&evalVars, "vars", "{}", "host-supplied variables JSON object")
	evalCmd.Flags().BoolVar(&evalExitCode, "exit-code", false, "exit with a nonzero status on DENY instead of 0")

	_ = evalCmd.MarkFlagRequired("policy")
}

func runEval(cmd *cobra.Command, _ []string) error {
	src, err := loadPolicySource(evalPolicy)
	if err != nil {
		return err
	}

	ast, err := spl.Parse(src)
	if err != nil {
		return captokerr.Wrap(captokerr.ErrPolicySyntax, "%v", err)
	}

	req, err := policy.ParseRequestJSON([]byte(evalReq))
	if err != nil {
		return captokerr.WithSuggestion(captokerr.ErrInvalidInput, "--req must be a JSON object")
	}

	vars, err := policy.ParseRequestJSON([]byte(evalVars))
	if err != nil {
		return captokerr.WithSuggestion(captokerr.ErrInvalidInput, "--vars must be a JSON object")
	}

	result, err := spl.Verify(ast, req, spl.Bindings{
		Vars:        vars,
		MaxGas:      cfg.GetMaxGas(),
		PerDayCount: perDayCountCallback(cmd),
	}, false)
	if err != nil {
		return evalErrorToCapError(err)
	}

	w := cmd.OutOrStdout()
	if formatter != nil && formatter.Format() == output.FormatJSON {
		type evalJSON struct {
			Allow bool `json:"allow"`
		}
		if err := writeJSON(w, evalJSON{Allow: result.Allow}); err != nil {
			return err
		}
	} else if result.Allow {
		outln(w, "ALLOW")
	} else {
		outln(w, "DENY")
	}

	// A DENY is a decision, not a failure: the command exits 0 either way
	// unless the caller opted into distinct exit statuses.
	if !result.Allow && evalExitCode {
		return captokerr.ErrTokenDenied
	}
	return nil
}

// evalErrorToCapError maps the three evaluator failure kinds onto this
// module's structured error codes and CLI exit statuses.
func evalErrorToCapError(err error) error {
	switch {
	case captokerr.Is(err, policy.ErrGasExhausted):
		return captokerr.Wrap(captokerr.ErrGasExhausted, "%v", err)
	case captokerr.Is(err, policy.ErrDepthExceeded):
		return captokerr.Wrap(captokerr.ErrDepthExceeded, "%v", err)
	default:
		return captokerr.Wrap(captokerr.ErrUnknownOperator, "%v", err)
	}
}
