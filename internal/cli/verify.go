package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/config"
	"github.com/captoken/spl/internal/metrics"
	"github.com/captoken/spl/internal/output"
	"github.com/captoken/spl/internal/policy"
	"github.com/captoken/spl/internal/spl"
	"github.com/captoken/spl/internal/version"
	"github.com/captoken/spl/pkg/captokerr"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	verifyTokenPath string
	verifyReq       string
	verifyVars      string
	verifyNow       string
	verifyPopSig    string
	verifyExitCode  bool
)

// verifyCmd runs the full token verification pipeline against a request.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a capability token against a request",
	Long: `Verify a signed capability token: check expiry, signature, optional
proof-of-possession, then parse and evaluate its policy against a request.

--token accepts a path to a JSON token file, or - to read from stdin.
--req and --vars accept inline JSON objects.`,
	Example: `  captoken verify --token token.json --req '{"amount": 50}'
  captoken verify --token token.json --req '{"action": "read"}' --vars '{"role": "agent"}'`,
	RunE: runVerify,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	verifyCmd.GroupID = groupToken
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyTokenPath, "token", "", "path to the token JSON file (required)")
	verifyCmd.Flags().StringVar(&verifyReq, "req", "{}", "request JSON object")
	verifyCmd.Flags().StringVar(&verifyVars, "vars", "{}", "host-supplied variables JSON object")
	verifyCmd.Flags().StringVar(&verifyNow, "now", "", "RFC3339 timestamp to evaluate against (default: current time)")
	verifyCmd.Flags().StringVar(&verifyPopSig, "pop-sig", "", "hex presentation signature, required when the token has a pop_key")
	verifyCmd.Flags().BoolVar(&verifyExitCode, "exit-code", false, "exit with a nonzero status on DENY instead of 0")

	_ = verifyCmd.MarkFlagRequired("token")
}

func readTokenFile(path string) ([]byte, error) {
	if path == "-" {
		return readAllStdin()
	}
	//nolint:gosec // G304: token path is operator-supplied, not request input
	return os.ReadFile(path)
}

func readAllStdin() ([]byte, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}

func runVerify(cmd *cobra.Command, _ []string) error {
	data, err := readTokenFile(verifyTokenPath)
	if err != nil {
		return captokerr.Wrap(err, "reading token")
	}

	tok, err := spl.ParseToken(data)
	if err != nil {
		return captokerr.Wrap(captokerr.ErrInvalidInput, "%v", err)
	}
	if err := checkEnvelopeVersion(tok); err != nil {
		return err
	}

	req, err := policy.ParseRequestJSON([]byte(verifyReq))
	if err != nil {
		return captokerr.WithSuggestion(captokerr.ErrInvalidInput, "--req must be a JSON object")
	}

	vars, err := policy.ParseRequestJSON([]byte(verifyVars))
	if err != nil {
		return captokerr.WithSuggestion(captokerr.ErrInvalidInput, "--vars must be a JSON object")
	}

	start := time.Now()
	result, err := spl.VerifyToken(tok, spl.VerifyOptions{
		Req:                   req,
		Vars:                  vars,
		Now:                   verifyNow,
		PresentationSignature: verifyPopSig,
		MaxGas:                cfg.GetMaxGas(),
		PerDayCount:           perDayCountCallback(cmd),
	})
	duration := time.Since(start)
	metrics.Global.RecordVerify(duration, int64(result.GasUsed), result.Allow, err)

	if logger != nil {
		logVerifyOutcome(tok, result, duration, err)
	}

	if err != nil {
		return captokerr.Wrap(err, "evaluating policy")
	}

	w := cmd.OutOrStdout()
	if formatter != nil && formatter.Format() == output.FormatJSON {
		type verifyJSON struct {
			Allow  bool   `json:"allow"`
			Sealed bool   `json:"sealed"`
			Error  string `json:"error,omitempty"`
		}
		if writeErr := writeJSON(w, verifyJSON{Allow: result.Allow, Sealed: result.Sealed, Error: result.Error}); writeErr != nil {
			return writeErr
		}
	} else if result.Allow {
		outln(w, "ALLOW")
	} else {
		reason := result.Error
		if reason == "" {
			reason = "policy evaluated to false"
		}
		out(w, "DENY (%s)\n", reason)
	}

	// A DENY is a decision, not a failure: the command exits 0 either way
	// unless the caller opted into distinct exit statuses.
	if !result.Allow && verifyExitCode {
		return captokerr.WithDetails(captokerr.ErrTokenDenied, map[string]string{"reason": fmt.Sprintf("%v", result.Error)})
	}

	return nil
}

// checkEnvelopeVersion rejects tokens minted under an incompatible
// envelope format before any signature work: a future format may bind
// fields this build's canonical payload doesn't cover, and quietly
// verifying such a token would miss them.
func checkEnvelopeVersion(tok spl.Token) error {
	if version.EnvelopeCompatible(tok.Version, spl.EnvelopeVersion) {
		return nil
	}
	return captokerr.WithDetails(
		captokerr.ErrInvalidInput,
		map[string]string{"token_version": tok.Version, "supported": spl.EnvelopeVersion},
	)
}

// logVerifyOutcome appends one record to the decision audit trail. The
// policy appears only as its SHA-256, so audit logs never accumulate
// policy source.
func logVerifyOutcome(tok spl.Token, result spl.TokenResult, elapsed time.Duration, err error) {
	if err != nil {
		logger.ErrorAttrs("policy evaluation failed",
			slog.String("policy", spl.SHA256Hex([]byte(tok.Policy))),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Decision(config.DecisionRecord{
		PolicyHash: spl.SHA256Hex([]byte(tok.Policy)),
		Allow:      result.Allow,
		Sealed:     result.Sealed,
		GasUsed:    result.GasUsed,
		Elapsed:    elapsed,
		Reason:     result.Error,
	})
}
