package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/metrics"
	"github.com/captoken/spl/internal/policy"
	"github.com/captoken/spl/internal/spl"
	"github.com/captoken/spl/pkg/captokerr"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var verifyBatchFile string

// verifyBatchRecord is one line of a --file input: a token alongside the
// request (and optional vars) to evaluate it against.
type verifyBatchRecord struct {
	Token  spl.Token      `json:"token"`
	Req    map[string]any `json:"req"`
	Vars   map[string]any `json:"vars"`
	Now    string         `json:"now"`
	PopSig string         `json:"pop_sig"`
}

// verifyBatchCmd verifies many tokens from a newline-delimited JSON file,
// throttled to the configured rate limit.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var verifyBatchCmd = &cobra.Command{
	Use:   "verify-batch",
	Short: "Verify many tokens from a newline-delimited JSON file",
	Long: `Verify a batch of tokens, one JSON record per line, each shaped as
{"token": {...}, "req": {...}, "vars": {...}}.

Evaluation is throttled to the rate_limit.requests_per_second /
rate_limit.burst settings (see "captoken config show").`,
	Example: `  captoken verify-batch --file requests.jsonl`,
	RunE:    runVerifyBatch,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	verifyBatchCmd.GroupID = groupToken
	rootCmd.AddCommand(verifyBatchCmd)
	verifyBatchCmd.Flags().StringVar(&verifyBatchFile, "file", "", "path to a newline-delimited JSON file of records (required)")
	_ = verifyBatchCmd.MarkFlagRequired("file")
}

func runVerifyBatch(cmd *cobra.Command, _ []string) error {
	//nolint:gosec // G304: batch file path is operator-supplied, not request input
	f, err := os.Open(verifyBatchFile)
	if err != nil {
		return captokerr.Wrap(err, "opening batch file")
	}
	defer func() { _ = f.Close() }()

	cmdContext := GetCmdContext(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	perDayCount := perDayCountCallback(cmd)

	w := cmd.OutOrStdout()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var allowed, denied, failed int

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if cmdContext != nil && cmdContext.Throttle != nil {
			if waitErr := cmdContext.Throttle.Wait(ctx); waitErr != nil {
				return captokerr.Wrap(waitErr, "batch throttled wait canceled")
			}
		}

		var rec verifyBatchRecord
		if jsonErr := json.Unmarshal(line, &rec); jsonErr != nil {
			failed++
			out(w, "line %d: FAIL (invalid record: %v)\n", lineNo, jsonErr)
			continue
		}

		start := time.Now()
		result, verifyErr := verifyBatchOne(rec, perDayCount)
		elapsed := time.Since(start)
		metrics.Global.RecordVerify(elapsed, int64(result.GasUsed), result.Allow, verifyErr)
		if logger != nil && verifyErr == nil {
			logVerifyOutcome(rec.Token, result, elapsed, nil)
		}

		switch {
		case verifyErr != nil:
			failed++
			out(w, "line %d: FAIL (%v)\n", lineNo, verifyErr)
		case result.Allow:
			allowed++
			out(w, "line %d: ALLOW\n", lineNo)
		default:
			denied++
			out(w, "line %d: DENY (%s)\n", lineNo, result.Error)
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return captokerr.Wrap(scanErr, "reading batch file")
	}

	out(w, "\n%d allowed, %d denied, %d failed\n", allowed, denied, failed)

	return nil
}

func verifyBatchOne(rec verifyBatchRecord, perDayCount func(action, day string) int64) (spl.TokenResult, error) {
	req, err := jsonMapToValues(rec.Req)
	if err != nil {
		return spl.TokenResult{}, err
	}
	vars, err := jsonMapToValues(rec.Vars)
	if err != nil {
		return spl.TokenResult{}, err
	}
	if err := checkEnvelopeVersion(rec.Token); err != nil {
		return spl.TokenResult{}, err
	}

	return spl.VerifyToken(rec.Token, spl.VerifyOptions{
		Req:                   req,
		Vars:                  vars,
		Now:                   rec.Now,
		PresentationSignature: rec.PopSig,
		MaxGas:                cfg.GetMaxGas(),
		PerDayCount:           perDayCount,
	})
}

// jsonMapToValues re-serializes a decoded JSON object and re-parses it
// through policy.ParseRequestJSON so int/float classification matches the
// rest of the CLI, rather than the float64-only classification json.Unmarshal
// would otherwise produce for m (an any-typed map).
func jsonMapToValues(m map[string]any) (map[string]policy.Value, error) {
	if m == nil {
		return map[string]policy.Value{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("re-encoding JSON object: %w", err)
	}
	return policy.ParseRequestJSON(data)
}
