package cli

import (
	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/spl"
	"github.com/captoken/spl/pkg/captokerr"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var parsePolicy string

// parseCmd parses policy source into its AST and prints it, for debugging
// policy syntax without minting or verifying a token.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse policy source and print its AST",
	Long: `Parse an S-expression policy into its AST without evaluating it,
for debugging syntax errors.

Accepts inline source, or @path to read it from a file.`,
	Example: `  captoken parse '(and (= 1 1) (member "a" (tuple "a" "b")))'
  captoken parse @policy.sexp`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	parseCmd.GroupID = groupPolicy
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	src, err := loadPolicySource(args[0])
	if err != nil {
		return err
	}

	ast, err := spl.Parse(src)
	if err != nil {
		return captokerr.Wrap(captokerr.ErrPolicySyntax, "%v", err)
	}

	return writeJSON(cmd.OutOrStdout(), ast.ToJSON())
}
