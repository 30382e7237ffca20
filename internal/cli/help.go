package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/policy"
)

// walkCommands visits every command in the tree depth-first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// enrichParentLong appends a dynamically generated subcommand list to a parent
// command's Long description. This ensures parent help stays current when
// subcommands are added or removed.
func enrichParentLong(cmd *cobra.Command) {
	if !cmd.HasSubCommands() {
		return
	}

	var sb strings.Builder
	sb.WriteString(cmd.Long)
	sb.WriteString("\n\nSubcommands:\n")

	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			sb.WriteString(fmt.Sprintf("  %-16s %s\n", sub.Name(), sub.Short))
		}
	}

	cmd.Long = sb.String()
}

// operatorBlurbs describes each reserved policy operator for the help
// topic below. Keyed by the operator symbol as it appears in source.
//
//nolint:gochecknoglobals // Static help text
var operatorBlurbs = map[string]string{
	"and":           "short-circuit conjunction; empty (and) is true",
	"or":            "short-circuit disjunction; empty (or) is false",
	"not":           "boolean negation of truthiness",
	"=":             "structural equality of two evaluated values",
	"<":             "numeric less-than (non-numbers coerce to 0.0)",
	"<=":            "numeric at-most",
	">":             "numeric greater-than",
	">=":            "numeric at-least",
	"member":        "membership of a value in a list",
	"in":            "alias of member",
	"subset?":       "every element of the first list occurs in the second",
	"before":        "string ordering; ISO 8601 UTC timestamps compare correctly",
	"get":           "field of req or a vars-bound object; the object is named, not computed",
	"tuple":         "evaluate the arguments into a list",
	"per-day-count": "host counter lookup for (action, day); 0 without a host counter",
	"dpop_ok?":      "host DPoP check; true when the host wires none",
	"merkle_ok?":    "host Merkle-inclusion check over the evaluated arguments",
	"vrf_ok?":       "host VRF check for (day, amount)",
	"thresh_ok?":    "host threshold co-signature check (hook only in v0.1)",
}

// operatorsCmd is a help topic: the reserved operator set of the policy
// language, one line each, generated from the evaluator's own dispatch
// table so it can't drift from what actually evaluates.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var operatorsCmd = &cobra.Command{
	Use:   "operators",
	Short: "List the policy language's reserved operators",
	Long: `List every reserved operator of the policy language with a one-line
description. Any other symbol in operator position is an evaluation
error, so this is the complete vocabulary available to a policy author.`,
	Example: `  captoken operators`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		for _, op := range strings.Fields(policy.OperatorHelp()) {
			out(w, "  %-15s %s\n", op, operatorBlurbs[op])
		}
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	operatorsCmd.GroupID = groupPolicy
	rootCmd.AddCommand(operatorsCmd)
}
