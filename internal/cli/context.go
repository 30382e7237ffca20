package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/captoken/spl/internal/config"
	"github.com/captoken/spl/internal/counter"
	"github.com/captoken/spl/internal/output"
	"github.com/captoken/spl/internal/policy"
)

// contextKey is the type for context keys to avoid collisions.
type contextKey string

// cmdCtxKey is the key for storing CommandContext in cobra's context.
const cmdCtxKey contextKey = "captoken-cmd-ctx"

// SetCmdContext stores the CommandContext in the cobra command's context.
func SetCmdContext(cmd *cobra.Command, ctx *CommandContext) {
	cmd.SetContext(context.WithValue(cmd.Context(), cmdCtxKey, ctx))
}

// GetCmdContext retrieves the CommandContext from the cobra command's context.
// Returns nil if no context is set.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	if cmdCtx, ok := ctx.Value(cmdCtxKey).(*CommandContext); ok {
		return cmdCtx
	}
	return nil
}

// CommandContext holds dependencies for CLI commands.
// Uses interfaces where possible to enable testing with mocks.
type CommandContext struct {
	// Cfg provides configuration access (interface for testability).
	Cfg ConfigProvider

	// Log provides logging capabilities (interface for testability).
	Log LogWriter

	// Fmt provides output formatting (interface for testability).
	Fmt FormatProvider

	// Counters backs the per_day_count policy operator. Nil until a command
	// opens it (lazily, since it requires an HMAC key and a file path).
	Counters *counter.Store

	// Throttle rate-limits the batch verify path.
	Throttle *policy.Throttle
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
) *CommandContext {
	rl := cfg.GetRateLimit()
	return &CommandContext{
		Cfg:      cfg,
		Log:      logger,
		Fmt:      formatter,
		Throttle: policy.NewThrottle(rl.RequestsPerSecond, rl.Burst),
	}
}

// WithCounters sets the per_day_count counter store.
func (c *CommandContext) WithCounters(store *counter.Store) *CommandContext {
	c.Counters = store
	return c
}
