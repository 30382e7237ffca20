package cli

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captoken/spl/internal/config"
	"github.com/captoken/spl/internal/counter"
	"github.com/captoken/spl/internal/output"
)

func TestNewCommandContext(t *testing.T) {
	tests := []struct {
		name   string
		config *config.Config
		log    *config.Logger
		fmt    *output.Formatter
	}{
		{
			name:   "with all values",
			config: config.Defaults(),
			log:    config.NullLogger(),
			fmt:    output.NewFormatter(output.FormatText, nil),
		},
		{
			name:   "with nil logger",
			config: config.Defaults(),
			log:    nil,
			fmt:    output.NewFormatter(output.FormatText, nil),
		},
		{
			name:   "with nil formatter",
			config: config.Defaults(),
			log:    config.NullLogger(),
			fmt:    nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := NewCommandContext(tc.config, tc.log, tc.fmt)
			require.NotNil(t, ctx)

			assert.Equal(t, tc.config, ctx.Cfg)
			assert.Equal(t, tc.log, ctx.Log)
			assert.Equal(t, tc.fmt, ctx.Fmt)

			// Throttle should always be set from the config's rate limit.
			assert.NotNil(t, ctx.Throttle)
		})
	}
}

func TestSetCmdContext_GetCmdContext_Roundtrip(t *testing.T) {
	testCfg := config.Defaults()
	testLogger := config.NullLogger()
	testFormatter := output.NewFormatter(output.FormatText, nil)

	cc := NewCommandContext(testCfg, testLogger, testFormatter)

	cmd := &cobra.Command{}
	// Initialize the command's context (required before SetCmdContext)
	cmd.SetContext(context.Background())

	// Set the context
	SetCmdContext(cmd, cc)

	// Get it back
	retrieved := GetCmdContext(cmd)
	require.NotNil(t, retrieved)

	// Verify it's the same context
	assert.Equal(t, cc, retrieved)
	assert.Equal(t, testCfg, retrieved.Cfg)
	assert.Equal(t, testLogger, retrieved.Log)
	assert.Equal(t, testFormatter, retrieved.Fmt)
}

func TestGetCmdContext_NilContext(t *testing.T) {
	cmd := &cobra.Command{}

	// Command with no context set
	ctx := GetCmdContext(cmd)
	assert.Nil(t, ctx)
}

func TestGetCmdContext_WrongContextType(t *testing.T) {
	cmd := &cobra.Command{}

	// Set a context with wrong type value
	cmd.SetContext(context.WithValue(context.Background(), cmdCtxKey, "not a CommandContext"))

	ctx := GetCmdContext(cmd)
	assert.Nil(t, ctx)
}

func TestCommandContext_WithCounters(t *testing.T) {
	ctx := NewCommandContext(config.Defaults(), nil, nil)

	// Initially nil
	assert.Nil(t, ctx.Counters)

	tmpFile := t.TempDir() + "/counters.json"
	store, err := counter.Open(tmpFile, []byte("test-hmac-key"))
	require.NoError(t, err)

	result := ctx.WithCounters(store)

	// Returns same context for chaining
	assert.Equal(t, ctx, result)
	assert.Equal(t, store, ctx.Counters)
}

// mockFormatProvider implements FormatProvider for testing.
type mockFormatProvider struct{ format output.Format }

func (m *mockFormatProvider) Format() output.Format { return m.format }

// Compile-time check that mock types implement interfaces.
var _ FormatProvider = (*mockFormatProvider)(nil)
