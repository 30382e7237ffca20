package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/captoken/spl/internal/config"
	"github.com/captoken/spl/internal/output"
	"github.com/captoken/spl/internal/seckeys"
)

func TestMain(m *testing.M) {
	seckeys.SetScryptWorkFactor(10) // Fast for tests
	os.Exit(m.Run())
}

// setupTestEnv creates a temporary environment for CLI testing.
// It saves and restores global state to avoid test pollution.
// Tests using this function should NOT use t.Parallel() as they
// modify package-level globals.
func setupTestEnv(t *testing.T) (string, func()) {
	t.Helper()

	origCfg := cfg
	origLogger := logger
	origFormatter := formatter

	tmpDir, err := os.MkdirTemp("", "captoken-cli-test")
	require.NoError(t, err)

	testCfg := config.Defaults()
	testCfg.Home = tmpDir
	cfg = testCfg

	logger = config.NullLogger()

	formatter = output.NewFormatter(output.FormatText, os.Stdout)

	cleanup := func() {
		cfg = origCfg
		logger = origLogger
		formatter = origFormatter
		_ = os.RemoveAll(tmpDir)
	}

	return tmpDir, cleanup
}
