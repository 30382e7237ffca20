package counter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captoken/spl/internal/counter"
)

func TestStore_CountStartsAtZero(t *testing.T) {
	t.Parallel()

	s, err := counter.Open(filepath.Join(t.TempDir(), "counter.json"), []byte("secret"))
	require.NoError(t, err)

	assert.Equal(t, int64(0), s.Count("transfer", "2026-07-31"))
}

func TestStore_IncrementPersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counter.json")
	key := []byte("secret")

	s, err := counter.Open(path, key)
	require.NoError(t, err)

	n, err := s.Increment("transfer", "2026-07-31")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Increment("transfer", "2026-07-31")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	reopened, err := counter.Open(path, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reopened.Count("transfer", "2026-07-31"))
}

func TestStore_DifferentDaysAreIndependent(t *testing.T) {
	t.Parallel()

	s, err := counter.Open(filepath.Join(t.TempDir(), "counter.json"), []byte("secret"))
	require.NoError(t, err)

	_, err = s.Increment("transfer", "2026-07-30")
	require.NoError(t, err)

	assert.Equal(t, int64(1), s.Count("transfer", "2026-07-30"))
	assert.Equal(t, int64(0), s.Count("transfer", "2026-07-31"))
}

func TestStore_TamperedFileDeniesRatherThanResets(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counter.json")
	key := []byte("secret")

	s, err := counter.Open(path, key)
	require.NoError(t, err)
	_, err = s.Increment("transfer", "2026-07-31")
	require.NoError(t, err)

	// Reopen with the wrong key, simulating a forged or corrupted HMAC.
	wrongKey, err := counter.Open(path, []byte("different-secret"))
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<40, wrongKey.Count("transfer", "2026-07-31"))
}

func TestStore_CorruptJSONDeniesEverything(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counter.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o600))

	s, err := counter.Open(path, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<40, s.Count("transfer", "2026-07-31"))
}
