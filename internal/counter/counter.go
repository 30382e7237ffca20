// Package counter provides a tamper-evident, file-backed implementation of
// the per_day_count(action, day) host callback that policies call through
// the per-day-count operator. It is reference infrastructure a host process
// can wire into policy.Bindings.PerDayCount — the evaluator itself only
// calls the function pointer and has no file format of its own.
package counter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const storeFilePermissions = 0o600

// entry is one (action, day) counter, independently HMAC-tagged so a single
// tampered entry doesn't invalidate the rest of the store.
type entry struct {
	Action string `json:"action"`
	Day    string `json:"day"`
	Count  int64  `json:"count"`
	HMAC   string `json:"hmac"`
}

// maxedCount is returned for any entry that fails its integrity check. An
// attacker who can corrupt or truncate the store file must not thereby
// unlock further actions — the only way a count legitimately returns to
// zero is a genuinely new day for that action.
const maxedCount = int64(1) << 40

// Store is a tamper-evident daily action counter, HMAC-keyed with a secret
// the caller supplies (typically derived from the verifying key material so
// a party without it cannot forge a fresh-looking counter file).
type Store struct {
	path string
	key  []byte

	mu       sync.Mutex
	entries  map[string]entry // keyed by action+"\x00"+day
	tampered bool             // set when the on-disk store failed to parse
}

// ErrTampered is returned by Increment when the existing entry for an
// action/day fails its HMAC check.
var ErrTampered = fmt.Errorf("counter entry integrity check failed: possible tampering")

// Open loads a Store backed by path, HMAC-keyed with key. A missing file is
// not an error — it starts as an empty store.
func Open(path string, key []byte) (*Store, error) {
	s := &Store{path: path, key: key, entries: map[string]entry{}}

	//nolint:gosec // G304: path is operator-supplied configuration, not request input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading counter store: %w", err)
	}

	var raw []entry
	if err := json.Unmarshal(data, &raw); err != nil {
		// Corrupt file: every existing entry is now untrusted. Rather than
		// discard it (which would reset every action to zero), keep no
		// entries in memory so Count falls through to the tampered path
		// for everything this store has ever tracked.
		s.tampered = true
		return s, nil
	}

	for _, e := range raw {
		s.entries[entryKey(e.Action, e.Day)] = e
	}
	return s, nil
}

// Count returns the recorded count for action on day. A missing entry
// (never recorded, or rolled to a new day) returns 0. An entry whose HMAC
// fails to verify returns maxedCount, denying further actions rather than
// rewarding whoever corrupted the file with a reset limit.
func (s *Store) Count(action, day string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tampered {
		return maxedCount
	}

	e, ok := s.entries[entryKey(action, day)]
	if !ok {
		return 0
	}
	if !s.verify(e) {
		return maxedCount
	}
	return e.Count
}

// Increment records one more occurrence of action on day and persists the
// store. It returns the new count.
func (s *Store) Increment(action, day string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey(action, day)
	e, ok := s.entries[key]
	if !ok || s.tampered {
		e = entry{Action: action, Day: day}
	} else if !s.verify(e) {
		// Treat a tampered entry as already at the deny threshold; refuse
		// to let an Increment paper over the tamper by resetting it.
		return maxedCount, ErrTampered
	}

	e.Count++
	e.HMAC = s.computeHMAC(e)
	s.tampered = false
	s.entries[key] = e

	if s.path == "" {
		return e.Count, nil
	}
	return e.Count, s.save()
}

func (s *Store) save() error {
	out := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling counter store: %w", err)
	}
	return writeAtomic(s.path, data, storeFilePermissions)
}

// writeAtomic replaces the store file via a same-directory temp file,
// fsync, and rename. A counter that a policy's per-day limit depends on
// must never be left half-written by a crash mid-save: a torn file would
// fail its HMAC checks and pin every entry at the tamper ceiling.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmpFile.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmpFile.Close()
		}
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	closed = true

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	// Best effort directory sync for rename durability.
	if dirFile, err := os.Open(dir); err == nil { //nolint:gosec // G304: dir is derived from the configured store path
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}

	return nil
}

func (s *Store) computeHMAC(e entry) string {
	payload := fmt.Sprintf("%s\x00%s\x00%d", e.Action, e.Day, e.Count)
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Store) verify(e entry) bool {
	expected := s.computeHMAC(e)
	return hmac.Equal([]byte(expected), []byte(e.HMAC))
}

func entryKey(action, day string) string { return action + "\x00" + day }
