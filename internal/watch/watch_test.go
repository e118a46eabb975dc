package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/schemaplay/internal/errors"
)

func startWatcher(t *testing.T, path string) <-chan string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	changes := make(chan string, 100)
	err := New(path, nil).WithDebounce(20*time.Millisecond).Start(ctx, func(content string) {
		changes <- content
	})
	require.NoError(t, err)
	return changes
}

// waitForContent waits until the watcher reports want. Partial writes may
// be reported first.
func waitForContent(t *testing.T, changes <-chan string, want string) {
	t.Helper()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case content := <-changes:
			if content == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestWatcher_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "object"}`), 0o600))

	changes := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte(`{"type": "string"}`), 0o600))
	waitForContent(t, changes, `{"type": "string"}`)
}

func TestWatcher_RenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	changes := startWatcher(t, path)

	tmp := filepath.Join(dir, ".schema.json.swp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"type": "array"}`), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	waitForContent(t, changes, `{"type": "array"}`)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	changes := startWatcher(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{"x": 1}`), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`{"y": 2}`), 0o600))

	waitForContent(t, changes, `{"y": 2}`)
}

func TestWatcher_MissingFile(t *testing.T) {
	err := New(filepath.Join(t.TempDir(), "missing.json"), nil).Start(context.Background(), func(string) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFileNotFound)
}
