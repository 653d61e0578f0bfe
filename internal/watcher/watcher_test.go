package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twinfm/internal/jobs"
)

type recordingRefresher struct {
	mu    sync.Mutex
	calls []jobs.PanelID
}

func (r *recordingRefresher) QueuePanelRefresh(panel jobs.PanelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, panel)
}

func (r *recordingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestPanelWatcherRequestsRefreshOnChange(t *testing.T) {
	dir := t.TempDir()
	rec := &recordingRefresher{}
	w := NewPanelWatcher(jobs.PanelLeft, rec)
	defer w.Close()

	w.Retarget(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return rec.count() > 0 }, 2*time.Second, 10*time.Millisecond,
		"expected a refresh request after a file was created in the watched directory")
}

func TestPanelWatcherDebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	rec := &recordingRefresher{}
	w := NewPanelWatcher(jobs.PanelLeft, rec)
	defer w.Close()

	w.Retarget(dir)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "burst.txt"), []byte{byte(i)}, 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return rec.count() > 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(debounceWindow + 200*time.Millisecond)
	assert.Equal(t, 1, rec.count(), "a rapid burst within the debounce window should coalesce to one refresh request")
}

func TestPanelWatcherRetargetSwitchesDirectory(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	rec := &recordingRefresher{}
	w := NewPanelWatcher(jobs.PanelRight, rec)
	defer w.Close()

	w.Retarget(dirA)
	w.Retarget(dirB)

	require.NoError(t, os.WriteFile(filepath.Join(dirA, "ignored.txt"), []byte("x"), 0o644))
	time.Sleep(debounceWindow + 200*time.Millisecond)
	assert.Equal(t, 0, rec.count(), "changes in the previously-watched directory should not trigger a refresh after Retarget")

	require.NoError(t, os.WriteFile(filepath.Join(dirB, "seen.txt"), []byte("x"), 0o644))
	require.Eventually(t, func() bool { return rec.count() > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPanelWatcherRetargetMissingDirFallsBackSilently(t *testing.T) {
	rec := &recordingRefresher{}
	w := NewPanelWatcher(jobs.PanelLeft, rec)
	defer w.Close()

	w.Retarget(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Equal(t, 0, rec.count())
}

func TestPanelWatcherCloseIsIdempotent(t *testing.T) {
	rec := &recordingRefresher{}
	w := NewPanelWatcher(jobs.PanelLeft, rec)
	w.Retarget(t.TempDir())
	w.Close()
	w.Close()
}
