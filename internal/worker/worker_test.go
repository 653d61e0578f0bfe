package worker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twinfm/internal/cancel"
	"twinfm/internal/jobs"
)

type stubBackend struct {
	createDirCalls []string
	renameCalls    [][2]string
	persisted      [][]byte
}

func (s *stubBackend) CreateDir(path string) error {
	s.createDirCalls = append(s.createDirCalls, path)
	return nil
}
func (s *stubBackend) Rename(oldPath, newPath string) error {
	s.renameCalls = append(s.renameCalls, [2]string{oldPath, newPath})
	return nil
}
func (s *stubBackend) PersistSettings(snapshot []byte) error {
	s.persisted = append(s.persisted, snapshot)
	return nil
}

func drainEvents(t *testing.T, rt *Runtime, id jobs.JobId) []jobs.JobEvent {
	t.Helper()
	var events []jobs.JobEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-rt.Outbound():
			if !ok {
				return events
			}
			if ev.ID == id {
				events = append(events, ev)
			}
			if ev.Kind == jobs.EventFinished && ev.ID == id {
				return events
			}
		case <-timeout:
			t.Fatal("timed out waiting for job events")
		}
	}
}

// Testable property 1 & 2: Started, Progress*, Finished exactly once;
// monotone progress; final Finished(Ok) has items_done=items_total.
func TestRuntimeSuccessfulCopySequence(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("12345"), 0o644))

	rt := NewRuntime(2, &stubBackend{}, 16, 16)
	go rt.Start()

	mgr := jobs.NewManager()
	wj := mgr.Enqueue(jobs.JobRequest{Kind: jobs.Copy, Sources: []string{filepath.Join(srcDir, "a.txt")}, DestinationDir: dstDir, Overwrite: jobs.Overwrite})

	rt.Inbound() <- Command{Kind: CmdRun, Job: wj}
	events := drainEvents(t, rt, wj.ID)

	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, jobs.EventStarted, events[0].Kind)
	last := events[len(events)-1]
	assert.Equal(t, jobs.EventFinished, last.Kind)
	assert.Nil(t, last.Err)
	require.NotNil(t, last.Progress)
	assert.Equal(t, last.Progress.ItemsTotal, last.Progress.ItemsDone)
	assert.Equal(t, last.Progress.BytesTotal, last.Progress.BytesDone)

	var prevItems, prevBytes int64
	finishedCount := 0
	for _, ev := range events {
		if ev.Kind == jobs.EventFinished {
			finishedCount++
		}
		if ev.Progress != nil {
			assert.GreaterOrEqual(t, ev.Progress.ItemsDone, prevItems)
			assert.GreaterOrEqual(t, ev.Progress.BytesDone, prevBytes)
			prevItems, prevBytes = ev.Progress.ItemsDone, ev.Progress.BytesDone
		}
	}
	assert.Equal(t, 1, finishedCount)

	rt.Inbound() <- Command{Kind: CmdShutdown}
}

// Scenario C: queued cancel results in Finished(Err(Canceled)) and no file
// created under destination.
func TestRuntimeQueuedCancel(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	big := make([]byte, 2*1024*1024)
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "big.bin"), big, 0o644))

	rt := NewRuntime(1, &stubBackend{}, 16, 16)
	go rt.Start()

	mgr := jobs.NewManager()
	wj := mgr.Enqueue(jobs.JobRequest{Kind: jobs.Copy, Sources: []string{filepath.Join(srcDir, "big.bin")}, DestinationDir: dstDir, Overwrite: jobs.Overwrite})

	require.True(t, mgr.RequestCancel(wj.ID))
	rt.Inbound() <- Command{Kind: CmdCancel, CancelID: wj.ID}
	rt.Inbound() <- Command{Kind: CmdRun, Job: wj}

	events := drainEvents(t, rt, wj.ID)
	last := events[len(events)-1]
	assert.Equal(t, jobs.EventFinished, last.Kind)
	require.NotNil(t, last.Err)
	assert.True(t, last.Err.IsCanceled())

	_, statErr := os.Stat(filepath.Join(dstDir, "big.bin"))
	assert.True(t, os.IsNotExist(statErr), "no file should be created under destination")

	rt.Inbound() <- Command{Kind: CmdShutdown}
}

func TestRuntimeCancelWhileRunningFlipsSharedFlag(t *testing.T) {
	f := cancel.NewFlag()
	assert.False(t, f.IsSet())
	wj := &jobs.WorkerJob{ID: 42, CancelFlag: f, Request: jobs.JobRequest{Kind: jobs.Mkdir, Path: t.TempDir() + "/x"}}

	rt := NewRuntime(1, &stubBackend{}, 4, 4)
	rt.mu.Lock()
	rt.activeFlags[wj.ID] = wj.CancelFlag
	rt.mu.Unlock()

	rt.handleCancel(wj.ID)
	assert.True(t, f.IsSet())
}

func TestRuntimePersistSettings(t *testing.T) {
	backend := &stubBackend{}
	rt := NewRuntime(1, backend, 8, 8)
	go rt.Start()

	mgr := jobs.NewManager()
	wj := mgr.Enqueue(jobs.JobRequest{Kind: jobs.PersistSettings, SettingsSnapshot: []byte("snap-v1")})
	rt.Inbound() <- Command{Kind: CmdRun, Job: wj}

	events := drainEvents(t, rt, wj.ID)
	last := events[len(events)-1]
	assert.Equal(t, jobs.EventFinished, last.Kind)
	assert.Nil(t, last.Err)
	require.Len(t, backend.persisted, 1)
	assert.Equal(t, "snap-v1", string(backend.persisted[0]))

	rt.Inbound() <- Command{Kind: CmdShutdown}
}
