package background

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twinfm/internal/cancel"
	"twinfm/internal/jobs"
)

func drain(t *testing.T, rt *Runtime, jobID jobs.JobId, stopAt EventKind) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-rt.Outbound():
			if !ok {
				return got
			}
			if ev.JobID != jobID {
				continue
			}
			got = append(got, ev)
			if ev.Kind == stopAt {
				return got
			}
		case <-timeout:
			t.Fatal("timed out waiting for background events")
		}
	}
}

// Scenario E: find streams and caps.
func TestFindStreamsAndCaps(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 200; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%03d.log", i)), []byte("x"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("x"), 0o644))

	rt := NewRuntime(2, 1, 8, 512)
	go rt.Start()

	cmd := Command{Kind: CmdFind, JobID: 1, CancelFlag: cancel.NewFlag(), PauseFlag: cancel.NewPauseFlag(), Query: "*.log", BaseDir: dir, MaxResults: 64}
	rt.Inbound() <- cmd

	events := drain(t, rt, 1, EvtFindFinished)

	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, EvtFindStarted, events[0].Kind)
	last := events[len(events)-1]
	assert.Equal(t, EvtFindFinished, last.Kind)
	assert.Nil(t, last.Err)

	total := 0
	for _, ev := range events {
		if ev.Kind == EvtFindChunk {
			total += len(ev.FindEntries)
		}
	}
	assert.Equal(t, 64, total)

	rt.Inbound() <- Command{Kind: CmdShutdown}
}

func TestFindSubstringMatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Report.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	rt := NewRuntime(1, 1, 8, 64)
	go rt.Start()

	cmd := Command{Kind: CmdFind, JobID: 7, CancelFlag: cancel.NewFlag(), PauseFlag: cancel.NewPauseFlag(), Query: "report", BaseDir: dir, MaxResults: 10}
	rt.Inbound() <- cmd

	events := drain(t, rt, 7, EvtFindFinished)
	var names []string
	for _, ev := range events {
		for _, e := range ev.FindEntries {
			names = append(names, e.Name)
		}
	}
	assert.Equal(t, []string{"Report.txt"}, names)

	rt.Inbound() <- Command{Kind: CmdShutdown}
}

func TestFindCancellation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		sub := filepath.Join(dir, fmt.Sprintf("d%02d", i))
		require.NoError(t, os.Mkdir(sub, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(sub, "f.log"), []byte("x"), 0o644))
	}

	rt := NewRuntime(1, 1, 8, 64)
	go rt.Start()

	cf := cancel.NewFlag()
	cf.Set()
	cmd := Command{Kind: CmdFind, JobID: 3, CancelFlag: cf, PauseFlag: cancel.NewPauseFlag(), Query: "*.log", BaseDir: dir, MaxResults: 1000}
	rt.Inbound() <- cmd

	events := drain(t, rt, 3, EvtFindFinished)
	last := events[len(events)-1]
	require.NotNil(t, last.Err)
	assert.True(t, last.Err.IsCanceled())

	rt.Inbound() <- Command{Kind: CmdShutdown}
}

func TestRefreshPanelDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	rt := NewRuntime(1, 1, 8, 64)
	go rt.Start()

	cmd := Command{
		Kind: CmdRefreshPanel, JobID: 9, CancelFlag: cancel.NewFlag(),
		Panel: jobs.PanelLeft, Cwd: dir, Source: jobs.PanelListingSource{Kind: jobs.SourceDirectory}, RequestID: 5,
	}
	rt.Inbound() <- cmd

	events := drain(t, rt, 9, EvtPanelRefreshed)
	last := events[len(events)-1]
	assert.Nil(t, last.Err)
	assert.Equal(t, uint64(5), last.RequestID)

	var names []string
	for _, e := range last.Entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "a.txt")

	rt.Inbound() <- Command{Kind: CmdShutdown}
}

func TestBuildTreeRespectsMaxDepthAndEntries(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.txt"), []byte("x"), 0o644))

	rt := NewRuntime(1, 1, 8, 64)
	go rt.Start()

	cmd := Command{Kind: CmdBuildTree, JobID: 11, CancelFlag: cancel.NewFlag(), TreeRoot: root, MaxDepth: 1, MaxEntries: 100}
	rt.Inbound() <- cmd

	events := drain(t, rt, 11, EvtTreeReady)
	last := events[len(events)-1]
	require.NotNil(t, last.Tree)
	require.Len(t, last.Tree.Children, 1)
	assert.Empty(t, last.Tree.Children[0].Children, "depth 1 should not descend into grandchildren")

	rt.Inbound() <- Command{Kind: CmdShutdown}
}

func TestLoadViewerTruncatesLargeFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, viewerMaxBytes+10), 0o644))

	rt := NewRuntime(1, 1, 8, 64)
	go rt.Start()

	cmd := Command{Kind: CmdLoadViewer, JobID: 13, CancelFlag: cancel.NewFlag(), ViewerPath: path}
	rt.Inbound() <- cmd

	events := drain(t, rt, 13, EvtViewerLoaded)
	last := events[len(events)-1]
	assert.True(t, last.Truncated)
	assert.Len(t, last.ViewerContent, viewerMaxBytes)

	rt.Inbound() <- Command{Kind: CmdShutdown}
}
