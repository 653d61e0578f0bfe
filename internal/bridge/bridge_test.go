package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twinfm/internal/apperr"
	"twinfm/internal/background"
	"twinfm/internal/cancel"
	"twinfm/internal/jobs"
	"twinfm/internal/worker"
)

type nopBackend struct{}

func (nopBackend) CreateDir(string) error           { return nil }
func (nopBackend) Rename(string, string) error      { return nil }
func (nopBackend) PersistSettings([]byte) error     { return nil }

func TestDrainOutboundDeliversWithinCapacity(t *testing.T) {
	wrt := worker.NewRuntime(1, nopBackend{}, 4, 4)
	brt := background.NewRuntime(1, 1, 4, 4)
	go wrt.Start()
	go brt.Start()
	defer func() {
		wrt.Inbound() <- worker.Command{Kind: worker.CmdShutdown}
		brt.Inbound() <- background.Command{Kind: background.CmdShutdown}
	}()

	b := New(wrt, brt)
	job := &jobs.WorkerJob{ID: 1, Request: jobs.JobRequest{Kind: jobs.Mkdir, Path: "/tmp/x"}, CancelFlag: cancel.NewFlag()}
	remW, remB, fails := b.DrainOutbound([]worker.Command{{Kind: worker.CmdRun, Job: job}}, nil)
	assert.Empty(t, remW)
	assert.Empty(t, remB)
	assert.Empty(t, fails)
}

func TestDrainOutboundFullQueueRetriedNotFailed(t *testing.T) {
	wrt := worker.NewRuntime(1, nopBackend{}, 1, 4)
	brt := background.NewRuntime(1, 1, 4, 4)
	// Deliberately never Start() the worker runtime so its inbound buffer
	// (capacity 1) fills and the second try-send hits the full-queue path.
	go brt.Start()
	defer func() { brt.Inbound() <- background.Command{Kind: background.CmdShutdown} }()

	b := New(wrt, brt)
	job1 := &jobs.WorkerJob{ID: 1, Request: jobs.JobRequest{Kind: jobs.Mkdir, Path: "/a"}, CancelFlag: cancel.NewFlag()}
	job2 := &jobs.WorkerJob{ID: 2, Request: jobs.JobRequest{Kind: jobs.Mkdir, Path: "/b"}, CancelFlag: cancel.NewFlag()}

	remW, _, fails := b.DrainOutbound([]worker.Command{
		{Kind: worker.CmdRun, Job: job1},
		{Kind: worker.CmdRun, Job: job2},
	}, nil)

	require.Len(t, remW, 1, "second command must be left for retry, not dropped")
	assert.Equal(t, jobs.JobId(2), remW[0].Job.ID)
	assert.Empty(t, fails, "a full queue is not a dispatch failure")
}

func TestDrainOutboundClosedWorkerSynthesizesFinishedDispatchError(t *testing.T) {
	wrt := worker.NewRuntime(1, nopBackend{}, 1, 4)
	brt := background.NewRuntime(1, 1, 4, 4)
	go wrt.Start()
	go brt.Start()
	b := New(wrt, brt)
	b.Shutdown()
	// Give the runtimes a moment to actually process their Shutdown
	// commands and close their outbound channels.
	time.Sleep(10 * time.Millisecond)

	job := &jobs.WorkerJob{ID: 7, Request: jobs.JobRequest{Kind: jobs.Mkdir, Path: "/x"}, CancelFlag: cancel.NewFlag()}
	_, _, fails := b.DrainOutbound([]worker.Command{{Kind: worker.CmdRun, Job: job}}, nil)

	require.Len(t, fails, 1)
	require.NotNil(t, fails[0].WorkerEvent)
	assert.Equal(t, jobs.JobId(7), fails[0].WorkerEvent.ID)
	assert.Equal(t, jobs.EventFinished, fails[0].WorkerEvent.Kind)
	require.NotNil(t, fails[0].WorkerEvent.Err)
	assert.Equal(t, apperr.CodeDispatch, fails[0].WorkerEvent.Err.Code)
}

func TestDrainWorkerEventsReceivesAndReportsDisconnectOnce(t *testing.T) {
	wrt := worker.NewRuntime(1, nopBackend{}, 4, 4)
	brt := background.NewRuntime(1, 1, 4, 4)
	go wrt.Start()
	go brt.Start()
	b := New(wrt, brt)

	job := &jobs.WorkerJob{ID: 3, Request: jobs.JobRequest{Kind: jobs.Mkdir, Path: "/y"}, CancelFlag: cancel.NewFlag()}
	_, _, fails := b.DrainOutbound([]worker.Command{{Kind: worker.CmdRun, Job: job}}, nil)
	require.Empty(t, fails)

	var events []jobs.JobEvent
	require.Eventually(t, func() bool {
		evs, _ := b.DrainWorkerEvents()
		events = append(events, evs...)
		return len(events) >= 2
	}, time.Second, time.Millisecond)

	b.Shutdown()

	var status string
	require.Eventually(t, func() bool {
		_, s := b.DrainWorkerEvents()
		if s != "" {
			status = s
		}
		return status != ""
	}, time.Second, time.Millisecond)
	assert.Equal(t, "worker channel disconnected", status)

	_, status = b.DrainWorkerEvents()
	assert.Empty(t, status, "disconnect status must be reported only once")
}
