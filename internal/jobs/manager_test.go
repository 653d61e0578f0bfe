package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twinfm/internal/apperr"
)

func TestEnqueueAllocatesIncreasingIDs(t *testing.T) {
	m := NewManager()
	j1 := m.Enqueue(JobRequest{Kind: Mkdir, Path: "/a"})
	j2 := m.Enqueue(JobRequest{Kind: Mkdir, Path: "/b"})
	assert.Equal(t, JobId(1), j1.ID)
	assert.Equal(t, JobId(2), j2.ID)

	rec, ok := m.Get(j1.ID)
	require.True(t, ok)
	assert.Equal(t, Queued, rec.Status)
}

func TestHandleEventLifecycle(t *testing.T) {
	m := NewManager()
	wj := m.Enqueue(JobRequest{Kind: Copy, Sources: []string{"a"}, DestinationDir: "b"})

	m.HandleEvent(JobEvent{ID: wj.ID, Kind: EventStarted})
	rec, _ := m.Get(wj.ID)
	assert.Equal(t, Running, rec.Status)

	m.HandleEvent(JobEvent{ID: wj.ID, Kind: EventProgress, Progress: &JobProgress{ItemsTotal: 10, ItemsDone: 5, BytesTotal: 100, BytesDone: 50}})
	rec, _ = m.Get(wj.ID)
	assert.Equal(t, int64(5), rec.Progress.ItemsDone)

	m.HandleEvent(JobEvent{ID: wj.ID, Kind: EventFinished})
	rec, _ = m.Get(wj.ID)
	assert.Equal(t, Succeeded, rec.Status)
	assert.Equal(t, rec.Progress.ItemsTotal, rec.Progress.ItemsDone)
	assert.Equal(t, rec.Progress.BytesTotal, rec.Progress.BytesDone)
	assert.Empty(t, rec.Progress.CurrentPath)
}

func TestHandleEventFinishedCanceledVsFailed(t *testing.T) {
	m := NewManager()
	wj1 := m.Enqueue(JobRequest{Kind: Delete})
	m.HandleEvent(JobEvent{ID: wj1.ID, Kind: EventStarted})
	m.HandleEvent(JobEvent{ID: wj1.ID, Kind: EventFinished, Err: apperr.Canceled()})
	rec1, _ := m.Get(wj1.ID)
	assert.Equal(t, Canceled, rec1.Status)

	wj2 := m.Enqueue(JobRequest{Kind: Delete})
	m.HandleEvent(JobEvent{ID: wj2.ID, Kind: EventStarted})
	m.HandleEvent(JobEvent{ID: wj2.ID, Kind: EventFinished, Err: apperr.NewJobError(apperr.CodeOther, "boom")})
	rec2, _ := m.Get(wj2.ID)
	assert.Equal(t, Failed, rec2.Status)
	assert.Equal(t, "boom", rec2.LastError.Message)
}

func TestRequestCancelOnlyQueuedOrRunning(t *testing.T) {
	m := NewManager()
	wj := m.Enqueue(JobRequest{Kind: Mkdir})
	assert.True(t, m.RequestCancel(wj.ID))

	m.HandleEvent(JobEvent{ID: wj.ID, Kind: EventStarted})
	m.HandleEvent(JobEvent{ID: wj.ID, Kind: EventFinished, Err: apperr.Canceled()})
	assert.False(t, m.RequestCancel(wj.ID))
	assert.False(t, m.RequestCancel(JobId(999)))
}

func TestNewestCancelableJobPrefersRunningOverQueued(t *testing.T) {
	m := NewManager()
	older := m.Enqueue(JobRequest{Kind: Mkdir})
	newer := m.Enqueue(JobRequest{Kind: Mkdir})
	m.HandleEvent(JobEvent{ID: older.ID, Kind: EventStarted})

	id, ok := m.NewestCancelableJobID()
	require.True(t, ok)
	assert.Equal(t, older.ID, id, "Running should win over a more-recently-queued job")
	_ = newer
}

func TestNewestCancelableFallsBackToQueued(t *testing.T) {
	m := NewManager()
	m.Enqueue(JobRequest{Kind: Mkdir})
	j2 := m.Enqueue(JobRequest{Kind: Mkdir})

	id, ok := m.NewestCancelableJobID()
	require.True(t, ok)
	assert.Equal(t, j2.ID, id)
}

func TestCancelAllExceptPersistSettings(t *testing.T) {
	m := NewManager()
	persist := m.Enqueue(JobRequest{Kind: PersistSettings})
	copyJob := m.Enqueue(JobRequest{Kind: Copy})

	flipped := m.CancelAllExceptPersistSettings()
	assert.Equal(t, []JobId{copyJob.ID}, flipped)

	recPersist, _ := m.Get(persist.ID)
	assert.Equal(t, Queued, recPersist.Status, "PersistSettings must not be auto-canceled")
}

func TestStatusCounts(t *testing.T) {
	m := NewManager()
	m.Enqueue(JobRequest{Kind: Mkdir})
	wj := m.Enqueue(JobRequest{Kind: Mkdir})
	m.HandleEvent(JobEvent{ID: wj.ID, Kind: EventStarted})

	counts := m.StatusCounts()
	assert.Equal(t, 1, counts[Queued])
	assert.Equal(t, 1, counts[Running])
}

func TestProgressPercent(t *testing.T) {
	p := JobProgress{ItemsTotal: 0, BytesTotal: 0}
	assert.Equal(t, 0, p.Percent())

	p = JobProgress{ItemsTotal: 10, ItemsDone: 5, BytesTotal: 100, BytesDone: 90}
	assert.Equal(t, 90, p.Percent())

	p = JobProgress{ItemsTotal: 10, ItemsDone: 10, BytesTotal: 100, BytesDone: 100}
	assert.Equal(t, 100, p.Percent())
}
