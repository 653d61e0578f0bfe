package worker

import (
	"sync"

	"twinfm/internal/jobs"
)

// progressTracker implements fsops.ProgressSink, accumulating a
// JobProgress snapshot and emitting a Progress JobEvent on every
// SetCurrentPath, AdvanceBytes and CompleteItem call. It has no
// totals-advance callback: totals are fixed when the tracker is created.
type progressTracker struct {
	id   jobs.JobId
	emit func(jobs.JobEvent)

	mu  sync.Mutex
	cur jobs.JobProgress
}

func newProgressTracker(id jobs.JobId, itemsTotal, bytesTotal int64, emit func(jobs.JobEvent)) *progressTracker {
	return &progressTracker{
		id:   id,
		emit: emit,
		cur:  jobs.JobProgress{ItemsTotal: itemsTotal, BytesTotal: bytesTotal},
	}
}

func (t *progressTracker) emitSnapshot() {
	t.emit(jobs.JobEvent{ID: t.id, Kind: jobs.EventProgress, Progress: t.snapshot()})
}

func (t *progressTracker) snapshot() *jobs.JobProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := t.cur
	return &cp
}

func (t *progressTracker) SetCurrentPath(path string) {
	t.mu.Lock()
	t.cur.CurrentPath = path
	t.mu.Unlock()
	t.emitSnapshot()
}

func (t *progressTracker) AdvanceBytes(n int64) {
	t.mu.Lock()
	t.cur.BytesDone = saturatingAdd(t.cur.BytesDone, n, t.cur.BytesTotal)
	t.mu.Unlock()
	t.emitSnapshot()
}

func (t *progressTracker) CompleteItem() {
	t.mu.Lock()
	t.cur.ItemsDone = saturatingAdd(t.cur.ItemsDone, 1, t.cur.ItemsTotal)
	t.mu.Unlock()
	t.emitSnapshot()
}

func (t *progressTracker) markDone() {
	t.mu.Lock()
	t.cur.ItemsDone = t.cur.ItemsTotal
	t.cur.BytesDone = t.cur.BytesTotal
	t.cur.CurrentPath = ""
	t.mu.Unlock()
}

// saturatingAdd enforces invariant 4: done never exceeds total and never
// decreases.
func saturatingAdd(done, delta, total int64) int64 {
	next := done + delta
	if next > total {
		return total
	}
	return next
}
