package jobs

import (
	"sync"

	"twinfm/internal/apperr"
	"twinfm/internal/cancel"
)

// Manager tracks JobRecords for the process lifetime and allocates
// cancel flags. It does not execute anything; internal/worker and
// internal/background consume the WorkerJob it hands back and report
// results through HandleEvent. Owned exclusively by the state machine, per
// spec §9 ("do not share the Job Manager across threads").
type Manager struct {
	mu      sync.Mutex
	nextID  JobId
	records map[JobId]*JobRecord
	flags   map[JobId]*cancel.Flag
	order   []JobId // insertion order, for status_counts()/iteration stability
}

// NewManager returns an empty Manager with JobId allocation starting at 1.
func NewManager() *Manager {
	return &Manager{
		records: make(map[JobId]*JobRecord),
		flags:   make(map[JobId]*cancel.Flag),
	}
}

// Enqueue allocates a new JobId, records it Queued, and returns an
// executable WorkerJob. Each call creates a distinct job — there is no
// idempotence here; coalescing (PersistSettings) is the state machine's
// responsibility, not the Manager's.
func (m *Manager) Enqueue(req JobRequest) *WorkerJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID

	flag := cancel.NewFlag()
	m.flags[id] = flag
	m.records[id] = &JobRecord{ID: id, Kind: req.Kind, Summary: req.Summary(), Status: Queued}
	m.order = append(m.order, id)

	wj := &WorkerJob{ID: id, Request: req, CancelFlag: flag}
	if req.Kind == Find {
		wj.FindPauseFlag = cancel.NewPauseFlag()
	}
	return wj
}

// JobEventKind distinguishes the three event shapes a worker/background
// task reports back.
type JobEventKind int

const (
	EventStarted JobEventKind = iota
	EventProgress
	EventFinished
)

// JobEvent is what Worker/Background runtimes emit; Manager.HandleEvent
// drives the JobRecord state machine from it.
type JobEvent struct {
	ID       JobId
	Kind     JobEventKind
	Progress *JobProgress     // EventProgress, and EventFinished on success
	Err      *apperr.JobError // EventFinished only; nil means success
}

// HandleEvent applies Started/Progress/Finished transitions per §4.C. On
// Finished, the cancel flag is dropped (invariant 1: cancel_flag exists iff
// status is Queued or Running).
func (m *Manager) HandleEvent(ev JobEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[ev.ID]
	if !ok {
		return
	}

	switch ev.Kind {
	case EventStarted:
		rec.Status = Running
		rec.LastError = nil
	case EventProgress:
		rec.Progress = ev.Progress
	case EventFinished:
		delete(m.flags, ev.ID)
		if ev.Err == nil {
			rec.Status = Succeeded
			if rec.Progress == nil {
				rec.Progress = &JobProgress{}
			}
			rec.Progress.ItemsDone = rec.Progress.ItemsTotal
			rec.Progress.BytesDone = rec.Progress.BytesTotal
			rec.Progress.CurrentPath = ""
		} else if ev.Err.IsCanceled() {
			rec.Status = Canceled
			rec.LastError = ev.Err
		} else {
			rec.Status = Failed
			rec.LastError = ev.Err
		}
	}
}

// RequestCancel flips the shared flag for id if it is Queued or Running.
// Returns false if the job is unknown or already terminal.
func (m *Manager) RequestCancel(id JobId) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok || (rec.Status != Queued && rec.Status != Running) {
		return false
	}
	flag, ok := m.flags[id]
	if !ok {
		return false
	}
	flag.Set()
	return true
}

// NewestCancelableJobID returns the last Running job, or failing that the
// last Queued job, in insertion order. Per §9, Running is preferred over
// Queued — do not substitute FIFO cancel.
func (m *Manager) NewestCancelableJobID() (JobId, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.lastWithStatusLocked(Running); ok {
		return id, true
	}
	return m.lastWithStatusLocked(Queued)
}

func (m *Manager) lastWithStatusLocked(status JobStatus) (JobId, bool) {
	for i := len(m.order) - 1; i >= 0; i-- {
		id := m.order[i]
		if rec, ok := m.records[id]; ok && rec.Status == status {
			return id, true
		}
	}
	return 0, false
}

// StatusCounts returns the per-status histogram across all jobs ever
// created this session.
func (m *Manager) StatusCounts() map[JobStatus]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[JobStatus]int, 5)
	for _, id := range m.order {
		counts[m.records[id].Status]++
	}
	return counts
}

// Get returns a copy of the record for id.
func (m *Manager) Get(id JobId) (JobRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return JobRecord{}, false
	}
	return *rec, true
}

// All returns a snapshot of every JobRecord in creation order, for the
// Jobs screen.
func (m *Manager) All() []JobRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]JobRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.records[id])
	}
	return out
}

// CancelAllExceptPersistSettings requests cancellation of every Queued or
// Running job whose kind is not PersistSettings, per the bulk "cancel all"
// rule in §4.G. Returns the ids that were actually flipped.
func (m *Manager) CancelAllExceptPersistSettings() []JobId {
	m.mu.Lock()
	ids := make([]JobId, 0, len(m.order))
	for _, id := range m.order {
		rec := m.records[id]
		if rec.Kind == PersistSettings {
			continue
		}
		if rec.Status != Queued && rec.Status != Running {
			continue
		}
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var flipped []JobId
	for _, id := range ids {
		if m.RequestCancel(id) {
			flipped = append(flipped, id)
		}
	}
	return flipped
}
