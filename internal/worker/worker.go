// Package worker implements the Worker runtime (component D): a bounded
// pool of W slots executing mutating jobs (Copy/Move/Delete/Mkdir/Rename/
// PersistSettings), emitting JobEvents back to the state machine.
//
// Architecture adapted from ChuLiYu-raft-recovery's internal/worker.Pool
// (bounded goroutine pool over buffered channels, WaitGroup shutdown),
// restructured around a permit semaphore per spec §5's "bounded permit
// semaphore" model and §4.D's FIFO-per-slot dispatch contract.
package worker

import (
	"sync"

	"twinfm/internal/apperr"
	"twinfm/internal/cancel"
	"twinfm/internal/fsops"
	"twinfm/internal/jobs"
)

// DefaultSlots is W, the default worker pool size.
const DefaultSlots = 2

// CommandKind distinguishes the three WorkerCommand variants.
type CommandKind int

const (
	CmdRun CommandKind = iota
	CmdCancel
	CmdShutdown
)

// Command is what the bridge submits to the runtime's inbound queue.
type Command struct {
	Kind     CommandKind
	Job      *jobs.WorkerJob // CmdRun
	CancelID jobs.JobId      // CmdCancel
}

// FsBackend is the injected interface for the three operations spec §4.D
// calls out for test stubbing: create_dir, rename, persist_settings. The
// default implementation performs real filesystem I/O.
type FsBackend interface {
	CreateDir(path string) error
	Rename(oldPath, newPath string) error
	PersistSettings(snapshot []byte) error
}

// RealFsBackend is the production FsBackend.
type RealFsBackend struct {
	// SettingsPath is where PersistSettings writes its snapshot.
	SettingsPath string
}

func (b RealFsBackend) CreateDir(path string) error           { return fsops.Mkdir(path) }
func (b RealFsBackend) Rename(oldPath, newPath string) error  { return fsops.RenamePath(oldPath, newPath) }
func (b RealFsBackend) PersistSettings(snapshot []byte) error {
	return fsops.AtomicWriteFile(b.SettingsPath, snapshot, 0o644)
}

// Runtime is the worker pool. Construct with NewRuntime and drive with
// Start; submit work through Inbound(), consume events through Outbound().
type Runtime struct {
	slots   chan struct{}
	inbound chan Command
	outbox  chan jobs.JobEvent
	backend FsBackend

	mu            sync.Mutex
	pendingCancel map[jobs.JobId]bool
	activeFlags   map[jobs.JobId]*cancel.Flag

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRuntime builds a Runtime with W slots and the given FsBackend.
// inboundCap/outboundCap size the command/event channels (spec's default
// dispatch queue capacity is 256).
func NewRuntime(slots int, backend FsBackend, inboundCap, outboundCap int) *Runtime {
	if slots <= 0 {
		slots = DefaultSlots
	}
	return &Runtime{
		slots:         make(chan struct{}, slots),
		inbound:       make(chan Command, inboundCap),
		outbox:        make(chan jobs.JobEvent, outboundCap),
		backend:       backend,
		pendingCancel: make(map[jobs.JobId]bool),
		activeFlags:   make(map[jobs.JobId]*cancel.Flag),
	}
}

// Inbound returns the channel the bridge try-sends Commands into.
func (r *Runtime) Inbound() chan<- Command { return r.inbound }

// Outbound returns the channel the bridge try-receives JobEvents from.
func (r *Runtime) Outbound() <-chan jobs.JobEvent { return r.outbox }

// Start runs the dispatch loop until a CmdShutdown is processed. Call in
// its own goroutine.
func (r *Runtime) Start() {
	for cmd := range r.inbound {
		switch cmd.Kind {
		case CmdShutdown:
			r.wg.Wait()
			close(r.outbox)
			return
		case CmdCancel:
			r.handleCancel(cmd.CancelID)
		case CmdRun:
			r.dispatchRun(cmd.Job)
		}
	}
}

func (r *Runtime) handleCancel(id jobs.JobId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if flag, ok := r.activeFlags[id]; ok {
		flag.Set()
		return
	}
	r.pendingCancel[id] = true
}

// dispatchRun acquires a permit (blocking the dispatch loop — this is what
// gives FIFO-per-slot ordering: a Run cannot start until a slot frees) then
// spawns the job body on its own goroutine.
func (r *Runtime) dispatchRun(job *jobs.WorkerJob) {
	r.mu.Lock()
	if r.pendingCancel[job.ID] {
		job.CancelFlag.Set()
		delete(r.pendingCancel, job.ID)
	}
	r.activeFlags[job.ID] = job.CancelFlag
	r.mu.Unlock()

	r.slots <- struct{}{}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { <-r.slots }()
		defer func() {
			r.mu.Lock()
			delete(r.activeFlags, job.ID)
			r.mu.Unlock()
		}()
		r.runJob(job)
	}()
}

func (r *Runtime) emit(ev jobs.JobEvent) {
	r.outbox <- ev
}

// runJob implements the per-job contract of §4.D steps 1-5.
func (r *Runtime) runJob(job *jobs.WorkerJob) {
	r.emit(jobs.JobEvent{ID: job.ID, Kind: jobs.EventStarted})

	if err := job.CancelFlag.Check(); err != nil {
		r.emit(finishErr(job.ID, toJobError(err)))
		return
	}

	totalItems, totalBytes, err := measureTotals(job.Request, job.CancelFlag)
	if err != nil {
		r.emit(finishErr(job.ID, toJobError(err)))
		return
	}

	tracker := newProgressTracker(job.ID, totalItems, totalBytes, r.emit)
	tracker.emitSnapshot()

	var runErr error
	switch job.Request.Kind {
	case jobs.Copy:
		runErr = fsops.Copy(job.Request.Sources, job.Request.DestinationDir, job.Request.Overwrite, job.CancelFlag, tracker)
	case jobs.Move:
		runErr = fsops.Move(job.Request.Sources, job.Request.DestinationDir, job.Request.Overwrite, job.CancelFlag, tracker)
	case jobs.Delete:
		runErr = fsops.Delete(job.Request.Targets, job.CancelFlag, tracker)
	case jobs.Mkdir:
		tracker.SetCurrentPath(job.Request.Path)
		runErr = r.backend.CreateDir(job.Request.Path)
		if runErr == nil {
			tracker.CompleteItem()
		}
	case jobs.Rename:
		tracker.SetCurrentPath(job.Request.Path)
		runErr = r.backend.Rename(job.Request.Path, job.Request.NewPath)
		if runErr == nil {
			tracker.CompleteItem()
		}
	case jobs.PersistSettings:
		runErr = r.backend.PersistSettings(job.Request.SettingsSnapshot)
		if runErr == nil {
			tracker.AdvanceBytes(int64(len(job.Request.SettingsSnapshot)))
			tracker.CompleteItem()
		}
	default:
		runErr = apperr.NewJobError(apperr.CodeInvalidInput, "not a worker job kind")
	}

	if runErr != nil {
		r.emit(finishErr(job.ID, toJobError(runErr)))
		return
	}

	tracker.markDone()
	r.emit(jobs.JobEvent{ID: job.ID, Kind: jobs.EventFinished, Progress: tracker.snapshot(), Err: nil})
}

func measureTotals(req jobs.JobRequest, cf *cancel.Flag) (items, bytes int64, err error) {
	switch req.Kind {
	case jobs.Copy, jobs.Move:
		return fsops.Measure(req.Sources, cf)
	case jobs.Delete:
		return fsops.Measure(req.Targets, cf)
	case jobs.PersistSettings:
		return 1, int64(len(req.SettingsSnapshot)), nil
	default: // Mkdir, Rename
		return 1, 0, nil
	}
}

func toJobError(err error) *apperr.JobError {
	if je, ok := err.(*apperr.JobError); ok {
		return je
	}
	return apperr.FromIOError(err)
}

func finishErr(id jobs.JobId, je *apperr.JobError) jobs.JobEvent {
	return jobs.JobEvent{ID: id, Kind: jobs.EventFinished, Err: je}
}
