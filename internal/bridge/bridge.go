// Package bridge implements the Runtime bridge (component F): a
// non-blocking adapter between the single-threaded state machine and the
// worker/background runtimes. It owns no business logic, only the
// try-send/try-receive discipline and dispatch-failure synthesis of
// spec §4.F/§5.
package bridge

import (
	"twinfm/internal/apperr"
	"twinfm/internal/background"
	"twinfm/internal/jobs"
	"twinfm/internal/worker"
)

// DispatchFailure is what DrainOutbound reports for a command that could
// not be handed to a runtime because its channel was closed. Per §5, a
// full queue is not a failure — the command is simply left for the next
// tick's retry; only a closed channel is terminal.
type DispatchFailure struct {
	// WorkerEvent is set for a worker Run command: the state machine
	// should feed this straight into jobs.Manager.HandleEvent so the job
	// does not stay stuck Queued.
	WorkerEvent *jobs.JobEvent
	// StatusMessage is set for every other command kind.
	StatusMessage string
}

// Bridge wires one worker.Runtime and one background.Runtime to try-send
// outbound commands and try-receive inbound events.
type Bridge struct {
	workerRt *worker.Runtime
	bgRt     *background.Runtime

	workerClosed bool
	bgClosed     bool

	workerDisconnectReported bool
	bgDisconnectReported     bool
}

// New builds a Bridge over the given runtimes. Callers are expected to
// have already started each runtime's Start() loop in its own goroutine.
func New(w *worker.Runtime, b *background.Runtime) *Bridge {
	return &Bridge{workerRt: w, bgRt: b}
}

// DrainOutbound try-sends every pending command once. It returns the
// commands that did not fit (to be retried by the caller on the next
// tick) and any dispatch failures from a closed channel.
func (b *Bridge) DrainOutbound(pendingWorker []worker.Command, pendingBackground []background.Command) (remainingWorker []worker.Command, remainingBackground []background.Command, failures []DispatchFailure) {
	for _, cmd := range pendingWorker {
		if b.workerClosed {
			failures = append(failures, workerDispatchFailure(cmd))
			continue
		}
		select {
		case b.workerRt.Inbound() <- cmd:
		default:
			remainingWorker = append(remainingWorker, cmd)
		}
	}

	for _, cmd := range pendingBackground {
		if b.bgClosed {
			failures = append(failures, backgroundDispatchFailure(cmd))
			continue
		}
		select {
		case b.bgRt.Inbound() <- cmd:
		default:
			remainingBackground = append(remainingBackground, cmd)
		}
	}

	return remainingWorker, remainingBackground, failures
}

func workerDispatchFailure(cmd worker.Command) DispatchFailure {
	if cmd.Kind == worker.CmdRun {
		je := apperr.Dispatch("worker runtime unavailable")
		return DispatchFailure{WorkerEvent: &jobs.JobEvent{ID: cmd.Job.ID, Kind: jobs.EventFinished, Err: je}}
	}
	return DispatchFailure{StatusMessage: "could not dispatch worker command: channel disconnected"}
}

func backgroundDispatchFailure(background.Command) DispatchFailure {
	return DispatchFailure{StatusMessage: "could not dispatch background command: channel disconnected"}
}

// DrainWorkerEvents try-receives every currently-buffered JobEvent. On a
// closed channel it reports the one-shot disconnect status and stops
// trying to receive further (subsequent calls return nil immediately).
func (b *Bridge) DrainWorkerEvents() (events []jobs.JobEvent, disconnectStatus string) {
	if b.workerDisconnectReported {
		return nil, ""
	}
	for {
		select {
		case ev, ok := <-b.workerRt.Outbound():
			if !ok {
				b.workerClosed = true
				b.workerDisconnectReported = true
				return events, "worker channel disconnected"
			}
			events = append(events, ev)
		default:
			return events, ""
		}
	}
}

// DrainBackgroundEvents is DrainWorkerEvents' analogue for the background
// runtime.
func (b *Bridge) DrainBackgroundEvents() (events []background.Event, disconnectStatus string) {
	if b.bgDisconnectReported {
		return nil, ""
	}
	for {
		select {
		case ev, ok := <-b.bgRt.Outbound():
			if !ok {
				b.bgClosed = true
				b.bgDisconnectReported = true
				return events, "background channel disconnected"
			}
			events = append(events, ev)
		default:
			return events, ""
		}
	}
}

// Shutdown sends a Shutdown command to both runtimes. A subsequent
// DrainOutbound call will report any further Run commands as dispatch
// failures rather than racing a send against the runtime's own close of
// its outbound channel. Channel disconnect observed after this call is
// not an error, per spec §4.H failure semantics.
func (b *Bridge) Shutdown() {
	if !b.workerClosed {
		b.workerRt.Inbound() <- worker.Command{Kind: worker.CmdShutdown}
		b.workerClosed = true
	}
	if !b.bgClosed {
		b.bgRt.Inbound() <- background.Command{Kind: background.CmdShutdown}
		b.bgClosed = true
	}
}
