// Package cancel implements the cooperative cancellation and pause
// primitives shared by worker jobs and background tasks.
//
// There is no interruption here, only polling. A job body reads a Flag at
// well-defined checkpoints (before each top-level item, before each
// directory child, inside the copy buffer loop, before every find-stack
// push/pop) and converts the observation into the canonical canceled error.
package cancel

import (
	"errors"
	"sync/atomic"
	"time"
)

// Sentinel is the canonical message identifying a cancellation at every
// layer: worker, background task, and job manager error taxonomy all key
// off this exact string rather than a typed error, mirroring the wire-level
// sentinel the original implementation uses.
const Sentinel = "job canceled"

// Err is returned by any checkpoint that observes a set Flag.
var Err = &canceledError{}

type canceledError struct{}

func (*canceledError) Error() string { return Sentinel }

// IsCanceled reports whether err is (or wraps) the cancellation sentinel.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return err.Error() == Sentinel || errors.Is(err, Err)
}

// Flag is a shared atomic boolean polled cooperatively. Reads and writes use
// relaxed ordering semantics (a plain atomic load/store is sufficient per
// spec: writer is the state machine or the user, reader is the task owner).
type Flag struct {
	set atomic.Bool
}

// NewFlag returns a cleared Flag.
func NewFlag() *Flag { return &Flag{} }

// Set requests cancellation. Idempotent.
func (f *Flag) Set() { f.set.Store(true) }

// IsSet reports whether cancellation has been requested.
func (f *Flag) IsSet() bool { return f.set.Load() }

// Check returns Err if the flag is set, otherwise nil. Call at every
// checkpoint named in §4.A.
func (f *Flag) Check() error {
	if f.set.Load() {
		return Err
	}
	return nil
}

// PauseFlag additionally gates a task in a sleep loop while set, used only
// by the find task. Poll interval matches the spec's 25ms.
type PauseFlag struct {
	set atomic.Bool
}

// NewPauseFlag returns a cleared PauseFlag.
func NewPauseFlag() *PauseFlag { return &PauseFlag{} }

// Set sets the pause state to v.
func (p *PauseFlag) Set(v bool) { p.set.Store(v) }

// IsSet reports the current pause state.
func (p *PauseFlag) IsSet() bool { return p.set.Load() }

const pausePoll = 25 * time.Millisecond

// WaitWhilePaused blocks in pausePoll increments while p is set, rechecking
// cancel on every wake. Returns Err immediately if cancel fires, including
// while paused.
func WaitWhilePaused(cancel *Flag, pause *PauseFlag) error {
	for pause != nil && pause.IsSet() {
		if err := cancel.Check(); err != nil {
			return err
		}
		time.Sleep(pausePoll)
	}
	return cancel.Check()
}
