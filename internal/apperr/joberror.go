// Package apperr defines the error taxonomy surfaced to users: the job
// error codes of spec §3/§7, and a small typed AppError for non-job
// failures (settings, watcher, keymap), generalized from the teacher's
// internal/errors package.
package apperr

import (
	"errors"
	"io/fs"
	"syscall"

	"twinfm/internal/cancel"
)

// JobErrorCode is the sole user-visible classification for job failures.
type JobErrorCode int

const (
	CodeCanceled JobErrorCode = iota
	CodePermissionDenied
	CodeAlreadyExists
	CodeNotFound
	CodeInvalidInput
	CodeInterrupted
	CodeUnsupported
	CodeDispatch
	CodeOther
)

func (c JobErrorCode) String() string {
	switch c {
	case CodeCanceled:
		return "Canceled"
	case CodePermissionDenied:
		return "PermissionDenied"
	case CodeAlreadyExists:
		return "AlreadyExists"
	case CodeNotFound:
		return "NotFound"
	case CodeInvalidInput:
		return "InvalidInput"
	case CodeInterrupted:
		return "Interrupted"
	case CodeUnsupported:
		return "Unsupported"
	case CodeDispatch:
		return "Dispatch"
	default:
		return "Other"
	}
}

// RetryHint tells the UI whether retrying the operation could help.
type RetryHint int

const (
	RetryNone RetryHint = iota
	RetryRetry
	RetryElevated
)

func (h RetryHint) String() string {
	switch h {
	case RetryRetry:
		return "Retry"
	case RetryElevated:
		return "Elevated"
	default:
		return "None"
	}
}

func retryHintFor(code JobErrorCode) RetryHint {
	switch code {
	case CodePermissionDenied:
		return RetryElevated
	case CodeAlreadyExists, CodeNotFound, CodeInvalidInput, CodeUnsupported, CodeCanceled:
		return RetryNone
	default:
		return RetryRetry
	}
}

// JobError is the error shape carried in Finished(Err(...)) events and
// rendered into JobRecord.last_error.
type JobError struct {
	Code      JobErrorCode
	Message   string
	RetryHint RetryHint
}

func (e *JobError) Error() string { return e.Message }

// IsCanceled reports whether the error represents a cancellation.
func (e *JobError) IsCanceled() bool { return e.Code == CodeCanceled }

// NewJobError builds a JobError, deriving retry_hint from code.
func NewJobError(code JobErrorCode, message string) *JobError {
	return &JobError{Code: code, Message: message, RetryHint: retryHintFor(code)}
}

// Canceled returns the canonical canceled JobError.
func Canceled() *JobError {
	return NewJobError(CodeCanceled, cancel.Sentinel)
}

// Dispatch builds the synthetic error used when a command could not be
// handed to a runtime (full queue, closed channel).
func Dispatch(message string) *JobError {
	return NewJobError(CodeDispatch, message)
}

// FromMessage classifies a plain string error, used for background tasks
// that carry Result<_, String> rather than a structured io error.
func FromMessage(message string) *JobError {
	if message == cancel.Sentinel {
		return Canceled()
	}
	return NewJobError(CodeOther, message)
}

// FromIOError classifies an I/O-layer error per §7's mapping. Cancellation
// is recognized first via the sentinel message, matching how the sentinel
// round-trips through a plain error at every layer.
func FromIOError(err error) *JobError {
	if err == nil {
		return nil
	}
	if cancel.IsCanceled(err) {
		return Canceled()
	}

	msg := err.Error()

	switch {
	case errors.Is(err, fs.ErrPermission):
		return NewJobError(CodePermissionDenied, msg)
	case errors.Is(err, fs.ErrExist):
		return NewJobError(CodeAlreadyExists, msg)
	case errors.Is(err, fs.ErrNotExist):
		return NewJobError(CodeNotFound, msg)
	case errors.Is(err, fs.ErrInvalid):
		return NewJobError(CodeInvalidInput, msg)
	case errors.Is(err, syscall.ENOTSUP), errors.Is(err, syscall.EOPNOTSUPP):
		return NewJobError(CodeUnsupported, msg)
	case errors.Is(err, syscall.EINTR):
		return NewJobError(CodeInterrupted, msg)
	default:
		return NewJobError(CodeOther, msg)
	}
}

// InvalidInput is a convenience constructor for the §4.B "destination
// inside source tree" / "move into itself" rejections.
func InvalidInput(message string) *JobError {
	return NewJobError(CodeInvalidInput, message)
}

// IsCrossDevice reports whether err is the cross-device-link error the
// move fallback must detect (kind EXDEV, or the numeric constant 18 as a
// portability hedge per §9).
func IsCrossDevice(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno) == 18
	}
	return false
}
