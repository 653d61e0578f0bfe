package apperr

import "fmt"

// ErrorType classifies non-job errors: the ones raised by settings I/O,
// the panel watcher, and keymap loading rather than by a worker/background
// task. Generalized from the teacher's internal/errors.ErrorType, dropping
// the UI/Theme variants that had no terminal analogue and adding Keymap.
type ErrorType int

const (
	Settings ErrorType = iota
	Watcher
	Keymap
)

func (t ErrorType) String() string {
	switch t {
	case Settings:
		return "Settings"
	case Watcher:
		return "Watcher"
	case Keymap:
		return "Keymap"
	default:
		return "Unknown"
	}
}

// AppError is a typed, wrapped error for the ambient (non-job) failure
// paths: settings load/save, watcher setup, keymap file parsing.
type AppError struct {
	Type      ErrorType
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s): %s", e.Type, e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewSettingsError(operation, path, message string, err error) *AppError {
	return &AppError{Type: Settings, Operation: operation, Path: path, Message: message, Err: err}
}

func NewWatcherError(operation, path, message string, err error) *AppError {
	return &AppError{Type: Watcher, Operation: operation, Path: path, Message: message, Err: err}
}

func NewKeymapError(operation, path, message string, err error) *AppError {
	return &AppError{Type: Keymap, Operation: operation, Path: path, Message: message, Err: err}
}
