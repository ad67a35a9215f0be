package session

import "errors"

var (
	// ErrNotStarted is returned when input is sent to a session that has no
	// running process.
	ErrNotStarted = errors.New("session: shell not started")

	// ErrAlreadyStarted is returned by Start while the previous process is
	// still running.
	ErrAlreadyStarted = errors.New("session: shell already started")

	// ErrProcessExited is returned by SendAndAwaitOutput when the process
	// ends before producing any output.
	ErrProcessExited = errors.New("session: shell exited")

	// ErrInvalidSize is returned by Resize for dimensions a terminal cannot
	// represent.
	ErrInvalidSize = errors.New("session: invalid terminal size")
)

// StderrError carries the stderr chunk that settled a SendAndAwaitOutput call.
type StderrError struct {
	Data []byte
}

func (e *StderrError) Error() string {
	return string(e.Data)
}
