package session

import "io"

// Launcher turns a command line into a running process.
type Launcher interface {
	Launch(commandLine string) (Process, error)
}

// Process is a running child as seen by a Session.
type Process interface {
	// Write feeds the process's standard input.
	io.Writer

	Stdout() io.Reader
	// Stderr returns nil when the process has no separate error stream.
	Stderr() io.Reader

	// Terminate asks the process to exit. It does not wait.
	Terminate() error
	// Wait blocks until the process exits. It is called once, after both
	// output streams have been drained.
	Wait() error
}
