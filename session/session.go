// Package session wraps one child shell process: it routes the process's
// stdout and stderr to handlers, reports when output ends and feeds further
// commands to its standard input.
package session

import (
	"fmt"
	"io"
	"math"
	"sync"

	"go.uber.org/zap"
)

const readBufferSize = 4096

// Session owns at most one running process at a time.
type Session struct {
	launcher Launcher
	logger   *zap.Logger

	mu       sync.Mutex
	run      *run
	onOutput Handler
	onError  Handler
	onEnd    func()
	waiters  map[*waiter]struct{}

	// serializes writes to stdin so commands arrive in call order
	writeMu sync.Mutex
}

type run struct {
	proc     Process
	done     chan struct{}
	finished bool
	err      error
}

// Option configures a Session.
type Option func(*Session)

// WithLauncher sets how command lines are started. The default is a
// LocalLauncher running /bin/sh.
func WithLauncher(l Launcher) Option {
	return func(s *Session) {
		if l != nil {
			s.launcher = l
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns an empty session with no-op handlers and no process.
func New(opts ...Option) *Session {
	s := &Session{
		launcher: &LocalLauncher{},
		logger:   zap.NewNop(),
		onOutput: noop,
		onError:  noop,
		onEnd:    noopEnd,
		waiters:  make(map[*waiter]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config describes a session started in one call by Create.
type Config struct {
	Cmd      string
	OnError  Handler
	OnOutput Handler
	OnEnd    func()
}

// Create builds a session, installs the handlers from cfg and starts cfg.Cmd.
func Create(cfg Config, opts ...Option) (*Session, error) {
	return New(opts...).
		SetEndHandler(cfg.OnEnd).
		SetErrorHandler(cfg.OnError).
		SetOutputHandler(cfg.OnOutput).
		Start(cfg.Cmd)
}

// Start launches commandLine. Stdout chunks go to the output handler, stderr
// chunks to the error handler, and the end handler runs once stdout is
// exhausted. A session may be started again after its process has exited.
func (s *Session) Start(commandLine string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil && !s.run.finished {
		return s, ErrAlreadyStarted
	}

	proc, err := s.launcher.Launch(commandLine)
	if err != nil {
		return s, fmt.Errorf("start %q: %w", commandLine, err)
	}

	r := &run{proc: proc, done: make(chan struct{})}
	s.run = r
	s.logger.Debug("shell started", zap.String("cmd", commandLine))

	go s.supervise(r)

	return s, nil
}

func (s *Session) supervise(r *run) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pump(r.proc.Stdout(), s.outputHandler)
		s.endHandler()()
	}()

	if stderr := r.proc.Stderr(); stderr != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.pump(stderr, s.errorHandler)
		}()
	}

	wg.Wait()
	err := r.proc.Wait()

	s.mu.Lock()
	r.finished = true
	r.err = err
	s.settleWaiters(waitResult{err: ErrProcessExited})
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("shell exited", zap.Error(err))
	} else {
		s.logger.Debug("shell exited")
	}
	close(r.done)
}

// pump reads r until it fails and hands every chunk to the handler chosen
// at the time the chunk arrived.
func (s *Session) pump(r io.Reader, dispatch func([]byte) Handler) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			dispatch(chunk)(chunk)
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) outputHandler(chunk []byte) Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleWaiters(waitResult{data: chunk})
	return s.onOutput
}

func (s *Session) errorHandler(chunk []byte) Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleWaiters(waitResult{err: &StderrError{Data: chunk}})
	return s.onError
}

func (s *Session) endHandler() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onEnd
}

// Send writes command followed by a newline to the process's stdin.
func (s *Session) Send(command string) error {
	s.mu.Lock()
	r := s.run
	s.mu.Unlock()

	if r == nil || s.finished(r) {
		return ErrNotStarted
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := io.WriteString(r.proc, command+"\n")
	return err
}

func (s *Session) finished(r *run) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.finished
}

// SetOutputHandler replaces the stdout handler. Nil installs a no-op.
func (s *Session) SetOutputHandler(h Handler) *Session {
	s.mu.Lock()
	s.onOutput = orNoop(h)
	s.mu.Unlock()
	return s
}

// SetErrorHandler replaces the stderr handler. Nil installs a no-op.
func (s *Session) SetErrorHandler(h Handler) *Session {
	s.mu.Lock()
	s.onError = orNoop(h)
	s.mu.Unlock()
	return s
}

// SetEndHandler replaces the handler run when stdout ends. Nil installs a
// no-op.
func (s *Session) SetEndHandler(h func()) *Session {
	s.mu.Lock()
	s.onEnd = orNoopEnd(h)
	s.mu.Unlock()
	return s
}

// SetListener installs all three handlers from l. Nil installs no-ops.
func (s *Session) SetListener(l Listener) *Session {
	if l == nil {
		l = NopListener{}
	}
	s.mu.Lock()
	s.onOutput = l.OnOutput
	s.onError = l.OnError
	s.onEnd = l.OnEnd
	s.mu.Unlock()
	return s
}

// Stop sends a termination signal to the running process. It is a no-op
// when nothing is running.
func (s *Session) Stop() error {
	s.mu.Lock()
	r := s.run
	if r == nil || r.finished {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Debug("stopping shell")
	return r.proc.Terminate()
}

// Resizer is implemented by processes attached to a terminal.
type Resizer interface {
	Resize(rows, cols int) error
}

// Resize changes the terminal size of the running process. Processes
// without a terminal ignore it. Both dimensions must be in 1..65535.
func (s *Session) Resize(rows, cols int) error {
	if !validSize(rows) || !validSize(cols) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, rows, cols)
	}

	s.mu.Lock()
	r := s.run
	s.mu.Unlock()

	if r == nil || s.finished(r) {
		return ErrNotStarted
	}
	if rz, ok := r.proc.(Resizer); ok {
		return rz.Resize(rows, cols)
	}
	return nil
}

func validSize(n int) bool {
	return n > 0 && n <= math.MaxUint16
}

// Running reports whether a process is currently attached.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil && !s.run.finished
}

// Done is closed once the current process has exited and its output has
// been delivered. It is closed already if the session was never started.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return closedChan
	}
	return s.run.done
}

// Err returns the exit error of the last process once Done is closed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil || !s.run.finished {
		return nil
	}
	return s.run.err
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()
