package session

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"
)

const waitTimeout = 5 * time.Second

// fakeProcess lets tests decide exactly when chunks appear on each stream.
type fakeProcess struct {
	outR, errR *io.PipeReader
	outW, errW *io.PipeWriter

	mu         sync.Mutex
	stdin      bytes.Buffer
	terminated bool
	waitErr    error
}

func newFakeProcess() *fakeProcess {
	p := &fakeProcess{}
	p.outR, p.outW = io.Pipe()
	p.errR, p.errW = io.Pipe()
	return p
}

func (p *fakeProcess) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminated {
		return 0, io.ErrClosedPipe
	}
	return p.stdin.Write(b)
}

func (p *fakeProcess) Stdout() io.Reader { return p.outR }
func (p *fakeProcess) Stderr() io.Reader { return p.errR }

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()
	p.exit()
	return nil
}

func (p *fakeProcess) Wait() error { return p.waitErr }

func (p *fakeProcess) exit() {
	p.outW.Close()
	p.errW.Close()
}

func (p *fakeProcess) input() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdin.String()
}

type fakeLauncher struct {
	proc     *fakeProcess
	err      error
	commands []string
}

func (l *fakeLauncher) Launch(commandLine string) (Process, error) {
	l.commands = append(l.commands, commandLine)
	if l.err != nil {
		return nil, l.err
	}
	return l.proc, nil
}

// recorder collects handler calls from the session goroutines.
type recorder struct {
	mu     sync.Mutex
	chunks [][]byte
	ends   int
}

func (r *recorder) handle(data []byte) {
	r.mu.Lock()
	r.chunks = append(r.chunks, data)
	r.mu.Unlock()
}

func (r *recorder) end() {
	r.mu.Lock()
	r.ends++
	r.mu.Unlock()
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(bytes.Join(r.chunks, nil))
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}

func (r *recorder) endCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ends
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("session did not finish in time")
	}
}
