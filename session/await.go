package session

import (
	"context"
	"sync"
)

type waitResult struct {
	data []byte
	err  error
}

// waiter is a one-shot subscription to the next stdout or stderr chunk.
type waiter struct {
	once   sync.Once
	result chan waitResult
}

func newWaiter() *waiter {
	return &waiter{result: make(chan waitResult, 1)}
}

func (w *waiter) settle(res waitResult) {
	w.once.Do(func() { w.result <- res })
}

// settleWaiters hands res to every armed waiter and disarms them. Callers
// hold s.mu.
func (s *Session) settleWaiters(res waitResult) {
	for w := range s.waiters {
		delete(s.waiters, w)
		w.settle(res)
	}
}

// SendAndAwaitOutput sends command and waits for the next chunk on either
// stream. A stdout chunk yields "<command>\n<chunk>"; a stderr chunk yields
// a *StderrError. The first chunk wins and the other stream is ignored.
// The chunk may belong to an earlier command if one is still producing
// output. ctx bounds the wait; there is no other timeout.
func (s *Session) SendAndAwaitOutput(ctx context.Context, command string) (string, error) {
	w := newWaiter()

	s.mu.Lock()
	if s.run == nil || s.run.finished {
		s.mu.Unlock()
		return "", ErrNotStarted
	}
	s.waiters[w] = struct{}{}
	s.mu.Unlock()

	if err := s.Send(command); err != nil {
		s.disarm(w)
		return "", err
	}

	select {
	case res := <-w.result:
		if res.err != nil {
			return "", res.err
		}
		return command + "\n" + string(res.data), nil
	case <-ctx.Done():
		s.disarm(w)
		return "", ctx.Err()
	}
}

func (s *Session) disarm(w *waiter) {
	s.mu.Lock()
	delete(s.waiters, w)
	s.mu.Unlock()
}
