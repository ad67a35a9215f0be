package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPTYLauncher(t *testing.T) {
	out, errs := &recorder{}, &recorder{}
	s, err := New(WithLauncher(&PTYLauncher{})).
		SetOutputHandler(out.handle).
		SetErrorHandler(errs.handle).
		Start("echo tty; echo also >&2")
	if err != nil {
		t.Skipf("Skipping test: cannot start PTY: %v", err)
	}

	waitDone(t, s)

	// The terminal translates newlines and merges both streams.
	assert.Contains(t, out.String(), "tty")
	assert.Contains(t, out.String(), "also")
	assert.Empty(t, errs.String())
}

func TestPTYLauncher_Resize(t *testing.T) {
	out := &recorder{}
	s, err := New(WithLauncher(&PTYLauncher{Rows: 24, Cols: 80})).
		SetOutputHandler(out.handle).
		Start("read line; stty size")
	if err != nil {
		t.Skipf("Skipping test: cannot start PTY: %v", err)
	}
	defer s.Stop()

	require.NoError(t, s.Resize(30, 100))
	require.NoError(t, s.Send(""))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "30 100")
	}, waitTimeout, 10*time.Millisecond)
}
