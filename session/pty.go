package session

import (
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// PTYLauncher runs command lines attached to a pseudo terminal. Output and
// errors share the terminal, so everything arrives through the output
// handler and the error handler never fires.
type PTYLauncher struct {
	LocalLauncher

	Rows, Cols uint16
}

// Launch implements Launcher.
func (l *PTYLauncher) Launch(commandLine string) (Process, error) {
	cmd := l.command(commandLine)
	cmd.Env = append(cmdEnv(cmd), "TERM=xterm-256color")

	rows, cols := l.Rows, l.Cols
	if rows == 0 {
		rows = 24
	}
	if cols == 0 {
		cols = 80
	}

	f, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, err
	}

	return &ptyProcess{cmd: cmd, File: f}, nil
}

func cmdEnv(cmd *exec.Cmd) []string {
	if cmd.Env != nil {
		return cmd.Env
	}
	return os.Environ()
}

type ptyProcess struct {
	cmd *exec.Cmd

	*os.File
}

func (p *ptyProcess) Stdout() io.Reader { return p.File }
func (p *ptyProcess) Stderr() io.Reader { return nil }

func (p *ptyProcess) Resize(rows, cols int) error {
	return pty.Setsize(p.File, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

func (p *ptyProcess) Terminate() error {
	return terminate(p.cmd.Process)
}

func (p *ptyProcess) Wait() error {
	err := p.cmd.Wait()
	p.File.Close()
	return err
}
