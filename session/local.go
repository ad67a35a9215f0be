package session

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// DefaultShell interprets command lines when a launcher has no Shell set.
const DefaultShell = "/bin/sh"

// LocalLauncher runs command lines through a local shell with separate
// stdin, stdout and stderr pipes.
type LocalLauncher struct {
	// Shell is invoked as `Shell -c <command line>`.
	Shell string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

func (l *LocalLauncher) command(commandLine string) *exec.Cmd {
	shell := l.Shell
	if shell == "" {
		shell = DefaultShell
	}

	cmd := exec.Command(shell, "-c", commandLine)
	cmd.Dir = l.Dir
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}
	return cmd
}

// Launch implements Launcher.
func (l *LocalLauncher) Launch(commandLine string) (Process, error) {
	cmd := l.command(commandLine)
	setProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &localProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

type localProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
}

func (p *localProcess) Write(b []byte) (int, error) {
	return p.stdin.Write(b)
}

func (p *localProcess) Stdout() io.Reader { return p.stdout }
func (p *localProcess) Stderr() io.Reader { return p.stderr }

func (p *localProcess) Terminate() error {
	return terminate(p.cmd.Process)
}

func (p *localProcess) Wait() error {
	return p.cmd.Wait()
}
