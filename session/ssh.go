package session

import (
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// SSHLauncher runs command lines on a remote host over an established SSH
// client. The remote login shell interprets the command line.
type SSHLauncher struct {
	*ssh.Client
}

// Launch implements Launcher.
func (l *SSHLauncher) Launch(commandLine string) (Process, error) {
	session, err := l.Client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("new ssh session: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, err
	}

	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, err
	}

	stderr, err := session.StderrPipe()
	if err != nil {
		session.Close()
		return nil, err
	}

	if err := session.Start(commandLine); err != nil {
		session.Close()
		return nil, err
	}

	return &sshProcess{
		Session: session,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}, nil
}

type sshProcess struct {
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader

	*ssh.Session
}

func (p *sshProcess) Write(b []byte) (int, error) {
	return p.stdin.Write(b)
}

func (p *sshProcess) Stdout() io.Reader { return p.stdout }
func (p *sshProcess) Stderr() io.Reader { return p.stderr }

func (p *sshProcess) Resize(rows, cols int) error {
	return p.WindowChange(rows, cols)
}

// Terminate signals the remote command and closes the channel. Many servers
// ignore signal requests, so closing is what actually ends the session.
func (p *sshProcess) Terminate() error {
	p.Signal(ssh.SIGTERM)
	if err := p.Session.Close(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (p *sshProcess) Wait() error {
	err := p.Session.Wait()
	p.Session.Close()
	return err
}
