package shell

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"shellsession/session"
	"shellsession/utils"
	ws "shellsession/websocket"
)

const (
	actionStart     = "start"
	actionCommand   = "command"
	actionExec      = "exec"
	actionResize    = "resize"
	actionTerminate = "terminate"

	// pushed to the client
	actionStdout = "stdout"
	actionStderr = "stderr"
	actionEnd    = "end"
)

const defaultExecTimeout = 30 * time.Second

// A terminal echoes its input, so exec would answer with the echo.
var errExecOnTerminal = errors.New("shell: exec needs a session without a terminal")

type commandData string
type resizeData struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}
type startData struct {
	Cmd string `json:"cmd"`
}

// ShellService drives a single session for one websocket connection.
type ShellService struct {
	conn ws.MessageWriter

	launcher    session.Launcher
	defaultCmd  string
	execTimeout time.Duration

	mu      sync.Mutex
	session *session.Session

	logger *zap.Logger
}

func (s *ShellService) Name() string {
	return "shell"
}

func (s *ShellService) Register(w ws.MessageWriter) {
	s.conn = w
}

func (s *ShellService) HandleTextMessage(id string, action string, data json.RawMessage) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if action == actionExec && s.terminal() {
		s.replyError(id, action, errExecOnTerminal)
		return
	}

	if action != actionStart && sess == nil {
		s.logger.Warn("received message before shell started", zap.String("id", id), zap.String("action", action))
		s.replyError(id, action, session.ErrNotStarted)
		return
	}

	switch action {
	case actionStart:
		var start startData
		if len(data) > 0 {
			if err := json.Unmarshal(data, &start); err != nil {
				s.logger.Warn("error unmarshalling start payload", zap.String("id", id), zap.Error(err))
				s.replyError(id, action, err)
				return
			}
		}
		if err := s.startShell(id, start.Cmd); err != nil {
			s.logger.Warn("error starting shell", zap.String("id", id), zap.Error(err))
			s.replyError(id, action, err)
			return
		}
		s.conn.WriteJSON(&ws.ServiceMessage{Service: s.Name(), Id: id, Action: actionStart})
	case actionCommand:
		var command commandData
		if err := json.Unmarshal(data, &command); err != nil {
			s.logger.Warn("error unmarshalling command payload", zap.String("id", id), zap.Error(err))
			s.replyError(id, action, err)
			return
		}
		if err := sess.Send(string(command)); err != nil {
			s.logger.Warn("error writing to shell", zap.String("id", id), zap.Error(err))
			s.replyError(id, action, err)
		}
	case actionExec:
		var command commandData
		if err := json.Unmarshal(data, &command); err != nil {
			s.logger.Warn("error unmarshalling exec payload", zap.String("id", id), zap.Error(err))
			s.replyError(id, action, err)
			return
		}
		go s.exec(sess, id, string(command))
	case actionResize:
		var resize resizeData
		if err := json.Unmarshal(data, &resize); err != nil {
			s.logger.Warn("error unmarshalling resize payload", zap.String("id", id), zap.Error(err))
			return
		}
		if err := sess.Resize(resize.Rows, resize.Cols); err != nil {
			s.logger.Warn("error resizing shell", zap.String("id", id), zap.Error(err))
			s.replyError(id, action, err)
		}
	case actionTerminate:
		if err := sess.Stop(); err != nil {
			s.logger.Warn("error stopping shell", zap.String("id", id), zap.Error(err))
			s.replyError(id, action, err)
			return
		}
		// the old process exits in the background; the next start gets a fresh session
		s.mu.Lock()
		if s.session == sess {
			s.session = nil
		}
		s.mu.Unlock()
	default:
		s.logger.Debug("unknown action", zap.String("id", id), zap.String("action", action))
	}
}

// exec answers with the first chunk the command produces.
func (s *ShellService) exec(sess *session.Session, id, command string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.execTimeout)
	defer cancel()

	out, err := sess.SendAndAwaitOutput(ctx, command)
	if err != nil {
		s.replyError(id, actionExec, err)
		return
	}

	s.conn.WriteJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  actionExec,
		Data:    utils.JSONString([]byte(out)),
	})
}

func (s *ShellService) replyError(id, action string, err error) {
	s.conn.WriteJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Error:   err.Error(),
	})
}

func (s *ShellService) Cleanup(err error) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess != nil {
		sess.Stop()
	}
}

func (s *ShellService) startShell(id string, cmd string) error {
	if cmd == "" {
		cmd = s.defaultCmd
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil && s.session.Running() {
		return session.ErrAlreadyStarted
	}

	stdout := s.streamWriter(id, actionStdout)
	stderr := s.streamWriter(id, actionStderr)
	sess, err := session.Create(session.Config{
		Cmd:      cmd,
		OnOutput: stdout.Handler,
		OnError:  stderr.Handler,
		OnEnd: func() {
			s.conn.WriteJSON(&ws.ServiceMessage{Service: s.Name(), Id: id, Action: actionEnd})
		},
	}, session.WithLauncher(s.launcher), session.WithLogger(s.logger.With(zap.String("id", id))))
	if err != nil {
		return err
	}

	s.session = sess
	return nil
}

func (s *ShellService) terminal() bool {
	_, ok := s.launcher.(*session.PTYLauncher)
	return ok
}

func (s *ShellService) streamWriter(id, action string) *utils.WebsocketWriter {
	return &utils.WebsocketWriter{
		Service:     s.Name(),
		Id:          id,
		Action:      action,
		Conn:        s.conn,
		Transformer: utils.JSONString,
	}
}

func newService(launcher session.Launcher, defaultCmd string, logger *zap.Logger) *ShellService {
	return &ShellService{
		launcher:    launcher,
		defaultCmd:  defaultCmd,
		execTimeout: defaultExecTimeout,
		logger:      logger.Named("shell"),
	}
}

// LocalOptions configures sessions started on this machine.
type LocalOptions struct {
	Shell      string
	Cwd        string
	DefaultCmd string
	PTY        bool
}

func NewLocalService(opts LocalOptions, logger *zap.Logger) ws.Service {
	local := session.LocalLauncher{Shell: opts.Shell, Dir: opts.Cwd}

	var launcher session.Launcher = &local
	if opts.PTY {
		launcher = &session.PTYLauncher{LocalLauncher: local}
	}

	return newService(launcher, opts.DefaultCmd, logger)
}

func NewSSHService(client *ssh.Client, defaultCmd string, logger *zap.Logger) ws.Service {
	return newService(&session.SSHLauncher{Client: client}, defaultCmd, logger)
}
