package controller

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"shellsession/config"
	"shellsession/websocket"
	"shellsession/websocket/service/heartbeat"
	"shellsession/websocket/service/shell"
)

type LocalController struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewLocalController(cfg *config.Config, logger *zap.Logger) *LocalController {
	return &LocalController{cfg: cfg, logger: logger.Named("controller")}
}

func (lc *LocalController) StartLocalShell(c *gin.Context) {
	var req localQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	connID := uuid.NewString()
	logger := lc.logger.With(zap.String("conn", connID))

	wsServer, err := websocket.NewServer(c.Writer, c.Request, lc.cfg.ConnectionTimeout, logger)
	if err != nil {
		// the upgrader has already answered the request
		return
	}

	shellService := shell.NewLocalService(shell.LocalOptions{
		Shell:      lc.cfg.Shell,
		Cwd:        lc.cfg.Cwd,
		DefaultCmd: lc.cfg.Command,
		PTY:        req.PTY,
	}, logger)

	wsServer.Register(shellService)
	wsServer.RegisterPassive(heartbeat.NewService())

	logger.Info("local shell connected", zap.Bool("pty", req.PTY))
	err = wsServer.Start()
	logger.Info("local shell disconnected", zap.Error(err))
}

type SSHController struct {
	Clients map[string]*ssh.Client
	*sync.RWMutex

	cfg    *config.Config
	logger *zap.Logger
}

func NewSSHController(cfg *config.Config, logger *zap.Logger) *SSHController {
	return &SSHController{
		Clients: make(map[string]*ssh.Client),
		RWMutex: &sync.RWMutex{},
		cfg:     cfg,
		logger:  logger.Named("controller"),
	}
}

func (sc *SSHController) LoginSSH(c *gin.Context) {
	var info sshInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if info.Port == 0 {
		info.Port = 22
	}

	clientConfig := &ssh.ClientConfig{
		User:            info.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(info.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // Note: In production, use proper host key verification
	}

	addr := net.JoinHostPort(info.Host, strconv.Itoa(info.Port))
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		sc.logger.Warn("ssh login failed", zap.String("addr", addr), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	id := uuid.NewString()
	sc.Lock()
	sc.Clients[id] = client
	sc.Unlock()

	sc.logger.Info("ssh client connected", zap.String("id", id), zap.String("addr", addr))
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (sc *SSHController) client(c *gin.Context) (*ssh.Client, bool) {
	id := c.Param("id")

	sc.RLock()
	client, exists := sc.Clients[id]
	sc.RUnlock()

	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid SSH client ID %q", id)})
	}
	return client, exists
}

func (sc *SSHController) StartSSHShell(c *gin.Context) {
	client, ok := sc.client(c)
	if !ok {
		return
	}

	logger := sc.logger.With(zap.String("id", c.Param("id")), zap.String("conn", uuid.NewString()))

	wsServer, err := websocket.NewServer(c.Writer, c.Request, sc.cfg.ConnectionTimeout, logger)
	if err != nil {
		return
	}

	wsServer.Register(shell.NewSSHService(client, sc.cfg.Command, logger))
	wsServer.RegisterPassive(heartbeat.NewService())

	err = wsServer.Start()
	logger.Info("ssh shell disconnected", zap.Error(err))
}

func (sc *SSHController) LogoutSSH(c *gin.Context) {
	client, ok := sc.client(c)
	if !ok {
		return
	}

	sc.Lock()
	delete(sc.Clients, c.Param("id"))
	sc.Unlock()

	if err := client.Close(); err != nil {
		sc.logger.Debug("closing ssh client", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}
