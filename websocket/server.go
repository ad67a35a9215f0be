package websocket

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Server routes the messages of one websocket connection to its services.
type Server struct {
	*Conn
	writer MessageWriter

	services       map[string]Service
	activeServices []string

	timeout        time.Duration
	mu             sync.Mutex
	lastActiveTime time.Time

	logger *zap.Logger
}

// NewServer upgrades the request. The connection is closed once no active
// service has seen a message for timeout.
func NewServer(w http.ResponseWriter, r *http.Request, timeout time.Duration, logger *zap.Logger) (*Server, error) {
	conn, err := NewConn(w, r, logger)
	if err != nil {
		return nil, err
	}

	server := newServer(conn, timeout, logger)
	server.Conn = conn
	return server, nil
}

func newServer(w MessageWriter, timeout time.Duration, logger *zap.Logger) *Server {
	return &Server{
		writer:         w,
		services:       make(map[string]Service),
		timeout:        timeout,
		lastActiveTime: time.Now(),
		logger:         logger,
	}
}

func (s *Server) checkTimeout(done <-chan struct{}) {
	ticker := time.NewTicker(time.Second * 10)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if s.idle() {
				s.logger.Info("closing idle connection", zap.Duration("timeout", s.timeout))
				s.Close()
				return
			}
		}
	}
}

func (s *Server) idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout > 0 && time.Since(s.lastActiveTime) > s.timeout
}

// Register adds a service whose messages keep the connection alive.
func (s *Server) Register(service Service) {
	s.RegisterPassive(service)
	s.activeServices = append(s.activeServices, service.Name())
}

// RegisterPassive adds a service whose messages do not count as activity.
func (s *Server) RegisterPassive(service Service) {
	if _, exists := s.services[service.Name()]; exists {
		s.logger.Warn("service already registered", zap.String("service", service.Name()))
		return
	}

	service.Register(s.writer)
	s.services[service.Name()] = service
}

func (s *Server) dispatch(msg *ServiceMessage) {
	if slices.Contains(s.activeServices, msg.Service) {
		s.mu.Lock()
		s.lastActiveTime = time.Now()
		s.mu.Unlock()
	}

	if service, exists := s.services[msg.Service]; exists {
		service.HandleTextMessage(msg.Id, msg.Action, msg.Data)
	} else {
		s.logger.Debug("message for unknown service", zap.String("service", msg.Service))
	}
}

// Start serves the connection until it fails, then cleans up every service.
func (s *Server) Start() error {
	done := make(chan struct{})
	defer close(done)
	go s.checkTimeout(done)

	handled := make(chan struct{})
	go func() {
		defer close(handled)
		for msg := range s.TextMessage {
			s.dispatch(msg)
		}
	}()

	err := s.StartDispatch()
	<-handled

	for _, service := range s.services {
		service.Cleanup(err)
	}
	s.Close()

	return err
}
