package heartbeat

import (
	"encoding/json"

	ws "shellsession/websocket"
)

// HeartbeatService echoes every message back so the client can measure
// liveness. Register it passively: heartbeats do not keep a shell alive.
type HeartbeatService struct {
	conn ws.MessageWriter
}

func (s *HeartbeatService) Name() string {
	return "heartbeat"
}

func (s *HeartbeatService) Register(w ws.MessageWriter) {
	s.conn = w
}

func (s *HeartbeatService) HandleTextMessage(id, action string, data json.RawMessage) {
	s.conn.WriteJSON(&ws.ServiceMessage{Service: s.Name(), Action: action, Id: id})
}

func (s *HeartbeatService) Cleanup(err error) {}

func NewService() ws.Service {
	return &HeartbeatService{}
}
