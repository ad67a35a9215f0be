package utils

import (
	"encoding/json"

	ws "shellsession/websocket"
)

// WebsocketWriter wraps every Write into a ServiceMessage.
type WebsocketWriter struct {
	Service     string
	Id          string
	Action      string
	Conn        ws.MessageWriter
	Transformer func([]byte) []byte
}

func (w *WebsocketWriter) Write(p []byte) (n int, err error) {
	var transformed []byte
	if w.Transformer != nil {
		transformed = w.Transformer(p)
	} else {
		transformed = p
	}

	err = w.Conn.WriteJSON(&ws.ServiceMessage{
		Service: w.Service,
		Id:      w.Id,
		Action:  w.Action,
		Data:    transformed,
	})

	if err != nil {
		return 0, err
	}

	return len(p), nil
}

// Handler adapts the writer to a session output callback; write errors are
// reported by the connection itself.
func (w *WebsocketWriter) Handler(p []byte) {
	w.Write(p)
}

// JSONString encodes a chunk as a JSON string so it can travel in Data.
func JSONString(p []byte) []byte {
	d, _ := json.Marshal(string(p))
	return d
}
