package utils

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "shellsession/websocket"
)

type captureConn struct {
	messages []*ws.ServiceMessage
	err      error
}

func (c *captureConn) WriteJSON(v any) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, v.(*ws.ServiceMessage))
	return nil
}

func TestWebsocketWriter_Write(t *testing.T) {
	conn := &captureConn{}
	w := &WebsocketWriter{
		Service:     "shell",
		Id:          "abc",
		Action:      "stdout",
		Conn:        conn,
		Transformer: JSONString,
	}

	n, err := w.Write([]byte("hi\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, conn.messages, 1)
	msg := conn.messages[0]
	assert.Equal(t, "shell", msg.Service)
	assert.Equal(t, "abc", msg.Id)
	assert.Equal(t, "stdout", msg.Action)

	var data string
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "hi\n", data)
}

func TestWebsocketWriter_WriteError(t *testing.T) {
	w := &WebsocketWriter{Conn: &captureConn{err: errors.New("closed")}}

	n, err := w.Write([]byte("lost"))
	assert.Error(t, err)
	assert.Zero(t, n)

	// Handler swallows the error.
	w.Handler([]byte("lost"))
}
