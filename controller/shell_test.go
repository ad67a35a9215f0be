package controller

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shellsession/config"
	"shellsession/websocket"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Shell:             "/bin/sh",
		Cwd:               t.TempDir(),
		Command:           "sh",
		ConnectionTimeout: time.Minute,
	}

	r := gin.New()
	SetupRoutes(r, cfg, zap.NewNop())
	return r
}

func TestStartLocalShell(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/shell/local"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(websocket.ServiceMessage{
		Service: "shell",
		Id:      "s1",
		Action:  "start",
		Data:    json.RawMessage(`{"cmd":"echo over the wire"}`),
	}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var output strings.Builder
	for {
		var msg websocket.ServiceMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Empty(t, msg.Error)
		assert.Equal(t, "shell", msg.Service)
		assert.Equal(t, "s1", msg.Id)

		if msg.Action == "stdout" {
			var chunk string
			require.NoError(t, json.Unmarshal(msg.Data, &chunk))
			output.WriteString(chunk)
		}
		if msg.Action == "end" {
			break
		}
	}

	assert.Equal(t, "over the wire\n", output.String())
}

func TestStartLocalShell_Heartbeat(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/shell/local"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(websocket.ServiceMessage{Service: "heartbeat", Id: "h1", Action: "ping"}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg websocket.ServiceMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "heartbeat", msg.Service)
	assert.Equal(t, "h1", msg.Id)
	assert.Equal(t, "ping", msg.Action)
}

func TestLoginSSH_BadRequest(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/shell/ssh", bytes.NewBufferString(`{"host":"localhost"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginSSH_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	body, err := json.Marshal(map[string]any{
		"host":     "127.0.0.1",
		"port":     port,
		"username": "user",
		"password": "secret",
	})
	require.NoError(t, err)

	r := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/shell/ssh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSSHShell_UnknownID(t *testing.T) {
	r := newTestRouter(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/shell/ssh/missing", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, method)
	}
}
