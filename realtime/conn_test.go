// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsPair starts a server that wraps each upgraded socket and passes it to
// handle, and returns a client connected to it.
func wsPair(t *testing.T, handle func(*WebSocketConn)) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handle(NewWebSocketConn(ws, time.Second))
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestWebSocketConn_EchoAndClose(t *testing.T) {
	closeErrs := make(chan [2]error, 1)
	client := wsPair(t, func(c *WebSocketConn) {
		data, err := c.ReadMessage()
		if err == nil {
			err = c.WriteMessage(data)
		}
		first := c.Close()
		closeErrs <- [2]error{first, c.Close()}
	})

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	client.SetReadDeadline(time.Now().Add(eventTimeout))
	kind, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.Equal(t, `{"type":"ping"}`, string(data))

	_, _, err = client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	select {
	case errs := <-closeErrs:
		assert.Equal(t, errs[0], errs[1], "second Close returns the first result")
	case <-time.After(eventTimeout):
		t.Fatal("server handler did not finish")
	}
}

func TestWebSocketConn_ReadLimit(t *testing.T) {
	readErr := make(chan error, 1)
	client := wsPair(t, func(c *WebSocketConn) {
		_, err := c.ReadMessage()
		readErr <- err
		c.Close()
	})

	big := bytes.Repeat([]byte("x"), maxFrameSize+1)
	_ = client.WriteMessage(websocket.TextMessage, big)

	select {
	case err := <-readErr:
		assert.ErrorIs(t, err, websocket.ErrReadLimit)
	case <-time.After(eventTimeout):
		t.Fatal("oversized frame was not rejected")
	}
}

func TestWebSocketConn_ConcurrentWrites(t *testing.T) {
	const writers = 20
	client := wsPair(t, func(c *WebSocketConn) {
		b := NewBroadcaster(NewRegistry(), nil)
		conns := make([]Conn, writers)
		for i := range conns {
			conns[i] = c
		}
		b.SendTo(conns, Heartbeat{})
	})

	client.SetReadDeadline(time.Now().Add(eventTimeout))
	for i := 0; i < writers; i++ {
		_, data, err := client.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, `{"type":"heartbeat"}`, string(data))
	}
}
