// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickpoll/models"
)

const eventTimeout = 2 * time.Second

var (
	errWriteFailed = errors.New("write failed")
	errNoSurvey    = errors.New("survey not found")
)

// fakeConn is an in-memory Conn. Frames pushed to inbound are returned by
// ReadMessage; successful writes are recorded and forwarded to sent.
type fakeConn struct {
	inbound chan []byte
	sent    chan []byte
	closed  chan struct{}

	failWrites atomic.Bool
	closeOnce  sync.Once
	closeCalls atomic.Int32
	writes     atomic.Int32
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte),
		sent:    make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	if c.failWrites.Load() {
		return errWriteFailed
	}
	c.writes.Add(1)
	c.sent <- append([]byte(nil), data...)
	return nil
}

func (c *fakeConn) Close() error {
	c.closeCalls.Add(1)
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// send delivers a client frame, failing the test if nobody reads it.
func (c *fakeConn) send(t *testing.T, frame string) {
	t.Helper()
	select {
	case c.inbound <- []byte(frame):
	case <-time.After(eventTimeout):
		t.Fatalf("frame %s was not read", frame)
	}
}

// next returns the next event written to the connection.
func (c *fakeConn) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case data := <-c.sent:
		var ev map[string]any
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(eventTimeout):
		t.Fatal("no event written")
		return nil
	}
}

func (c *fakeConn) expect(t *testing.T, typ EventType) map[string]any {
	t.Helper()
	ev := c.next(t)
	require.Equal(t, string(typ), ev["type"], "event %v", ev)
	return ev
}

func (c *fakeConn) expectNothing(t *testing.T, wait time.Duration) {
	t.Helper()
	deadline := time.After(wait)
	select {
	case data := <-c.sent:
		t.Fatalf("unexpected event %s", data)
	default:
	}
	select {
	case data := <-c.sent:
		t.Fatalf("unexpected event %s", data)
	case <-deadline:
	}
}

// waitClosed blocks until Close has been called.
func (c *fakeConn) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(eventTimeout):
		t.Fatal("connection was not closed")
	}
}

// memStore is a StatusStore over a map.
type memStore struct {
	mu     sync.Mutex
	status map[string]models.SurveyStatus
	writes int
}

func newMemStore(surveys map[string]models.SurveyStatus) *memStore {
	return &memStore{status: surveys}
}

func (m *memStore) SurveyStatus(_ context.Context, id string) (models.SurveyStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.status[id]
	if !ok {
		return "", errNoSurvey
	}
	return s, nil
}

func (m *memStore) SetSurveyStatus(_ context.Context, id string, status models.SurveyStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.status[id]; !ok {
		return errNoSurvey
	}
	m.status[id] = status
	m.writes++
	return nil
}

func (m *memStore) get(id string) models.SurveyStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[id]
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// serve runs a session in the background and returns a channel closed when
// it has finished.
func serve(h *Hub, conn Conn, surveyID string, role Role, sessionID string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Serve(context.Background(), conn, surveyID, role, sessionID)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(eventTimeout):
		t.Fatal("session did not finish")
	}
}
