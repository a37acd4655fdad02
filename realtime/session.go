// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// SessionState is the position of a connection in its lifecycle.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int32(s))
	}
}

// Session supervises one connection from admission to teardown.
type Session struct {
	hub        *Hub
	conn       Conn
	rec        Record
	state      atomic.Int32
	registered bool
}

func (h *Hub) NewSession(conn Conn, rec Record) *Session {
	return &Session{hub: h, conn: conn, rec: rec}
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Run admits the connection, relays its commands and sends heartbeats while
// it is idle. It returns after teardown, whichever way the connection ended.
func (s *Session) Run(ctx context.Context) {
	defer s.close()

	if !s.open() {
		return
	}

	inbound := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go s.read(inbound, readErr, done)

	timeout := s.hub.opts.IdleTimeout
	idle := time.NewTimer(timeout)
	defer idle.Stop()

	malformed := 0
	for {
		select {
		case <-ctx.Done():
			slog.Debug("session cancelled", "survey_id", s.rec.SurveyID, "role", s.rec.Role)
			return

		case err := <-readErr:
			slog.Debug("connection read ended", "survey_id", s.rec.SurveyID, "role", s.rec.Role, "error", err)
			return

		case data := <-inbound:
			idle.Reset(timeout)
			cmd, err := DecodeCommand(data)
			if err != nil {
				malformed++
				slog.Warn("malformed frame", "survey_id", s.rec.SurveyID, "role", s.rec.Role,
					"consecutive", malformed, "error", err)
				if malformed >= s.hub.opts.MaxMalformed {
					return
				}
				continue
			}
			malformed = 0
			if err := s.handle(ctx, cmd); err != nil {
				slog.Debug("reply failed", "survey_id", s.rec.SurveyID, "role", s.rec.Role, "error", err)
				return
			}

		case <-idle.C:
			if err := s.send(Heartbeat{}); err != nil {
				slog.Info("heartbeat failed", "survey_id", s.rec.SurveyID, "role", s.rec.Role, "error", err)
				return
			}
			idle.Reset(timeout)
		}
	}
}

func (s *Session) open() bool {
	s.state.Store(int32(StateConnecting))
	if s.hub.closing.Load() {
		return false
	}
	waiting, ok := s.hub.admit(s.conn, s.rec)
	if !ok {
		slog.Error("connection registered twice", "survey_id", s.rec.SurveyID, "role", s.rec.Role)
		return false
	}
	s.registered = true
	s.state.Store(int32(StateOpen))
	slog.Info("connection opened", "survey_id", s.rec.SurveyID, "role", s.rec.Role, "session_id", s.rec.SessionID)

	switch s.rec.Role {
	case RoleHost:
		err := s.send(InitialStats{
			SurveyID:     s.rec.SurveyID,
			WaitingCount: waiting,
		})
		if err != nil {
			slog.Info("initial stats failed", "survey_id", s.rec.SurveyID, "error", err)
			return false
		}
	case RoleParticipant:
		s.hub.broadcaster.ToHosts(s.rec.SurveyID, ParticipantJoined{
			SurveyID:     s.rec.SurveyID,
			SessionID:    s.rec.SessionID,
			WaitingCount: waiting,
		})
	}
	return true
}

func (s *Session) handle(ctx context.Context, cmd Command) error {
	switch cmd.Type {
	case CommandPing:
		return s.send(Pong{})
	case CommandStartSurvey, CommandEndSurvey:
		if s.rec.Role != RoleHost {
			slog.Debug("ignoring host command from participant", "survey_id", s.rec.SurveyID, "type", cmd.Type)
			return nil
		}
		if cmd.Type == CommandStartSurvey {
			_ = s.hub.lifecycle.Start(ctx, s.rec.SurveyID, s.conn)
		} else {
			_ = s.hub.lifecycle.End(ctx, s.rec.SurveyID, s.conn)
		}
		return nil
	default:
		slog.Debug("ignoring unknown command", "survey_id", s.rec.SurveyID, "type", cmd.Type)
		return nil
	}
}

func (s *Session) send(e Event) error {
	payload, err := EncodeEvent(e)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(payload)
}

// read pumps frames into inbound until the connection fails or the loop
// has exited.
func (s *Session) read(inbound chan<- []byte, readErr chan<- error, done <-chan struct{}) {
	for {
		data, err := s.conn.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}
		select {
		case inbound <- data:
		case <-done:
			return
		}
	}
}

func (s *Session) close() {
	s.state.Store(int32(StateClosing))
	if s.registered {
		s.hub.teardown(s.conn)
	} else {
		_ = s.conn.Close()
	}
	s.state.Store(int32(StateClosed))
	slog.Debug("session closed", "survey_id", s.rec.SurveyID, "role", s.rec.Role, "session_id", s.rec.SessionID)
}
