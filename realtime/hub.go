// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielhkuo/quickpoll/models"
)

const (
	DefaultIdleTimeout  = 30 * time.Second
	DefaultMaxMalformed = 3
)

// Options tune the session loop.
type Options struct {
	// IdleTimeout is how long a connection may stay silent before it is sent
	// a heartbeat.
	IdleTimeout time.Duration
	// MaxMalformed is the number of consecutive unparseable frames tolerated
	// before the connection is closed.
	MaxMalformed int
}

func DefaultOptions() Options {
	return Options{IdleTimeout: DefaultIdleTimeout, MaxMalformed: DefaultMaxMalformed}
}

// Hub owns all live-connection state for one server process: presence,
// the connection registry, the broadcaster and the lifecycle controller.
type Hub struct {
	opts        Options
	presence    *Presence
	registry    *Registry
	broadcaster *Broadcaster
	lifecycle   *Lifecycle
	closing     atomic.Bool

	// held across registry and presence updates so that a session's last
	// connection leaving and a new one arriving cannot interleave
	membership sync.Mutex
}

// NewHub wires the components together. Zero option fields fall back to the
// defaults.
func NewHub(store StatusStore, opts Options) *Hub {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.MaxMalformed <= 0 {
		opts.MaxMalformed = DefaultMaxMalformed
	}

	h := &Hub{
		opts:     opts,
		presence: NewPresence(),
		registry: NewRegistry(),
	}
	h.broadcaster = NewBroadcaster(h.registry, h.teardown)
	h.lifecycle = NewLifecycle(store, h.broadcaster)
	return h
}

// Serve runs the session loop for an accepted connection and returns once
// the connection has been torn down.
func (h *Hub) Serve(ctx context.Context, conn Conn, surveyID string, role Role, sessionID string) {
	s := h.NewSession(conn, Record{SurveyID: surveyID, Role: role, SessionID: sessionID})
	s.Run(ctx)
}

// NotifyResponseSubmitted tells the survey's hosts that a response was
// stored. It returns the number of hosts reached.
func (h *Hub) NotifyResponseSubmitted(surveyID string, responseCount int, participantName string, submittedAt time.Time) int {
	return h.broadcaster.ToHosts(surveyID, ResponseSubmitted{
		SurveyID:        surveyID,
		ResponseCount:   responseCount,
		ParticipantName: participantName,
		SubmittedAt:     submittedAt,
	})
}

// Stats is a point-in-time view of a survey's live audience.
type Stats struct {
	WaitingCount int `json:"waiting_count"`
	Hosts        int `json:"host_connections"`
	Participants int `json:"participant_connections"`
}

func (h *Hub) Stats(surveyID string) Stats {
	hosts, participants := h.registry.Counts(surveyID)
	return Stats{
		WaitingCount: h.presence.Count(surveyID),
		Hosts:        hosts,
		Participants: participants,
	}
}

// Connections returns the number of registered connections across surveys.
func (h *Hub) Connections() int {
	return h.registry.Len()
}

// Shutdown refuses new sessions and closes every registered connection. Each
// session loop then runs its own teardown.
func (h *Hub) Shutdown() {
	h.closing.Store(true)
	conns := h.registry.All()
	for _, c := range conns {
		_ = c.Close()
	}
	slog.Info("realtime hub shut down", "connections_closed", len(conns))
}

// SetStatus applies a status change requested outside a live connection.
// Participants are told exactly as for a host command; there is no
// originating connection to confirm to.
func (h *Hub) SetStatus(ctx context.Context, surveyID string, status models.SurveyStatus) error {
	switch status {
	case models.StatusActive:
		return h.lifecycle.Start(ctx, surveyID, nil)
	case models.StatusFinished:
		return h.lifecycle.End(ctx, surveyID, nil)
	default:
		return fmt.Errorf("%w: cannot move to %s", ErrInvalidTransition, status)
	}
}

// CloseSurvey closes every live connection of a survey and returns how many
// there were. Their session loops run the usual teardown.
func (h *Hub) CloseSurvey(surveyID string) int {
	conns := append(h.registry.Hosts(surveyID), h.registry.Participants(surveyID)...)
	for _, c := range conns {
		_ = c.Close()
	}
	if len(conns) > 0 {
		slog.Info("closed survey connections", "survey_id", surveyID, "connections", len(conns))
	}
	return len(conns)
}

// admit registers conn and, for participants, adds its session to presence.
// It returns the waiting count after admission.
func (h *Hub) admit(conn Conn, rec Record) (int, bool) {
	h.membership.Lock()
	defer h.membership.Unlock()

	if !h.registry.Register(conn, rec) {
		return 0, false
	}
	if rec.Role == RoleParticipant {
		return h.presence.Join(rec.SurveyID, rec.SessionID), true
	}
	return h.presence.Count(rec.SurveyID), true
}

// release deregisters conn. A participant's session leaves presence only
// when no other connection of that session remains on the survey.
func (h *Hub) release(conn Conn) (Record, int, bool) {
	h.membership.Lock()
	defer h.membership.Unlock()

	rec, ok := h.registry.Deregister(conn)
	if !ok {
		return Record{}, 0, false
	}
	waiting := h.presence.Count(rec.SurveyID)
	if rec.Role == RoleParticipant && !h.registry.HasParticipantSession(rec.SurveyID, rec.SessionID) {
		waiting = h.presence.Leave(rec.SurveyID, rec.SessionID)
	}
	return rec, waiting, true
}

// teardown deregisters conn and applies the role-specific side effects. Only
// the first call for a connection finds a record, so side effects run once no
// matter how many paths reach here.
func (h *Hub) teardown(conn Conn) {
	rec, waiting, ok := h.release(conn)
	_ = conn.Close()
	if !ok {
		return
	}
	slog.Info("connection deregistered", "survey_id", rec.SurveyID, "role", rec.Role, "session_id", rec.SessionID)

	if rec.Role != RoleParticipant {
		return
	}
	h.broadcaster.ToHosts(rec.SurveyID, ParticipantLeft{
		SurveyID:     rec.SurveyID,
		SessionID:    rec.SessionID,
		WaitingCount: waiting,
	})
}
