// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Role is the side of a survey a connection is on.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole accepts "host" or "participant".
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleHost, RoleParticipant:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Record describes who is on the other end of a registered connection.
type Record struct {
	SurveyID  string
	Role      Role
	SessionID string
}

type surveyConns struct {
	hosts        []Conn
	participants []Conn
}

func (s *surveyConns) list(role Role) *[]Conn {
	if role == RoleHost {
		return &s.hosts
	}
	return &s.participants
}

// Registry maps surveys to their live connections, split by role, and maps
// each connection back to its record. Connections are compared by identity.
type Registry struct {
	mu      sync.RWMutex
	surveys map[string]*surveyConns
	records map[Conn]Record
}

func NewRegistry() *Registry {
	return &Registry{
		surveys: make(map[string]*surveyConns),
		records: make(map[Conn]Record),
	}
}

// Register admits conn under rec. It returns false and changes nothing when
// conn is already registered.
func (r *Registry) Register(conn Conn, rec Record) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[conn]; ok {
		return false
	}
	conns, ok := r.surveys[rec.SurveyID]
	if !ok {
		conns = &surveyConns{}
		r.surveys[rec.SurveyID] = conns
	}
	list := conns.list(rec.Role)
	*list = append(*list, conn)
	r.records[conn] = rec
	return true
}

// Deregister removes conn and returns the record it was registered under.
// Unknown connections are a no-op.
func (r *Registry) Deregister(conn Conn) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[conn]
	if !ok {
		return Record{}, false
	}
	delete(r.records, conn)

	if conns, ok := r.surveys[rec.SurveyID]; ok {
		list := conns.list(rec.Role)
		if i := slices.Index(*list, conn); i >= 0 {
			*list = slices.Delete(*list, i, i+1)
		}
		if len(conns.hosts) == 0 && len(conns.participants) == 0 {
			delete(r.surveys, rec.SurveyID)
		}
	}
	return rec, true
}

// Hosts returns a snapshot of the survey's host connections in admission order.
func (r *Registry) Hosts(surveyID string) []Conn {
	return r.snapshot(surveyID, RoleHost)
}

// Participants returns a snapshot of the survey's participant connections.
func (r *Registry) Participants(surveyID string) []Conn {
	return r.snapshot(surveyID, RoleParticipant)
}

func (r *Registry) snapshot(surveyID string, role Role) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.surveys[surveyID]
	if !ok {
		return []Conn{}
	}
	return slices.Clone(*conns.list(role))
}

// HasParticipantSession reports whether any participant connection for the
// survey is still registered with sessionID.
func (r *Registry) HasParticipantSession(surveyID, sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.surveys[surveyID]
	if !ok {
		return false
	}
	for _, c := range conns.participants {
		if r.records[c].SessionID == sessionID {
			return true
		}
	}
	return false
}

// Counts returns the number of host and participant connections for a survey.
func (r *Registry) Counts(surveyID string) (hosts, participants int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.surveys[surveyID]
	if !ok {
		return 0, 0
	}
	return len(conns.hosts), len(conns.participants)
}

// All returns every registered connection.
func (r *Registry) All() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Conn, 0, len(r.records))
	for c := range r.records {
		all = append(all, c)
	}
	return all
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
