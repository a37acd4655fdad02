// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import "sync"

// Presence tracks which participant sessions are waiting on each survey.
type Presence struct {
	mu      sync.Mutex
	surveys map[string]map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{surveys: make(map[string]map[string]struct{})}
}

// Join adds sessionID to the survey's waiting set. Joining twice is a no-op.
func (p *Presence) Join(surveyID, sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	sessions, ok := p.surveys[surveyID]
	if !ok {
		sessions = make(map[string]struct{})
		p.surveys[surveyID] = sessions
	}
	sessions[sessionID] = struct{}{}
	return len(sessions)
}

// Leave removes sessionID and drops the survey entry once it is empty.
func (p *Presence) Leave(surveyID, sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	sessions, ok := p.surveys[surveyID]
	if !ok {
		return 0
	}
	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(p.surveys, surveyID)
		return 0
	}
	return len(sessions)
}

// Count returns the number of waiting sessions, 0 for unknown surveys.
func (p *Presence) Count(surveyID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.surveys[surveyID])
}
