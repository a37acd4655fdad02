// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"log/slog"
	"sync"
)

// Broadcaster fans events out to registered connections. A connection that
// fails a send is handed to the drop callback, so every broadcast doubles as
// a liveness check.
type Broadcaster struct {
	registry *Registry
	drop     func(Conn)
}

// NewBroadcaster resolves targets through registry. drop is called once per
// failed connection after the send completes; it may be nil.
func NewBroadcaster(registry *Registry, drop func(Conn)) *Broadcaster {
	return &Broadcaster{registry: registry, drop: drop}
}

// SendTo writes e to every connection and returns those whose write failed,
// in input order. A failure never stops delivery to the rest.
func (b *Broadcaster) SendTo(conns []Conn, e Event) []Conn {
	if len(conns) == 0 {
		return nil
	}
	payload, err := EncodeEvent(e)
	if err != nil {
		slog.Error("failed to encode event", "type", e.Type(), "error", err)
		return nil
	}

	failed := make([]bool, len(conns))
	var wg sync.WaitGroup
	for i, c := range conns {
		wg.Add(1)
		go func(i int, c Conn) {
			defer wg.Done()
			if err := c.WriteMessage(payload); err != nil {
				slog.Debug("send failed", "type", e.Type(), "error", err)
				failed[i] = true
			}
		}(i, c)
	}
	wg.Wait()

	var out []Conn
	for i, f := range failed {
		if f {
			out = append(out, conns[i])
		}
	}
	return out
}

// ToHosts delivers e to every host of the survey and returns how many
// received it.
func (b *Broadcaster) ToHosts(surveyID string, e Event) int {
	return b.deliver(b.registry.Hosts(surveyID), e)
}

// ToParticipants delivers e to every participant of the survey.
func (b *Broadcaster) ToParticipants(surveyID string, e Event) int {
	return b.deliver(b.registry.Participants(surveyID), e)
}

// ToAll delivers e to hosts and participants of the survey.
func (b *Broadcaster) ToAll(surveyID string, e Event) int {
	targets := append(b.registry.Hosts(surveyID), b.registry.Participants(surveyID)...)
	return b.deliver(targets, e)
}

// ToConn delivers e to a single connection with the same failure handling as
// a broadcast.
func (b *Broadcaster) ToConn(conn Conn, e Event) bool {
	return b.deliver([]Conn{conn}, e) == 1
}

func (b *Broadcaster) deliver(conns []Conn, e Event) int {
	failed := b.SendTo(conns, e)
	if len(failed) > 0 {
		slog.Info("pruning dead connections", "type", e.Type(), "count", len(failed))
	}
	if b.drop != nil {
		for _, c := range failed {
			b.drop(c)
		}
	}
	return len(conns) - len(failed)
}
