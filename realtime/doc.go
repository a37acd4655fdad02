// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime tracks live survey connections and fans events out to them.

# Components

A Hub owns all live state for one process:

  - Presence: the set of waiting participant sessions per survey
  - Registry: live connections per survey, split into hosts and participants
  - Broadcaster: delivers an Event to a role-filtered set of connections
  - Lifecycle: applies start_survey and end_survey to persisted status

	hub := realtime.NewHub(st, realtime.Options{IdleTimeout: 30 * time.Second})
	hub.Serve(ctx, realtime.NewWebSocketConn(ws, 10*time.Second), surveyID, realtime.RoleHost, "")

Serve blocks for the life of the connection.

# Session Loop

Each connection moves connecting → open → closing → closed. On open a host
receives initial_stats and a participant is added to presence, which hosts
hear about as participant_joined. Inbound frames are commands:

	{"type":"ping"}          → pong to the sender
	{"type":"start_survey"}  → host only; ready → active
	{"type":"end_survey"}    → host only; active → finished

Unknown command types are ignored. Frames that are not a JSON object with a
string type count as malformed; Options.MaxMalformed in a row close the
connection. A connection that stays silent for Options.IdleTimeout is sent a
heartbeat, and a failed heartbeat closes it.

# Teardown

Teardown deregisters the connection and closes it. The first path to reach
teardown (read error, failed write, broadcast failure, shutdown) applies the
side effects; later calls are no-ops. A participant's session leaves
presence once no other connection for that session is open, and hosts are
sent participant_left.

# Broadcast Failures

A write that fails during a broadcast tears that connection down after the
broadcast completes. One dead connection never prevents delivery to the
others.
*/
package realtime
