// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth generates and checks the identifiers the service hands out.

There are no accounts: hosts and participants are told apart only by the
websocket path they connect on, and repeat visits by an opaque session id.

# Record IDs

Surveys, questions and responses use random UUIDs:

	id := auth.GenerateID()

# Join Codes

Six-character uppercase codes participants type to find a survey:

	code, err := auth.GenerateJoinCode()

# Session IDs

Clients keep their own session id and pass it as ?session_id=... when
connecting. NormalizeSessionID trims it and rejects oversized or unexpected
input; an absent id stays empty:

	sessionID, err := auth.NormalizeSessionID(r.URL.Query().Get("session_id"))
*/
package auth
