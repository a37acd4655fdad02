// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the QuickPoll API server.

QuickPoll runs live surveys. A host opens a survey, participants join with a
short code, the host starts and ends the survey over a live connection, and
every submitted response is pushed to the host as it arrives. Results can be
read back as per-question analytics or downloaded as a spreadsheet.

# Starting the Server

With no configuration the server listens on :8000 and keeps its data in
quickpoll.db (SQLite):

	go run .

PostgreSQL:

	DATABASE_TYPE=postgres DATABASE_URL=postgres://... go run .

Or with flags:

	go run . -p 8080 -t postgres -d "postgres://..."

A .env file in the working directory is loaded first; real environment
variables and flags win over it.

# Configuration

  - PORT (-p): Server port (default: 8000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): DSN; required for postgres
  - HEARTBEAT_INTERVAL (-heartbeat): idle time before a heartbeat (default: 30s)
  - WRITE_TIMEOUT (-write-timeout): per-frame write deadline (default: 10s)
  - MAX_MALFORMED (-max-malformed): consecutive bad frames tolerated (default: 3)
  - ALLOWED_ORIGINS (-origins): comma-separated, * for any (default: *)
  - LOG_LEVEL (-log-level): debug, info, warn, error (default: info)

# Architecture

  - realtime: presence, connection registry, broadcast, lifecycle, session loop
  - handlers: HTTP request handlers (surveys, questions, responses, results, live, health)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - store: survey persistence and analytics (squirrel query builder)
  - models: Request/response types
  - auth: Identifier, join code and session id helpers
  - db: Driver selection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
