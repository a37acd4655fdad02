// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first (github.com/joho/godotenv).
Variables already present in the environment are not overridden, and a
missing .env file is not an error.

# CLI Flags

	-p              Server port
	-d              Database URL
	-t              Database type (sqlite or postgres)
	-heartbeat      Idle time before a heartbeat frame is sent
	-write-timeout  Per-frame websocket write deadline
	-max-malformed  Consecutive malformed frames tolerated
	-origins        Comma-separated allowed origins
	-log-level      debug, info, warn or error

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p              (default 8000)
	DATABASE_URL       → -d              (default quickpoll.db for sqlite)
	DATABASE_TYPE      → -t              (default sqlite)
	HEARTBEAT_INTERVAL → -heartbeat      (default 30s)
	WRITE_TIMEOUT      → -write-timeout  (default 10s)
	MAX_MALFORMED      → -max-malformed  (default 3)
	ALLOWED_ORIGINS    → -origins        (default *)
	LOG_LEVEL          → -log-level      (default info)

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error for an out-of-range port, an unknown database
type, a postgres database without DATABASE_URL, non-positive durations,
MAX_MALFORMED below 1 and unknown log levels.
*/
package cliparse
