// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Open picks the driver from cliparse.Config.DatabaseType:

  - sqlite (default): modernc.org/sqlite, pure Go, file or in-memory DSN.
    Foreign keys are switched on and the pool is limited to one connection.
  - postgres: github.com/lib/pq

	conn, err := db.Open(ctx, cfg)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL is shared by both drivers.

# Tables

  - survey: survey metadata, join code, status and response count
  - question: ordered questions per survey (options as JSON text)
  - response: submitted answers (JSON text) per survey

# Relationships

	survey 1──* question
	survey 1──* response

All foreign keys use ON DELETE CASCADE.
*/
package db
