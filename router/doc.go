// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the QuickPoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(st, hub, cfg, time.Now())

# Endpoints

Health:

	GET /health          - Liveness check
	GET /health/details  - Counts, live connections, uptime

Surveys:

	POST   /surveys              - Create survey (status ready)
	GET    /surveys              - All surveys, newest first
	GET    /surveys/{id}         - Survey with questions
	PUT    /surveys/{id}         - Replace title and description
	DELETE /surveys/{id}         - Delete survey, close its live connections
	PUT    /surveys/{id}/status  - Start or end (?status=active|finished)
	GET    /surveys/{id}/live    - Waiting count and connection counts
	GET    /join/{code}          - Survey by join code

Questions (ready surveys only):

	POST   /surveys/{id}/questions               - Append
	PUT    /surveys/{id}/questions/{question_id} - Replace
	DELETE /surveys/{id}/questions/{question_id} - Remove

Responses:

	POST /surveys/{id}/responses - Submit (active surveys only)
	GET  /surveys/{id}/responses - List
	GET  /responses/{id}         - Single response

Results:

	GET /surveys/{id}/analytics - Per-question distribution and rating averages
	GET /surveys/{id}/export    - xlsx workbook, one row per response

Live:

	GET /ws/{role}/{survey_id}?session_id=...

Every route except the websocket upgrade and /health is wrapped with
middleware.WithLogging.
*/
package router
