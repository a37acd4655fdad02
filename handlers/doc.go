// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the QuickPoll API.

# Handler Types

Each handler is a struct holding the store and the real-time hub:

  - SurveyHandler: survey CRUD, lookup by join code, status, live stats
  - QuestionHandler: add, replace and remove questions of ready surveys
  - ResponseHandler: submit, list and fetch responses
  - ResultsHandler: analytics and xlsx export
  - LiveHandler: websocket upgrade for hosts and participants
  - HealthHandler: detailed health report

	surveyHandler := handlers.NewSurveyHandler(st, hub)

# Survey Lifecycle

Surveys progress through three states: ready → active → finished.
A host moves a survey with the start_survey and end_survey commands of its
live connection. PUT /surveys/{id}/status?status=active|finished applies the
same transition rules through the hub; participants are notified and no
host receives an acknowledgement.

Deleting a survey closes every live connection attached to it.

# Responses

	POST /surveys/{id}/responses → SubmitResponse (active surveys only)

A stored response is announced to the survey's connected hosts as a
response_submitted event carrying the new response count.

# Live Connections

	GET /ws/{role}/{survey_id}?session_id=...

role is host or participant. The role and session id are validated and the
survey must exist before the connection is upgraded; failures are plain
HTTP errors (400, 404). After the upgrade the request goroutine runs the
session loop until the connection is torn down.

# Error Mapping

	store.ErrSurveyNotFound        → 404
	store.ErrQuestionNotFound      → 404
	store.ErrResponseNotFound      → 404
	store.ErrSurveyNotActive       → 409
	store.ErrSurveyNotEditable     → 409
	realtime.ErrInvalidTransition  → 409
	store.ErrMissingAnswers        → 400
*/
package handlers
