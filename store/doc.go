// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store reads and writes surveys, questions and responses.

Queries are built with github.com/Masterminds/squirrel. The placeholder
style follows the database type: "?" for SQLite and "$1" for PostgreSQL.

	st := store.New(conn, cfg.DatabaseType)
	survey, err := st.CreateSurvey(ctx, req)

# Status

New surveys start in ready status. SetSurveyStatus writes status without
checking the transition; the real-time lifecycle controller owns that rule.
Store satisfies realtime.StatusStore.

Questions can be added, replaced or removed only while a survey is ready.
Positions only grow, so an added question always lands last.

# Results

Analytics counts answers per choice and yes/no option and averages ratings
on the 1..5 scale; out of range ratings are ignored.

# Responses

SubmitResponse accepts responses only while a survey is active and only
when every required question has a non-null answer. The response insert and
the response_count increment share one transaction.

# Errors

	ErrSurveyNotFound   no survey with that id or join code
	ErrSurveyNotActive  survey is ready or finished
	ErrSurveyNotEditable  survey has left ready status
	ErrQuestionNotFound  no such question on that survey
	ErrResponseNotFound  no response with that id
	ErrMissingAnswers   wrapped with the missing question ids
*/
package store
