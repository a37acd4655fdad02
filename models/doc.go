// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateSurveyRequest: title, description, questions
  - CreateQuestionRequest: title, type, options, required, description
  - SubmitResponseRequest: session_id, participant_name, answers

# Response Types

Types for JSON responses:

  - SubmitResponseResponse: response_id, response_count
  - LiveStatsResponse: waiting and connection counts for a survey
  - HealthDetailsResponse: database counts and uptime
  - ErrorResponse: error, message

# Domain Types

  - Survey: survey metadata, join code and lifecycle status
  - Question: ordered question with type and options
  - Response: one participant's answers
  - Answer: raw JSON answer keyed by question ID

# Constants

Status values:

	StatusReady    = "ready"
	StatusActive   = "active"
	StatusFinished = "finished"

Question types:

	QuestionMultipleChoice = "multiple_choice"
	QuestionSingleChoice   = "single_choice"
	QuestionText           = "text"
	QuestionRating         = "rating"
	QuestionYesNo          = "yes_no"
*/
package models
