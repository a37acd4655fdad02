// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SurveyStatus is the lifecycle state of a survey: ready → active → finished.
type SurveyStatus string

const (
	StatusReady    SurveyStatus = "ready"
	StatusActive   SurveyStatus = "active"
	StatusFinished SurveyStatus = "finished"
)

// ParseSurveyStatus validates a stored status value
func ParseSurveyStatus(s string) (SurveyStatus, error) {
	switch SurveyStatus(s) {
	case StatusReady, StatusActive, StatusFinished:
		return SurveyStatus(s), nil
	}
	return "", fmt.Errorf("unknown survey status %q", s)
}

// MaxRating is the top of the rating scale; ratings run from 1.
const MaxRating = 5

// Question type constants
const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionSingleChoice   = "single_choice"
	QuestionText           = "text"
	QuestionRating         = "rating"
	QuestionYesNo          = "yes_no"
)

// IsValidQuestionType reports whether t is one of the question type constants
func IsValidQuestionType(t string) bool {
	switch t {
	case QuestionMultipleChoice, QuestionSingleChoice, QuestionText, QuestionRating, QuestionYesNo:
		return true
	}
	return false
}

// Request types

type CreateQuestionRequest struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Options     []string `json:"options,omitempty"`
	Required    *bool    `json:"required,omitempty"` // defaults to true
	Description string   `json:"description,omitempty"`
}

type CreateSurveyRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Questions   []CreateQuestionRequest `json:"questions"`
}

type UpdateSurveyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Answer is one question's answer; the value may be a string, list, number or bool
type Answer struct {
	QuestionID string          `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
}

// Values flattens the answer into display strings. Lists yield one value per
// element, booleans become yes/no, and null or empty strings yield nothing.
func (a Answer) Values() []string {
	var v any
	if len(a.Answer) == 0 || json.Unmarshal(a.Answer, &v) != nil {
		return nil
	}
	return flatten(v)
}

func flatten(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		return []string{x}
	case bool:
		if x {
			return []string{"yes"}
		}
		return []string{"no"}
	case float64:
		return []string{strconv.FormatFloat(x, 'f', -1, 64)}
	case []any:
		var out []string
		for _, e := range x {
			out = append(out, flatten(e)...)
		}
		return out
	default:
		b, _ := json.Marshal(x)
		return []string{string(b)}
	}
}

type SubmitResponseRequest struct {
	SessionID       string   `json:"session_id"`
	ParticipantName string   `json:"participant_name"`
	Answers         []Answer `json:"answers"`
}

// Domain types

type Survey struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	JoinCode      string       `json:"join_code"`
	Status        SurveyStatus `json:"status"`
	ResponseCount int          `json:"response_count"`
	CreatedAt     time.Time    `json:"created_at"`
}

type Question struct {
	ID          string   `json:"id"`
	SurveyID    string   `json:"survey_id"`
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Options     []string `json:"options"`
	Required    bool     `json:"required"`
	Description string   `json:"description,omitempty"`
	Position    int      `json:"position"`
}

type SurveyWithQuestions struct {
	Survey    Survey     `json:"survey"`
	Questions []Question `json:"questions"`
}

type Response struct {
	ID              string    `json:"id"`
	SurveyID        string    `json:"survey_id"`
	SessionID       string    `json:"-"` // Never expose in JSON
	ParticipantName string    `json:"participant_name"`
	Answers         []Answer  `json:"answers"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// Response types

type SubmitResponseResponse struct {
	ResponseID    string `json:"response_id"`
	ResponseCount int    `json:"response_count"`
}

type LiveStatsResponse struct {
	SurveyID               string       `json:"survey_id"`
	Status                 SurveyStatus `json:"status"`
	WaitingCount           int          `json:"waiting_count"`
	HostConnections        int          `json:"host_connections"`
	ParticipantConnections int          `json:"participant_connections"`
	ResponseCount          int          `json:"response_count"`
}

type SurveyStatusResponse struct {
	SurveyID string       `json:"survey_id"`
	Status   SurveyStatus `json:"status"`
}

type DeleteSurveyResponse struct {
	Message           string `json:"message"`
	ConnectionsClosed int    `json:"connections_closed"`
}

// SurveyAnalytics summarises the answers a survey has collected, one entry
// per question in survey order.
type SurveyAnalytics struct {
	SurveyID       string              `json:"survey_id"`
	TotalResponses int                 `json:"total_responses"`
	Questions      []QuestionAnalytics `json:"questions"`
}

// QuestionAnalytics holds the distribution for choice and yes/no questions,
// or the average and distribution for rating questions. Text questions only
// report how many answers they got.
type QuestionAnalytics struct {
	QuestionID         string         `json:"question_id"`
	QuestionTitle      string         `json:"question_title"`
	QuestionType       string         `json:"question_type"`
	TotalAnswers       int            `json:"total_answers"`
	AnswerDistribution map[string]int `json:"answer_distribution,omitempty"`
	AverageRating      *float64       `json:"average_rating,omitempty"`
	RatingDistribution map[string]int `json:"rating_distribution,omitempty"`
}

type HealthDetailsResponse struct {
	Status          string `json:"status"`
	Database        string `json:"database"`
	SurveysCount    int    `json:"surveys_count"`
	ResponsesCount  int    `json:"responses_count"`
	LiveConnections int    `json:"live_connections"`
	Started         string `json:"started"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
