// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickpoll/cliparse"
	"github.com/danielhkuo/quickpoll/db"
	"github.com/danielhkuo/quickpoll/models"
	"github.com/danielhkuo/quickpoll/store"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := GetTestConfig()
	conn, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// SetupTestStore returns a store backed by SetupTestDB
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(SetupTestDB(t), cliparse.DatabaseSQLite)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              8000,
		DatabaseURL:       ":memory:",
		DatabaseType:      cliparse.DatabaseSQLite,
		HeartbeatInterval: 30 * time.Second,
		WriteTimeout:      time.Second,
		MaxMalformed:      3,
		AllowedOrigins:    []string{"*"},
		LogLevel:          slog.LevelInfo,
	}
}

// TestSurveyRequest is a two-question survey: one required choice, one optional text
func TestSurveyRequest() models.CreateSurveyRequest {
	optional := false
	return models.CreateSurveyRequest{
		Title:       "Test Survey",
		Description: "A test survey",
		Questions: []models.CreateQuestionRequest{
			{Title: "Favourite colour", Type: models.QuestionSingleChoice, Options: []string{"Red", "Blue"}},
			{Title: "Anything else?", Type: models.QuestionText, Required: &optional},
		},
	}
}

// CreateTestSurvey stores TestSurveyRequest and moves it to the given status
func CreateTestSurvey(t *testing.T, st *store.Store, status models.SurveyStatus) models.SurveyWithQuestions {
	t.Helper()

	ctx := context.Background()
	survey, err := st.CreateSurvey(ctx, TestSurveyRequest())
	if err != nil {
		t.Fatalf("Failed to create test survey: %v", err)
	}
	if status != models.StatusReady {
		if err := st.SetSurveyStatus(ctx, survey.Survey.ID, status); err != nil {
			t.Fatalf("Failed to set survey status: %v", err)
		}
		survey.Survey.Status = status
	}
	return survey
}

// AnswerAll builds a response that answers every question of the survey
func AnswerAll(survey models.SurveyWithQuestions, sessionID, name string) models.SubmitResponseRequest {
	req := models.SubmitResponseRequest{SessionID: sessionID, ParticipantName: name}
	for _, q := range survey.Questions {
		req.Answers = append(req.Answers, models.Answer{
			QuestionID: q.ID,
			Answer:     json.RawMessage(`"ok"`),
		})
	}
	return req
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
