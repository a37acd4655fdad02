// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/models"
	"github.com/danielhkuo/quickpoll/realtime"
	"github.com/danielhkuo/quickpoll/store"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxQuestionLen    = 500
	maxQuestions      = 100
	minChoiceOption   = 2
)

type SurveyHandler struct {
	store *store.Store
	hub   *realtime.Hub
}

func NewSurveyHandler(st *store.Store, hub *realtime.Hub) *SurveyHandler {
	return &SurveyHandler{store: st, hub: hub}
}

// CreateSurvey handles POST /surveys
func (h *SurveyHandler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSurveyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if msg := validateSurvey(&req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	survey, err := h.store.CreateSurvey(r.Context(), req)
	if err != nil {
		slog.Error("failed to create survey", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create survey")
		return
	}

	slog.Info("survey created", "survey_id", survey.Survey.ID, "join_code", survey.Survey.JoinCode,
		"questions", len(survey.Questions))
	middleware.JSONResponse(w, http.StatusCreated, survey)
}

// validateSurvey trims the request in place and returns a message for the
// first problem found
func validateSurvey(req *models.CreateSurveyRequest) string {
	if msg := validateTitle(&req.Title, &req.Description); msg != "" {
		return msg
	}
	if len(req.Questions) == 0 {
		return "at least one question is required"
	}
	if len(req.Questions) > maxQuestions {
		return "too many questions"
	}

	for i := range req.Questions {
		if msg := validateQuestion(&req.Questions[i]); msg != "" {
			return msg
		}
	}
	return ""
}

func validateTitle(title, description *string) string {
	*title = strings.TrimSpace(*title)
	*description = strings.TrimSpace(*description)
	if *title == "" {
		return "title is required"
	}
	if len(*title) > maxTitleLen {
		return "title is too long"
	}
	if len(*description) > maxDescriptionLen {
		return "description is too long"
	}
	return ""
}

func validateQuestion(q *models.CreateQuestionRequest) string {
	q.Title = strings.TrimSpace(q.Title)
	if q.Title == "" {
		return "question title is required"
	}
	if len(q.Title) > maxQuestionLen {
		return "question title is too long"
	}
	if !models.IsValidQuestionType(q.Type) {
		return "unknown question type: " + q.Type
	}
	if q.Type == models.QuestionMultipleChoice || q.Type == models.QuestionSingleChoice {
		if len(q.Options) < minChoiceOption {
			return "choice questions need at least two options"
		}
	}
	return ""
}

// ListSurveys handles GET /surveys
func (h *SurveyHandler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.store.ListSurveys(r.Context())
	if err != nil {
		writeStoreError(w, err, "Failed to list surveys")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, surveys)
}

// UpdateSurvey handles PUT /surveys/{id}
func (h *SurveyHandler) UpdateSurvey(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSurveyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := validateTitle(&req.Title, &req.Description); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	survey, err := h.store.UpdateSurvey(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeStoreError(w, err, "Failed to update survey")
		return
	}
	slog.Info("survey updated", "survey_id", survey.Survey.ID)
	middleware.JSONResponse(w, http.StatusOK, survey)
}

// DeleteSurvey handles DELETE /surveys/{id}
// Live connections to the survey are closed once the rows are gone.
func (h *SurveyHandler) DeleteSurvey(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")
	if err := h.store.DeleteSurvey(r.Context(), surveyID); err != nil {
		writeStoreError(w, err, "Failed to delete survey")
		return
	}

	closed := h.hub.CloseSurvey(surveyID)
	slog.Info("survey deleted", "survey_id", surveyID, "connections_closed", closed)
	middleware.JSONResponse(w, http.StatusOK, models.DeleteSurveyResponse{
		Message:           "Survey deleted",
		ConnectionsClosed: closed,
	})
}

// UpdateStatus handles PUT /surveys/{id}/status?status=active|finished
// It goes through the same lifecycle as a host's live command, so
// participants are notified.
func (h *SurveyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")
	status, err := models.ParseSurveyStatus(r.URL.Query().Get("status"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.hub.SetStatus(r.Context(), surveyID, status); err != nil {
		writeStoreError(w, err, "Failed to update survey status")
		return
	}
	current, err := h.store.SurveyStatus(r.Context(), surveyID)
	if err != nil {
		writeStoreError(w, err, "Failed to update survey status")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SurveyStatusResponse{SurveyID: surveyID, Status: current})
}

// GetSurvey handles GET /surveys/{id}
func (h *SurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	survey, err := h.store.GetSurvey(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "Failed to get survey")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, survey)
}

// GetSurveyByCode handles GET /join/{code}
func (h *SurveyHandler) GetSurveyByCode(w http.ResponseWriter, r *http.Request) {
	survey, err := h.store.GetSurveyByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeStoreError(w, err, "Failed to get survey")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, survey)
}

// GetLiveStats handles GET /surveys/{id}/live
func (h *SurveyHandler) GetLiveStats(w http.ResponseWriter, r *http.Request) {
	survey, err := h.store.GetSurvey(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "Failed to get survey")
		return
	}

	stats := h.hub.Stats(survey.Survey.ID)
	middleware.JSONResponse(w, http.StatusOK, models.LiveStatsResponse{
		SurveyID:               survey.Survey.ID,
		Status:                 survey.Survey.Status,
		WaitingCount:           stats.WaitingCount,
		HostConnections:        stats.Hosts,
		ParticipantConnections: stats.Participants,
		ResponseCount:          survey.Survey.ResponseCount,
	})
}

// writeStoreError maps store sentinels to status codes
func writeStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrSurveyNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Survey not found")
	case errors.Is(err, store.ErrQuestionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
	case errors.Is(err, store.ErrResponseNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Response not found")
	case errors.Is(err, store.ErrSurveyNotActive):
		middleware.ErrorResponse(w, http.StatusConflict, "Survey is not accepting responses")
	case errors.Is(err, store.ErrSurveyNotEditable):
		middleware.ErrorResponse(w, http.StatusConflict, "Survey has already started")
	case errors.Is(err, realtime.ErrInvalidTransition):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrMissingAnswers):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(fallback, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}
