// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/models"
	"github.com/danielhkuo/quickpoll/store"
)

// QuestionHandler edits the questions of surveys that have not started yet.
type QuestionHandler struct {
	store *store.Store
}

func NewQuestionHandler(st *store.Store) *QuestionHandler {
	return &QuestionHandler{store: st}
}

// AddQuestion handles POST /surveys/{id}/questions
func (h *QuestionHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := validateQuestion(&req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	q, err := h.store.AddQuestion(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeStoreError(w, err, "Failed to add question")
		return
	}
	slog.Info("question added", "survey_id", q.SurveyID, "question_id", q.ID, "position", q.Position)
	middleware.JSONResponse(w, http.StatusCreated, q)
}

// UpdateQuestion handles PUT /surveys/{id}/questions/{question_id}
func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := validateQuestion(&req); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	q, err := h.store.UpdateQuestion(r.Context(), r.PathValue("id"), r.PathValue("question_id"), req)
	if err != nil {
		writeStoreError(w, err, "Failed to update question")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, q)
}

// DeleteQuestion handles DELETE /surveys/{id}/questions/{question_id}
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	surveyID, questionID := r.PathValue("id"), r.PathValue("question_id")
	if err := h.store.DeleteQuestion(r.Context(), surveyID, questionID); err != nil {
		writeStoreError(w, err, "Failed to delete question")
		return
	}
	slog.Info("question deleted", "survey_id", surveyID, "question_id", questionID)
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"message": "Question deleted"})
}
