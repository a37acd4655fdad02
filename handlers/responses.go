// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/models"
	"github.com/danielhkuo/quickpoll/realtime"
	"github.com/danielhkuo/quickpoll/store"
)

const maxNameLen = 100

type ResponseHandler struct {
	store *store.Store
	hub   *realtime.Hub
}

func NewResponseHandler(st *store.Store, hub *realtime.Hub) *ResponseHandler {
	return &ResponseHandler{store: st, hub: hub}
}

// SubmitResponse handles POST /surveys/{id}/responses
func (h *ResponseHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	surveyID := r.PathValue("id")

	var req models.SubmitResponseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sessionID, err := auth.NormalizeSessionID(req.SessionID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	req.SessionID = sessionID

	req.ParticipantName = strings.TrimSpace(req.ParticipantName)
	if len(req.ParticipantName) > maxNameLen {
		middleware.ErrorResponse(w, http.StatusBadRequest, "participant_name is too long")
		return
	}

	resp, count, err := h.store.SubmitResponse(r.Context(), surveyID, req)
	if err != nil {
		writeStoreError(w, err, "Failed to submit response")
		return
	}

	hosts := h.hub.NotifyResponseSubmitted(surveyID, count, resp.ParticipantName, resp.SubmittedAt)
	slog.Info("response submitted", "survey_id", surveyID, "response_id", resp.ID,
		"response_count", count, "hosts_notified", hosts)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitResponseResponse{
		ResponseID:    resp.ID,
		ResponseCount: count,
	})
}

// ListResponses handles GET /surveys/{id}/responses
func (h *ResponseHandler) ListResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.store.ListResponses(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "Failed to list responses")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, responses)
}

// GetResponse handles GET /responses/{id}
func (h *ResponseHandler) GetResponse(w http.ResponseWriter, r *http.Request) {
	resp, err := h.store.GetResponse(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "Failed to get response")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
