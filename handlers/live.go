// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/cliparse"
	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/realtime"
	"github.com/danielhkuo/quickpoll/store"
)

// LiveHandler upgrades survey connections and hands them to the hub
type LiveHandler struct {
	store        *store.Store
	hub          *realtime.Hub
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
}

func NewLiveHandler(st *store.Store, hub *realtime.Hub, cfg cliparse.Config) *LiveHandler {
	return &LiveHandler{
		store: st,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || cfg.OriginAllowed(origin)
			},
		},
		writeTimeout: cfg.WriteTimeout,
	}
}

// Serve handles GET /ws/{role}/{survey_id}?session_id=
// It blocks until the connection has been torn down.
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	role, err := realtime.ParseRole(r.PathValue("role"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID, err := auth.NormalizeSessionID(r.URL.Query().Get("session_id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	surveyID := r.PathValue("survey_id")
	if _, err := h.store.SurveyStatus(r.Context(), surveyID); err != nil {
		if errors.Is(err, store.ErrSurveyNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Survey not found")
			return
		}
		slog.Error("failed to look up survey for live connection", "survey_id", surveyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to open live connection")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		slog.Warn("websocket upgrade failed", "survey_id", surveyID, "remote", middleware.GetClientIP(r), "error", err)
		return
	}

	slog.Info("live connection accepted", "survey_id", surveyID, "role", role, "remote", middleware.GetClientIP(r))
	h.hub.Serve(r.Context(), realtime.NewWebSocketConn(ws, h.writeTimeout), surveyID, role, sessionID)
}
