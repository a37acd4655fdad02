// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/models"
	"github.com/danielhkuo/quickpoll/realtime"
	"github.com/danielhkuo/quickpoll/store"
)

type HealthHandler struct {
	store     *store.Store
	hub       *realtime.Hub
	dbType    string
	startedAt time.Time
}

func NewHealthHandler(st *store.Store, hub *realtime.Hub, dbType string, startedAt time.Time) *HealthHandler {
	return &HealthHandler{store: st, hub: hub, dbType: dbType, startedAt: startedAt}
}

// Details handles GET /health/details
func (h *HealthHandler) Details(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthDetailsResponse{
		Status:          "ok",
		Database:        h.dbType,
		LiveConnections: h.hub.Connections(),
		Started:         humanize.Time(h.startedAt),
	}

	surveys, err := h.store.CountSurveys(r.Context())
	if err == nil {
		resp.ResponsesCount, err = h.store.CountResponses(r.Context())
	}
	if err != nil {
		slog.Error("health check query failed", "error", err)
		resp.Status = "degraded"
		middleware.JSONResponse(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.SurveysCount = surveys

	middleware.JSONResponse(w, http.StatusOK, resp)
}
