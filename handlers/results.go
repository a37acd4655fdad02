// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/models"
	"github.com/danielhkuo/quickpoll/store"
)

const (
	responsesSheet  = "Responses"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ResultsHandler struct {
	store *store.Store
}

func NewResultsHandler(st *store.Store) *ResultsHandler {
	return &ResultsHandler{store: st}
}

// Analytics handles GET /surveys/{id}/analytics
func (h *ResultsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.store.Analytics(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "Failed to compute analytics")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, analytics)
}

// Export handles GET /surveys/{id}/export
// Responds with an xlsx workbook: one row per response, one column per question.
func (h *ResultsHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	survey, err := h.store.GetSurvey(ctx, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err, "Failed to export survey")
		return
	}
	responses, err := h.store.ListResponses(ctx, survey.Survey.ID)
	if err != nil {
		writeStoreError(w, err, "Failed to export survey")
		return
	}

	f, err := buildWorkbook(survey, responses)
	if err != nil {
		slog.Error("failed to build workbook", "survey_id", survey.Survey.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export survey")
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("failed to write workbook", "survey_id", survey.Survey.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export survey")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="survey-%s.xlsx"`, survey.Survey.JoinCode))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("export interrupted", "survey_id", survey.Survey.ID, "error", err)
		return
	}
	slog.Info("survey exported", "survey_id", survey.Survey.ID, "responses", len(responses))
}

func buildWorkbook(survey models.SurveyWithQuestions, responses []models.Response) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", responsesSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := []any{"Submitted at", "Participant"}
	for _, q := range survey.Questions {
		header = append(header, q.Title)
	}
	if err := f.SetSheetRow(responsesSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for i, resp := range responses {
		answers := make(map[string]string, len(resp.Answers))
		for _, a := range resp.Answers {
			answers[a.QuestionID] = strings.Join(a.Values(), ", ")
		}
		row := []any{resp.SubmittedAt.UTC().Format(time.RFC3339), resp.ParticipantName}
		for _, q := range survey.Questions {
			row = append(row, answers[q.ID])
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(responsesSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}
