// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"time"

	"github.com/danielhkuo/quickpoll/cliparse"
	"github.com/danielhkuo/quickpoll/handlers"
	"github.com/danielhkuo/quickpoll/middleware"
	"github.com/danielhkuo/quickpoll/realtime"
	"github.com/danielhkuo/quickpoll/store"
)

func NewRouter(st *store.Store, hub *realtime.Hub, cfg cliparse.Config, startedAt time.Time) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	surveyHandler := handlers.NewSurveyHandler(st, hub)
	questionHandler := handlers.NewQuestionHandler(st)
	responseHandler := handlers.NewResponseHandler(st, hub)
	resultsHandler := handlers.NewResultsHandler(st)
	liveHandler := handlers.NewLiveHandler(st, hub, cfg)
	healthHandler := handlers.NewHealthHandler(st, hub, cfg.DatabaseType, startedAt)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /health/details", middleware.WithLogging(healthHandler.Details))

	// Surveys
	mux.HandleFunc("POST /surveys", middleware.WithLogging(surveyHandler.CreateSurvey))
	mux.HandleFunc("GET /surveys", middleware.WithLogging(surveyHandler.ListSurveys))
	mux.HandleFunc("GET /surveys/{id}", middleware.WithLogging(surveyHandler.GetSurvey))
	mux.HandleFunc("PUT /surveys/{id}", middleware.WithLogging(surveyHandler.UpdateSurvey))
	mux.HandleFunc("DELETE /surveys/{id}", middleware.WithLogging(surveyHandler.DeleteSurvey))
	mux.HandleFunc("PUT /surveys/{id}/status", middleware.WithLogging(surveyHandler.UpdateStatus))
	mux.HandleFunc("GET /surveys/{id}/live", middleware.WithLogging(surveyHandler.GetLiveStats))
	mux.HandleFunc("GET /join/{code}", middleware.WithLogging(surveyHandler.GetSurveyByCode))

	// Questions (ready surveys only)
	mux.HandleFunc("POST /surveys/{id}/questions", middleware.WithLogging(questionHandler.AddQuestion))
	mux.HandleFunc("PUT /surveys/{id}/questions/{question_id}", middleware.WithLogging(questionHandler.UpdateQuestion))
	mux.HandleFunc("DELETE /surveys/{id}/questions/{question_id}", middleware.WithLogging(questionHandler.DeleteQuestion))

	// Responses
	mux.HandleFunc("POST /surveys/{id}/responses", middleware.WithLogging(responseHandler.SubmitResponse))
	mux.HandleFunc("GET /surveys/{id}/responses", middleware.WithLogging(responseHandler.ListResponses))
	mux.HandleFunc("GET /responses/{id}", middleware.WithLogging(responseHandler.GetResponse))

	// Results
	mux.HandleFunc("GET /surveys/{id}/analytics", middleware.WithLogging(resultsHandler.Analytics))
	mux.HandleFunc("GET /surveys/{id}/export", middleware.WithLogging(resultsHandler.Export))

	// Live connections (not wrapped: the upgrade hijacks the writer)
	mux.HandleFunc("GET /ws/{role}/{survey_id}", liveHandler.Serve)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickpoll API v1"))
	})

	return mux
}
