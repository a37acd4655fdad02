// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickpoll/models"
	"github.com/danielhkuo/quickpoll/realtime"
	"github.com/danielhkuo/quickpoll/store"
	"github.com/danielhkuo/quickpoll/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *store.Store) {
	t.Helper()
	st := testutil.SetupTestStore(t)
	hub := realtime.NewHub(st, realtime.DefaultOptions())
	return NewRouter(st, hub, testutil.GetTestConfig(), time.Now()), st
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	expected := "quickpoll API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := newTestRouter(t)

	// 400 and 404 are valid handler answers here; 405 means no route
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/health/details"},
		{"GET", "/"},
		{"POST", "/surveys"},
		{"GET", "/surveys"},
		{"GET", "/surveys/test-id"},
		{"PUT", "/surveys/test-id"},
		{"DELETE", "/surveys/test-id"},
		{"PUT", "/surveys/test-id/status"},
		{"GET", "/surveys/test-id/live"},
		{"GET", "/join/ABC123"},
		{"POST", "/surveys/test-id/questions"},
		{"PUT", "/surveys/test-id/questions/q-id"},
		{"DELETE", "/surveys/test-id/questions/q-id"},
		{"POST", "/surveys/test-id/responses"},
		{"GET", "/surveys/test-id/responses"},
		{"GET", "/responses/r-id"},
		{"GET", "/surveys/test-id/analytics"},
		{"GET", "/surveys/test-id/export"},
		{"GET", "/ws/host/test-id"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	mux, _ := newTestRouter(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"PATCH a survey", "PATCH", "/surveys/test-id", http.StatusMethodNotAllowed},
		{"delete unknown survey", "DELETE", "/surveys/test-id", http.StatusNotFound},
		{"update unknown survey", "PUT", "/surveys/test-id", http.StatusBadRequest},
		{"analytics for unknown survey", "GET", "/surveys/test-id/analytics", http.StatusNotFound},
		{"export unknown survey", "GET", "/surveys/test-id/export", http.StatusNotFound},
		{"status without value", "PUT", "/surveys/test-id/status", http.StatusBadRequest},
		{"unknown response", "GET", "/responses/r-id", http.StatusNotFound},
		{"POST to live stats", "POST", "/surveys/test-id/live", http.StatusMethodNotAllowed},
		{"unknown survey", "GET", "/surveys/test-id", http.StatusNotFound},
		{"websocket unknown role", "GET", "/ws/admin/test-id", http.StatusBadRequest},
		{"websocket unknown survey", "GET", "/ws/participant/test-id", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	mux, st := newTestRouter(t)
	survey := testutil.CreateTestSurvey(t, st, models.StatusReady)

	for _, path := range []string{
		"/surveys",
		"/surveys/" + survey.Survey.ID,
		"/surveys/" + survey.Survey.ID + "/live",
		"/surveys/" + survey.Survey.ID + "/responses",
		"/surveys/" + survey.Survey.ID + "/analytics",
		"/surveys/" + survey.Survey.ID + "/export",
		"/join/" + survey.Survey.JoinCode,
	} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestRoutesDoNotFallThroughToRoot(t *testing.T) {
	mux, st := newTestRouter(t)
	survey := testutil.CreateTestSurvey(t, st, models.StatusReady)

	for _, path := range []string{
		"/surveys",
		"/surveys/" + survey.Survey.ID + "/analytics",
		"/surveys/" + survey.Survey.ID + "/export",
	} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Body.String() == "quickpoll API v1" {
			t.Errorf("GET %s was served by the root handler", path)
		}
	}
}
