// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /surveys/{id}", middleware.WithLogging(handler))

Logs request start (method, path, client IP) and completion (status,
duration_ms). The live websocket route is not wrapped because the upgrade
hijacks the response writer.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(cfg.OriginAllowed, mux),
	}

Allowed origins are echoed back with credentials; requests without an
Origin header get a wildcard.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.CreateSurveyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r)
*/
package middleware
