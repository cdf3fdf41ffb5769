// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /teams", middleware.WithLogging(handler))

Logs completion with method, route pattern, status and duration_ms. The
level follows the status: warn for 4xx, error for 5xx.

# Metrics

	server := http.Server{
		Handler: middleware.CORS(middleware.Metrics(mux)),
	}

Counts requests and observes latency labelled by the matched ServeMux
pattern.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

Bodies larger than MaxBodyBytes fail with *http.MaxBytesError.

# Client Identity

	ip := middleware.GetClientIP(r)    // X-Forwarded-For, X-Real-IP, RemoteAddr
	device := middleware.GetDevice(r)  // X-Device-Fingerprint plus client IP
*/
package middleware
