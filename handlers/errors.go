// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/expovote/middleware"
	"github.com/danielhkuo/expovote/models"
)

// statusFor maps a pipeline error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrMalformed), errors.Is(err, models.ErrIdentification):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidSignature), errors.Is(err, models.ErrDeviceLimitReached):
		return http.StatusForbidden
	case errors.Is(err, models.ErrExpired):
		return http.StatusGone
	case errors.Is(err, models.ErrUnknownProject):
		return http.StatusNotFound
	case errors.Is(err, models.ErrQuotaExceeded):
		return http.StatusConflict
	case errors.Is(err, models.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the status and user message for err
func writeError(w http.ResponseWriter, err error) {
	middleware.ErrorResponse(w, statusFor(err), models.UserMessage(err))
}

// writeBodyError responds to a request body that failed to parse
func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
}

// projectID parses the {id} path value
func projectID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
