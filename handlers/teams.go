// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/expovote/auth"
	"github.com/danielhkuo/expovote/cliparse"
	"github.com/danielhkuo/expovote/db"
	"github.com/danielhkuo/expovote/devicelock"
	"github.com/danielhkuo/expovote/middleware"
	"github.com/danielhkuo/expovote/models"
)

type TeamsHandler struct {
	store    *db.Store
	registry *devicelock.Registry
	cfg      cliparse.Config
}

func NewTeamsHandler(store *db.Store, registry *devicelock.Registry, cfg cliparse.Config) *TeamsHandler {
	return &TeamsHandler{store: store, registry: registry, cfg: cfg}
}

// ListTeams handles GET /teams
func (h *TeamsHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context(), h.cfg.StoreTimeout)
	defer cancel()

	teams, err := h.store.ListTeams(ctx)
	if err != nil {
		slog.Error("failed to list teams", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListTeamsResponse{Teams: teams})
}

// CreateTeam handles POST /admin/teams
func (h *TeamsHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req models.CreateTeamRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	req.ProjectTitle = strings.TrimSpace(req.ProjectTitle)
	if req.ID <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	if req.ProjectTitle == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "project_title is required")
		return
	}

	ctx, cancel := withTimeout(r.Context(), h.cfg.StoreTimeout)
	defer cancel()

	team := models.Team{ID: req.ID, Title: req.ProjectTitle}
	if err := h.store.UpsertTeam(ctx, team); err != nil {
		slog.Error("failed to save team", "error", err, "project_id", req.ID)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Failed to save team")
		return
	}

	slog.Info("team saved", "project_id", team.ID)
	middleware.JSONResponse(w, http.StatusCreated, team)
}

// ListDevices handles GET /admin/teams/{id}/devices
func (h *TeamsHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, ok := projectID(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := withTimeout(r.Context(), h.cfg.StoreTimeout)
	defer cancel()

	links, err := h.store.DeviceLinks(ctx, id)
	if err != nil {
		slog.Error("failed to list device links", "error", err, "project_id", id)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DeviceLinksResponse{ProjectID: id, Links: links})
}

// ResetDevices handles DELETE /admin/teams/{id}/devices
func (h *TeamsHandler) ResetDevices(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, ok := projectID(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid project id")
		return
	}

	ctx, cancel := withTimeout(r.Context(), h.cfg.StoreTimeout)
	defer cancel()

	removed, err := h.store.ResetDeviceLinks(ctx, id)
	if err != nil {
		slog.Error("failed to reset device links", "error", err, "project_id", id)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Failed to reset devices")
		return
	}
	h.registry.Forget(id)

	slog.Info("device links reset", "project_id", id, "removed", removed)
	middleware.JSONResponse(w, http.StatusOK, models.ResetDevicesResponse{ProjectID: id, Removed: removed})
}

// GetResults handles GET /admin/results
func (h *TeamsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	ctx, cancel := withTimeout(r.Context(), h.cfg.StoreTimeout)
	defer cancel()

	tallies, err := h.store.Tally(ctx)
	if err != nil {
		slog.Error("failed to tally votes", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database error")
		return
	}

	for i := range tallies {
		if tallies[i].LastVoteAt != nil {
			tallies[i].LastVote = humanize.Time(*tallies[i].LastVoteAt)
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{Results: tallies})
}

func (h *TeamsHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	err := auth.ValidateAdminKey(r.Header.Get(middleware.AdminKeyHeader), h.cfg.AdminKey)
	switch {
	case err == nil:
		return true
	case errors.Is(err, auth.ErrAdminDisabled):
		middleware.ErrorResponse(w, http.StatusForbidden, "Admin API is disabled")
	default:
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
	}
	return false
}
