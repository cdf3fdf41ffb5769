// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/skip2/go-qrcode"

	"github.com/danielhkuo/expovote/auth"
	"github.com/danielhkuo/expovote/cliparse"
	"github.com/danielhkuo/expovote/db"
	"github.com/danielhkuo/expovote/display"
	"github.com/danielhkuo/expovote/middleware"
	"github.com/danielhkuo/expovote/models"
	"github.com/danielhkuo/expovote/payload"
)

// QRSize is the edge length in pixels of generated QR images
const QRSize = 320

type DisplayHandler struct {
	store    *db.Store
	registry display.Authorizer
	rotator  *auth.Rotator
	codec    *payload.Codec
	cfg      cliparse.Config
}

func NewDisplayHandler(store *db.Store, registry display.Authorizer, rotator *auth.Rotator, codec *payload.Codec, cfg cliparse.Config) *DisplayHandler {
	return &DisplayHandler{
		store:    store,
		registry: registry,
		rotator:  rotator,
		codec:    codec,
		cfg:      cfg,
	}
}

// GetLink handles GET /projects/{id}/link
func (h *DisplayHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	team, link, ok := h.mint(w, r)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteLinkResponse{
		ProjectID:   team.ID,
		Title:       team.Title,
		URL:         link.URL,
		Bucket:      link.Bucket,
		ExpiresAt:   link.ExpiresAt,
		RefreshInMS: link.RefreshAt.Sub(h.rotator.Now()).Milliseconds(),
	})
}

// GetQR handles GET /projects/{id}/qr.png
func (h *DisplayHandler) GetQR(w http.ResponseWriter, r *http.Request) {
	_, link, ok := h.mint(w, r)
	if !ok {
		return
	}

	png, err := qrcode.Encode(link.URL, qrcode.Medium, QRSize)
	if err != nil {
		slog.Error("failed to render QR code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// mint resolves the team and mints a link for the calling device. On
// failure it writes the response and returns false.
func (h *DisplayHandler) mint(w http.ResponseWriter, r *http.Request) (models.Team, display.Link, bool) {
	id, ok := projectID(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid project id")
		return models.Team{}, display.Link{}, false
	}

	ctx, cancel := withTimeout(r.Context(), h.cfg.StoreTimeout)
	defer cancel()

	team, err := h.store.Team(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, models.ErrUnknownProject)
		return models.Team{}, display.Link{}, false
	}
	if err != nil {
		slog.Error("failed to query team", "error", err, "project_id", id)
		writeError(w, models.ErrPersistence)
		return models.Team{}, display.Link{}, false
	}

	session := display.NewSession(h.rotator, h.codec, h.registry, id, middleware.GetDevice(r), display.Options{
		BaseURL:        h.cfg.BaseURL,
		ValidityWindow: h.cfg.ValidityWindow,
	})
	link, err := session.Mint(r.Context())
	if err != nil {
		writeError(w, err)
		return models.Team{}, display.Link{}, false
	}

	return team, link, true
}
