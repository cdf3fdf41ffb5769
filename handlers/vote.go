// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/expovote/admission"
	"github.com/danielhkuo/expovote/cliparse"
	"github.com/danielhkuo/expovote/middleware"
	"github.com/danielhkuo/expovote/models"
)

type VoteHandler struct {
	ctrl *admission.Controller
	cfg  cliparse.Config
}

func NewVoteHandler(ctrl *admission.Controller, cfg cliparse.Config) *VoteHandler {
	return &VoteHandler{ctrl: ctrl, cfg: cfg}
}

// CastFromLink handles GET /vote?data=, the URL encoded in the QR code
func (h *VoteHandler) CastFromLink(w http.ResponseWriter, r *http.Request) {
	h.admit(w, r, r.URL.Query().Get("data"))
}

// SubmitVote handles POST /votes
func (h *VoteHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	h.admit(w, r, req.Data)
}

func (h *VoteHandler) admit(w http.ResponseWriter, r *http.Request, token string) {
	if token == "" {
		writeError(w, models.ErrMalformed)
		return
	}

	var voter *models.Voter
	if h.cfg.VoterIdentity == models.IdentityScanner {
		d := middleware.GetDevice(r)
		voter = &models.Voter{Fingerprint: d.Fingerprint, Address: d.Address}
	}

	outcome, err := h.ctrl.Admit(r.Context(), token, voter)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.VoteResponse{
		ProjectID: outcome.ProjectID,
		Title:     outcome.ProjectTitle,
		VoteID:    outcome.VoteID,
		Message:   models.RecordedMessage(outcome.ProjectTitle),
	})
}
