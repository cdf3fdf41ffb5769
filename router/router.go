// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/expovote/admission"
	"github.com/danielhkuo/expovote/auth"
	"github.com/danielhkuo/expovote/cliparse"
	"github.com/danielhkuo/expovote/db"
	"github.com/danielhkuo/expovote/devicelock"
	"github.com/danielhkuo/expovote/handlers"
	"github.com/danielhkuo/expovote/middleware"
	"github.com/danielhkuo/expovote/payload"
)

func NewRouter(store *db.Store, cfg cliparse.Config, opts ...auth.RotatorOption) (*http.ServeMux, error) {
	mux := http.NewServeMux()

	rotator := auth.NewRotator(cfg.SharedSecret, cfg.BucketWidth, opts...)
	codec, err := payload.NewCodec(cfg.SharedSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create payload codec: %w", err)
	}
	registry := devicelock.NewRegistry(store, cfg.MaxDevices, cfg.RegistryCacheTTL, cfg.StoreTimeout)
	ctrl := admission.New(codec, rotator, store, admission.Policy{
		ValidityWindow: cfg.ValidityWindow,
		MaxVotes:       cfg.MaxVotes,
		StoreTimeout:   cfg.StoreTimeout,
	})

	// Initialize handlers
	displayHandler := handlers.NewDisplayHandler(store, registry, rotator, codec, cfg)
	voteHandler := handlers.NewVoteHandler(ctrl, cfg)
	teamsHandler := handlers.NewTeamsHandler(store, registry, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /teams", middleware.WithLogging(teamsHandler.ListTeams))

	// Display side
	mux.HandleFunc("GET /projects/{id}/link", middleware.WithLogging(displayHandler.GetLink))
	mux.HandleFunc("GET /projects/{id}/qr.png", middleware.WithLogging(displayHandler.GetQR))

	// Voting side
	mux.HandleFunc("GET /vote", middleware.WithLogging(voteHandler.CastFromLink))
	mux.HandleFunc("POST /votes", middleware.WithLogging(voteHandler.SubmitVote))

	// Admin
	mux.HandleFunc("POST /admin/teams", middleware.WithLogging(teamsHandler.CreateTeam))
	mux.HandleFunc("GET /admin/teams/{id}/devices", middleware.WithLogging(teamsHandler.ListDevices))
	mux.HandleFunc("DELETE /admin/teams/{id}/devices", middleware.WithLogging(teamsHandler.ResetDevices))
	mux.HandleFunc("GET /admin/results", middleware.WithLogging(teamsHandler.GetResults))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("expovote API v1"))
	})

	return mux, nil
}
