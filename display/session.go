// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielhkuo/expovote/auth"
	"github.com/danielhkuo/expovote/devicelock"
	"github.com/danielhkuo/expovote/models"
	"github.com/danielhkuo/expovote/payload"
)

var tokensMinted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "expovote_tokens_minted_total",
	Help: "Vote tokens minted for displays.",
})

// minimum wait between mints when a boundary was already passed
const minRefresh = 10 * time.Millisecond

// Authorizer decides whether a device may display a project
type Authorizer interface {
	Authorize(ctx context.Context, projectID int64, fingerprint string) (devicelock.Decision, error)
}

// Options configures the links a session mints
type Options struct {
	BaseURL        string
	ValidityWindow int
}

// Link is one minted vote link
type Link struct {
	URL       string
	Token     string
	Bucket    int64
	RefreshAt time.Time // start of the next bucket
	ExpiresAt time.Time // first instant the token is rejected
}

// Session mints vote links for one project on one display device
type Session struct {
	rotator   *auth.Rotator
	codec     *payload.Codec
	registry  Authorizer
	opts      Options
	projectID int64
	device    models.Device
}

func NewSession(rotator *auth.Rotator, codec *payload.Codec, registry Authorizer, projectID int64, device models.Device, opts Options) *Session {
	if device.Address == "" {
		device.Address = models.UnknownAddress
	}
	return &Session{
		rotator:   rotator,
		codec:     codec,
		registry:  registry,
		opts:      opts,
		projectID: projectID,
		device:    device,
	}
}

// Mint authorizes the device and encodes a token for the current bucket
func (s *Session) Mint(ctx context.Context) (Link, error) {
	if s.device.Fingerprint == "" {
		return Link{}, models.ErrIdentification
	}

	if _, err := s.registry.Authorize(ctx, s.projectID, s.device.Fingerprint); err != nil {
		return Link{}, err
	}

	bucket := s.rotator.CurrentBucket()
	token, err := s.codec.Encode(payload.Payload{
		ProjectID:    s.projectID,
		Bucket:       bucket,
		BucketSecret: s.rotator.Sign(bucket),
		Fingerprint:  s.device.Fingerprint,
		Address:      s.device.Address,
	})
	if err != nil {
		return Link{}, fmt.Errorf("failed to encode payload: %w", err)
	}
	tokensMinted.Inc()

	return Link{
		URL:       payload.VoteLink(s.opts.BaseURL, token),
		Token:     token,
		Bucket:    bucket,
		RefreshAt: s.rotator.BucketStart(bucket + 1),
		ExpiresAt: s.rotator.BucketStart(bucket + int64(s.opts.ValidityWindow) + 1),
	}, nil
}

// Run mints a link now and again at every bucket boundary, passing each to
// publish, until ctx is cancelled. Store failures are logged and retried at
// the next boundary; a denied or unidentified device ends the run.
func (s *Session) Run(ctx context.Context, publish func(Link)) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		link, err := s.Mint(ctx)
		switch {
		case err == nil:
			publish(link)
		case errors.Is(err, models.ErrPersistence):
			slog.Warn("failed to mint vote link", "error", err, "project_id", s.projectID)
		default:
			return err
		}

		wait := s.rotator.NextBoundary().Sub(s.rotator.Now())
		if wait < minRefresh {
			wait = minRefresh
		}
		timer.Reset(wait)
	}
}
