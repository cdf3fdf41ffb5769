// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielhkuo/expovote/auth"
	"github.com/danielhkuo/expovote/db"
	"github.com/danielhkuo/expovote/models"
	"github.com/danielhkuo/expovote/payload"
)

var admissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "expovote_admissions_total",
	Help: "Vote admission attempts by outcome.",
}, []string{"outcome"})

// Store is the subset of db.Store the controller needs
type Store interface {
	Team(ctx context.Context, id int64) (models.Team, error)
	RecordVote(ctx context.Context, vote models.VoteRecord, maxVotes int) (bool, error)
}

// Policy holds the admission limits
type Policy struct {
	ValidityWindow int           // buckets after issuance a token stays valid
	MaxVotes       int           // votes per voter fingerprint
	StoreTimeout   time.Duration // bound on each store call; 0 disables
}

// Outcome describes a recorded vote
type Outcome struct {
	ProjectID    int64
	ProjectTitle string
	VoteID       string
	RecordedAt   time.Time
}

// Controller validates vote tokens and records votes
type Controller struct {
	codec   *payload.Codec
	rotator *auth.Rotator
	store   Store
	policy  Policy
	salt    string
}

// New creates a controller. Logged client addresses are hashed with the
// rotator's LogSalt.
func New(codec *payload.Codec, rotator *auth.Rotator, store Store, policy Policy) *Controller {
	return &Controller{
		codec:   codec,
		rotator: rotator,
		store:   store,
		policy:  policy,
		salt:    rotator.LogSalt(),
	}
}

// Verify decodes a token and checks its signature and freshness without
// touching the store.
func (c *Controller) Verify(token string) (payload.Payload, error) {
	p, err := c.codec.Decode(token)
	if err != nil {
		return payload.Payload{}, fmt.Errorf("%w: %v", models.ErrMalformed, err)
	}

	if !c.rotator.Verify(p.Bucket, p.BucketSecret) {
		return payload.Payload{}, models.ErrInvalidSignature
	}

	now := c.rotator.CurrentBucket()
	if now-p.Bucket > int64(c.policy.ValidityWindow) || now < p.Bucket {
		return payload.Payload{}, fmt.Errorf("%w: issued in bucket %d, now %d", models.ErrExpired, p.Bucket, now)
	}

	return p, nil
}

// Admit runs the full pipeline and records the vote. voter overrides the
// identity carried in the token; nil keys the quota on the token's
// fingerprint. Every failure is terminal and maps to a models error.
func (c *Controller) Admit(ctx context.Context, token string, voter *models.Voter) (Outcome, error) {
	outcome, err := c.admit(ctx, token, voter)
	admissionsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	return outcome, err
}

func (c *Controller) admit(ctx context.Context, token string, voter *models.Voter) (Outcome, error) {
	p, err := c.Verify(token)
	if err != nil {
		return Outcome{}, err
	}

	team, err := c.team(ctx, p.ProjectID)
	if err != nil {
		return Outcome{}, err
	}

	fingerprint, address := p.Fingerprint, p.Address
	if voter != nil {
		fingerprint, address = voter.Fingerprint, voter.Address
	}
	if fingerprint == "" {
		return Outcome{}, models.ErrIdentification
	}
	if address == "" {
		address = models.UnknownAddress
	}

	vote := models.VoteRecord{
		ID:          uuid.NewString(),
		ProjectID:   p.ProjectID,
		Fingerprint: fingerprint,
		Address:     address,
		RecordedAt:  c.rotator.Now(),
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	recorded, err := c.store.RecordVote(ctx, vote, c.policy.MaxVotes)
	if err != nil {
		slog.Error("failed to record vote", "error", err, "project_id", p.ProjectID)
		return Outcome{}, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	if !recorded {
		return Outcome{}, models.ErrQuotaExceeded
	}

	slog.Info("vote recorded",
		"project_id", p.ProjectID,
		"vote_id", vote.ID,
		"bucket", p.Bucket,
		"ip_hash", auth.HashIP(address, c.salt),
	)

	return Outcome{
		ProjectID:    team.ID,
		ProjectTitle: team.Title,
		VoteID:       vote.ID,
		RecordedAt:   vote.RecordedAt,
	}, nil
}

func (c *Controller) team(ctx context.Context, id int64) (models.Team, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	team, err := c.store.Team(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.Team{}, fmt.Errorf("%w: %d", models.ErrUnknownProject, id)
	}
	if err != nil {
		slog.Error("failed to look up team", "error", err, "project_id", id)
		return models.Team{}, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return team, nil
}

func (c *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.policy.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.policy.StoreTimeout)
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "recorded"
	case errors.Is(err, models.ErrMalformed):
		return "malformed"
	case errors.Is(err, models.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, models.ErrExpired):
		return "expired"
	case errors.Is(err, models.ErrUnknownProject):
		return "unknown_project"
	case errors.Is(err, models.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, models.ErrIdentification):
		return "identification_failure"
	default:
		return "persistence_failure"
	}
}
