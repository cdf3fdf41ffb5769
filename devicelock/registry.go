// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package devicelock

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielhkuo/expovote/db"
	"github.com/danielhkuo/expovote/models"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expovote_device_decisions_total",
		Help: "Display device authorization decisions by result.",
	}, []string{"decision"})
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expovote_device_cache_hits_total",
		Help: "Device authorizations served from the session cache.",
	})
)

const cacheSize = 4096

// Decision is the outcome of an authorization check
type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// Store is the subset of db.Store the registry needs
type Store interface {
	ClaimDeviceSlot(ctx context.Context, projectID int64, fingerprint string, maxDevices int) (db.Claim, error)
	DeviceLinked(ctx context.Context, projectID int64, fingerprint string) (bool, error)
}

// Registry limits how many devices may display each project
type Registry struct {
	store      Store
	maxDevices int
	timeout    time.Duration
	allowed    *expirable.LRU[string, struct{}]
}

// NewRegistry creates a registry allowing maxDevices per project.
// Allowed decisions are cached for ttl; denials are always rechecked.
// A cached decision still confirms the link exists, so a reset made by
// another process revokes it on the next call.
func NewRegistry(store Store, maxDevices int, ttl, timeout time.Duration) *Registry {
	return &Registry{
		store:      store,
		maxDevices: maxDevices,
		timeout:    timeout,
		allowed:    expirable.NewLRU[string, struct{}](cacheSize, nil, ttl),
	}
}

// Authorize reports whether fingerprint may display projectID, binding it
// to a free slot on first sight. A denial returns models.ErrDeviceLimitReached;
// a store failure returns Denied with an error wrapping models.ErrPersistence.
func (r *Registry) Authorize(ctx context.Context, projectID int64, fingerprint string) (Decision, error) {
	if fingerprint == "" {
		return Denied, models.ErrIdentification
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	key := cacheKey(projectID, fingerprint)
	if _, ok := r.allowed.Get(key); ok {
		linked, err := r.store.DeviceLinked(ctx, projectID, fingerprint)
		if err != nil {
			decisionsTotal.WithLabelValues("error").Inc()
			slog.Error("device link check failed", "error", err, "project_id", projectID)
			return Denied, fmt.Errorf("%w: %v", models.ErrPersistence, err)
		}
		if linked {
			cacheHitsTotal.Inc()
			return Allowed, nil
		}
		// Links were reset elsewhere; compete for a slot again
		r.allowed.Remove(key)
	}

	claim, err := r.store.ClaimDeviceSlot(ctx, projectID, fingerprint, r.maxDevices)
	if err != nil {
		decisionsTotal.WithLabelValues("error").Inc()
		slog.Error("device authorization failed", "error", err, "project_id", projectID)
		return Denied, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	if claim == db.ClaimDenied {
		decisionsTotal.WithLabelValues("denied").Inc()
		slog.Info("device limit reached", "project_id", projectID, "max_devices", r.maxDevices)
		return Denied, models.ErrDeviceLimitReached
	}

	decisionsTotal.WithLabelValues(claim.String()).Inc()
	if claim == db.ClaimNew {
		slog.Info("device linked to project", "project_id", projectID)
	}
	r.allowed.Add(key, struct{}{})
	return Allowed, nil
}

// Forget drops cached decisions for a project, after its links are reset
func (r *Registry) Forget(projectID int64) {
	prefix := strconv.FormatInt(projectID, 10) + "|"
	for _, key := range r.allowed.Keys() {
		if strings.HasPrefix(key, prefix) {
			r.allowed.Remove(key)
		}
	}
}

func cacheKey(projectID int64, fingerprint string) string {
	return strconv.FormatInt(projectID, 10) + "|" + fingerprint
}
