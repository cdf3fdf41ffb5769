// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/skip2/go-qrcode"

	"github.com/danielhkuo/expovote/auth"
	"github.com/danielhkuo/expovote/cliparse"
	"github.com/danielhkuo/expovote/db"
	"github.com/danielhkuo/expovote/devicelock"
	"github.com/danielhkuo/expovote/display"
	"github.com/danielhkuo/expovote/models"
	"github.com/danielhkuo/expovote/payload"
)

// runDisplay prints a fresh vote link and terminal QR code for one project
// at every bucket boundary until ctx is cancelled.
func runDisplay(ctx context.Context, out io.Writer, store *db.Store, cfg cliparse.Config) error {
	if cfg.DisplayProject <= 0 {
		return errors.New("display mode requires -project")
	}
	if cfg.DisplayFingerprint == "" {
		return errors.New("display mode requires -fingerprint")
	}

	team, err := store.Team(ctx, cfg.DisplayProject)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %d", models.ErrUnknownProject, cfg.DisplayProject)
	}
	if err != nil {
		return err
	}

	codec, err := payload.NewCodec(cfg.SharedSecret)
	if err != nil {
		return err
	}
	rotator := auth.NewRotator(cfg.SharedSecret, cfg.BucketWidth)
	registry := devicelock.NewRegistry(store, cfg.MaxDevices, cfg.RegistryCacheTTL, cfg.StoreTimeout)

	session := display.NewSession(rotator, codec, registry, team.ID, models.Device{
		Fingerprint: cfg.DisplayFingerprint,
		Address:     cfg.DisplayAddress,
	}, display.Options{
		BaseURL:        cfg.BaseURL,
		ValidityWindow: cfg.ValidityWindow,
	})

	slog.Info("display started", "project_id", team.ID, "bucket_width", rotator.Width())
	return session.Run(ctx, func(link display.Link) {
		if err := printLink(out, team, link); err != nil {
			slog.Warn("failed to print vote link", "error", err)
		}
	})
}

// printLink writes one screenful: title, QR code, link, and expiry
func printLink(out io.Writer, team models.Team, link display.Link) error {
	qr, err := qrcode.New(link.URL, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to build QR code: %w", err)
	}

	_, err = fmt.Fprintf(out, "\n%s (project %d)\n%s%s\nexpires %s\n",
		team.Title, team.ID,
		qr.ToSmallString(false),
		link.URL,
		humanize.Time(link.ExpiresAt),
	)
	return err
}
