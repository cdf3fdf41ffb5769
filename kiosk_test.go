// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/expovote/display"
	"github.com/danielhkuo/expovote/models"
	"github.com/danielhkuo/expovote/testutil"
)

func TestPrintLink(t *testing.T) {
	var buf bytes.Buffer
	link := display.Link{
		URL:       "https://poll.example/vote?data=abc",
		Bucket:    1000,
		ExpiresAt: time.Now().Add(40 * time.Second),
	}

	if err := printLink(&buf, models.Team{ID: 42, Title: "Solar Kiln"}, link); err != nil {
		t.Fatalf("printLink() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Solar Kiln (project 42)", link.URL, "expires", "from now"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "\n") < 10 {
		t.Error("Expected a multi-line QR code in the output")
	}
}

func TestRunDisplay(t *testing.T) {
	store := testutil.SetupTestDB(t)
	testutil.CreateTestTeam(t, store, 42, "Solar Kiln")
	cfg := testutil.GetTestConfig()

	t.Run("requires project", func(t *testing.T) {
		err := runDisplay(context.Background(), &bytes.Buffer{}, store, cfg)
		if err == nil {
			t.Error("Expected error without -project")
		}
	})

	t.Run("unknown project", func(t *testing.T) {
		cfg := cfg
		cfg.DisplayProject = 7
		cfg.DisplayFingerprint = "kiosk-1"
		err := runDisplay(context.Background(), &bytes.Buffer{}, store, cfg)
		if !errors.Is(err, models.ErrUnknownProject) {
			t.Errorf("Expected %v, got %v", models.ErrUnknownProject, err)
		}
	})

	t.Run("prints until cancelled", func(t *testing.T) {
		cfg := cfg
		cfg.DisplayProject = 42
		cfg.DisplayFingerprint = "kiosk-1"

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		var buf bytes.Buffer
		if err := runDisplay(ctx, &buf, store, cfg); err != nil {
			t.Fatalf("runDisplay() error = %v", err)
		}
		if !strings.Contains(buf.String(), "https://poll.example/vote?data=") {
			t.Errorf("Expected a vote link in output:\n%s", buf.String())
		}
	})
}
