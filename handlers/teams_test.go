// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/expovote/cliparse"
	"github.com/danielhkuo/expovote/middleware"
	"github.com/danielhkuo/expovote/models"
	"github.com/danielhkuo/expovote/testutil"
)

func TestListTeams(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestTeam(t, env.store, 43, "Wind Loom")

	w := httptest.NewRecorder()
	env.teams.ListTeams(w, testutil.MakeRequest("GET", "/teams", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ListTeamsResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Teams) != 2 {
		t.Fatalf("Expected 2 teams, got %d", len(resp.Teams))
	}
	if resp.Teams[0].ID != 42 || resp.Teams[1].Title != "Wind Loom" {
		t.Errorf("Unexpected teams: %+v", resp.Teams)
	}
}

func TestCreateTeam(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name           string
		key            string
		body           interface{}
		expectedStatus int
	}{
		{"valid", testutil.TestAdminKey, models.CreateTeamRequest{ID: 43, ProjectTitle: "Wind Loom"}, http.StatusCreated},
		{"rename existing", testutil.TestAdminKey, models.CreateTeamRequest{ID: 42, ProjectTitle: "Solar Kiln II"}, http.StatusCreated},
		{"missing title", testutil.TestAdminKey, models.CreateTeamRequest{ID: 44, ProjectTitle: "  "}, http.StatusBadRequest},
		{"bad id", testutil.TestAdminKey, models.CreateTeamRequest{ID: 0, ProjectTitle: "Nope"}, http.StatusBadRequest},
		{"wrong key", "nope", models.CreateTeamRequest{ID: 45, ProjectTitle: "Nope"}, http.StatusUnauthorized},
		{"no key", "", models.CreateTeamRequest{ID: 45, ProjectTitle: "Nope"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.teams.CreateTeam(w, testutil.MakeRequest("POST", "/admin/teams", tt.body, adminHeaders(tt.key)))
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	team, err := env.store.Team(t.Context(), 42)
	if err != nil {
		t.Fatal(err)
	}
	if team.Title != "Solar Kiln II" {
		t.Errorf("Expected renamed team, got '%s'", team.Title)
	}
	if _, err := env.store.Team(t.Context(), 45); err == nil {
		t.Error("Unauthorized request created a team")
	}
}

func TestCreateTeamBodyTooLarge(t *testing.T) {
	env := newTestEnv(t)

	title := strings.Repeat("Solar Kiln ", middleware.MaxBodyBytes/10)
	w := httptest.NewRecorder()
	req := testutil.MakeRequest("POST", "/admin/teams", models.CreateTeamRequest{ID: 46, ProjectTitle: title}, adminHeaders(testutil.TestAdminKey))
	env.teams.CreateTeam(w, req)

	testutil.AssertStatus(t, w, http.StatusRequestEntityTooLarge)
	if _, err := env.store.Team(t.Context(), 46); err == nil {
		t.Error("Oversized request created a team")
	}
}

func TestAdminDisabled(t *testing.T) {
	env := newTestEnv(t, func(cfg *cliparse.Config) {
		cfg.AdminKey = ""
	})

	w := httptest.NewRecorder()
	env.teams.GetResults(w, testutil.MakeRequest("GET", "/admin/results", nil, adminHeaders("")))
	testutil.AssertStatus(t, w, http.StatusForbidden)
}

func TestDeviceAdmin(t *testing.T) {
	env := newTestEnv(t, func(cfg *cliparse.Config) {
		cfg.MaxDevices = 1
	})

	testutil.AssertStatus(t, env.getLink(t, "42", "kiosk-1"), http.StatusOK)
	testutil.AssertStatus(t, env.getLink(t, "42", "kiosk-2"), http.StatusForbidden)

	req := testutil.MakeRequest("GET", "/admin/teams/42/devices", nil, adminHeaders(testutil.TestAdminKey))
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	env.teams.ListDevices(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var links models.DeviceLinksResponse
	testutil.AssertJSON(t, w, &links)
	if len(links.Links) != 1 || links.Links[0].Fingerprint != "kiosk-1" {
		t.Fatalf("Expected kiosk-1 linked, got %+v", links.Links)
	}

	req = testutil.MakeRequest("DELETE", "/admin/teams/42/devices", nil, adminHeaders(testutil.TestAdminKey))
	req.SetPathValue("id", "42")
	w = httptest.NewRecorder()
	env.teams.ResetDevices(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var reset models.ResetDevicesResponse
	testutil.AssertJSON(t, w, &reset)
	if reset.Removed != 1 {
		t.Errorf("Expected 1 removed link, got %d", reset.Removed)
	}

	// The freed slot goes to the next device; the old one is no longer cached
	testutil.AssertStatus(t, env.getLink(t, "42", "kiosk-2"), http.StatusOK)
	testutil.AssertStatus(t, env.getLink(t, "42", "kiosk-1"), http.StatusForbidden)
}

func TestDeviceAdminInvalidID(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.MakeRequest("DELETE", "/admin/teams/x/devices", nil, adminHeaders(testutil.TestAdminKey))
	req.SetPathValue("id", "x")
	w := httptest.NewRecorder()
	env.teams.ResetDevices(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestGetResults(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestTeam(t, env.store, 43, "Wind Loom")

	testutil.AssertStatus(t, env.submit(t, env.mintToken(t, "kiosk-1"), nil), http.StatusCreated)

	w := httptest.NewRecorder()
	env.teams.GetResults(w, testutil.MakeRequest("GET", "/admin/results", nil, adminHeaders(testutil.TestAdminKey)))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ResultsResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 tallies, got %d", len(resp.Results))
	}

	top := resp.Results[0]
	if top.ProjectID != 42 || top.Votes != 1 {
		t.Errorf("Expected project 42 with 1 vote first, got %+v", top)
	}
	if top.LastVoteAt == nil || top.LastVote == "" {
		t.Error("Expected last vote time on voted team")
	}
	if resp.Results[1].LastVoteAt != nil {
		t.Error("Expected no last vote time on team without votes")
	}
}
