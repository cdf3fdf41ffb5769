// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/danielhkuo/expovote/cliparse"
	"github.com/danielhkuo/expovote/middleware"
	"github.com/danielhkuo/expovote/models"
	"github.com/danielhkuo/expovote/testutil"
)

func newTestRouter(t *testing.T, cfg cliparse.Config) *http.ServeMux {
	t.Helper()
	store := testutil.SetupTestDB(t)
	testutil.CreateTestTeam(t, store, 42, "Solar Kiln")

	mux, err := NewRouter(store, cfg)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return mux
}

func TestHealthEndpoint(t *testing.T) {
	mux := newTestRouter(t, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux := newTestRouter(t, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "expovote API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}

	// Unknown paths are not swallowed by the root handler
	req = httptest.NewRequest("GET", "/nowhere", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux := newTestRouter(t, testutil.GetTestConfig())

	// Generate at least one admission sample
	req := testutil.MakeRequest("POST", "/votes", models.SubmitVoteRequest{Data: "garbage"}, nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "expovote_admissions_total") {
		t.Error("Expected expovote_admissions_total in metrics output")
	}
}

func TestRouteExistence(t *testing.T) {
	mux := newTestRouter(t, testutil.GetTestConfig())

	// 400, 401, 403, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},
		{"GET", "/metrics"},
		{"GET", "/teams"},

		{"GET", "/projects/42/link"},
		{"GET", "/projects/42/qr.png"},

		{"GET", "/vote"},
		{"POST", "/votes"},

		{"POST", "/admin/teams"},
		{"GET", "/admin/teams/42/devices"},
		{"DELETE", "/admin/teams/42/devices"},
		{"GET", "/admin/results"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestRouter(t, testutil.GetTestConfig())

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"PUT", "/admin/teams/42/devices"},
		{"DELETE", "/votes"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	mux := newTestRouter(t, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/projects/42/link", nil)
	req.Header.Set(middleware.FingerprintHeader, "kiosk-1")
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var resp models.VoteLinkResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.ProjectID != 42 {
		t.Errorf("Expected project 42, got %d", resp.ProjectID)
	}
}

func TestDisplayToVoteRoundTrip(t *testing.T) {
	mux := newTestRouter(t, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/projects/42/link", nil)
	req.Header.Set(middleware.FingerprintHeader, "kiosk-1")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var link models.VoteLinkResponse
	testutil.AssertJSON(t, w, &link)

	// Follow the QR target as a phone would
	u, err := url.Parse(link.URL)
	if err != nil {
		t.Fatal(err)
	}
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", u.RequestURI(), nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var vote models.VoteResponse
	testutil.AssertJSON(t, w, &vote)
	if vote.Title != "Solar Kiln" {
		t.Errorf("Expected vote for 'Solar Kiln', got '%s'", vote.Title)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", u.RequestURI(), nil))
	testutil.AssertStatus(t, w, http.StatusConflict)
}
