// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/danielhkuo/expovote/admission"
	"github.com/danielhkuo/expovote/auth"
	"github.com/danielhkuo/expovote/cliparse"
	"github.com/danielhkuo/expovote/db"
	"github.com/danielhkuo/expovote/devicelock"
	"github.com/danielhkuo/expovote/middleware"
	"github.com/danielhkuo/expovote/models"
	"github.com/danielhkuo/expovote/payload"
	"github.com/danielhkuo/expovote/testutil"
)

// testEnv wires every handler against one SQLite store and a fake clock
// positioned at bucket 1000.
type testEnv struct {
	cfg      cliparse.Config
	store    *db.Store
	clock    *testutil.Clock
	rotator  *auth.Rotator
	codec    *payload.Codec
	registry *devicelock.Registry
	display  *DisplayHandler
	vote     *VoteHandler
	teams    *TeamsHandler
}

func newTestEnv(t *testing.T, mutate ...func(*cliparse.Config)) *testEnv {
	t.Helper()

	cfg := testutil.GetTestConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	store := testutil.SetupTestDB(t)
	testutil.CreateTestTeam(t, store, 42, "Solar Kiln")

	clock := testutil.AtBucket(1000, cfg.BucketWidth)
	rotator := auth.NewRotator(cfg.SharedSecret, cfg.BucketWidth, auth.WithClock(clock.Now))
	codec, err := payload.NewCodec(cfg.SharedSecret)
	if err != nil {
		t.Fatalf("Failed to create codec: %v", err)
	}
	registry := devicelock.NewRegistry(store, cfg.MaxDevices, cfg.RegistryCacheTTL, cfg.StoreTimeout)
	ctrl := admission.New(codec, rotator, store, admission.Policy{
		ValidityWindow: cfg.ValidityWindow,
		MaxVotes:       cfg.MaxVotes,
		StoreTimeout:   cfg.StoreTimeout,
	})

	return &testEnv{
		cfg:      cfg,
		store:    store,
		clock:    clock,
		rotator:  rotator,
		codec:    codec,
		registry: registry,
		display:  NewDisplayHandler(store, registry, rotator, codec, cfg),
		vote:     NewVoteHandler(ctrl, cfg),
		teams:    NewTeamsHandler(store, registry, cfg),
	}
}

// atBucket moves the clock to the middle of bucket
func (e *testEnv) atBucket(bucket int64) {
	e.clock.Set(e.rotator.BucketStart(bucket).Add(e.cfg.BucketWidth / 2))
}

// getLink calls GetLink for project as device fingerprint
func (e *testEnv) getLink(t *testing.T, project, fingerprint string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.MakeRequest("GET", "/projects/"+project+"/link", nil, map[string]string{
		middleware.FingerprintHeader: fingerprint,
	})
	req.SetPathValue("id", project)
	w := httptest.NewRecorder()
	e.display.GetLink(w, req)
	return w
}

// mintToken returns the token of a freshly minted link for project 42
func (e *testEnv) mintToken(t *testing.T, fingerprint string) string {
	t.Helper()
	w := e.getLink(t, "42", fingerprint)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to mint link: %d - %s", w.Code, w.Body.String())
	}
	var resp models.VoteLinkResponse
	testutil.AssertJSON(t, w, &resp)
	return tokenFromURL(t, resp.URL)
}

// submit posts token to /votes with optional headers
func (e *testEnv) submit(t *testing.T, token string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.MakeRequest("POST", "/votes", models.SubmitVoteRequest{Data: token}, headers)
	w := httptest.NewRecorder()
	e.vote.SubmitVote(w, req)
	return w
}

func tokenFromURL(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("Failed to parse vote link %q: %v", link, err)
	}
	token := u.Query().Get("data")
	if token == "" {
		t.Fatalf("Vote link %q carries no data", link)
	}
	return token
}

func adminHeaders(key string) map[string]string {
	return map[string]string{middleware.AdminKeyHeader: key}
}
