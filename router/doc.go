// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the expovote API.

NewRouter builds the vote pipeline from the configuration and returns a
configured http.ServeMux:

	mux, err := router.NewRouter(store, cfg)

# Endpoints

	GET /health  - Liveness, pings the store
	GET /metrics - Prometheus metrics
	GET /teams   - Project list

Display side (X-Device-Fingerprint):

	GET /projects/{id}/link   - Current vote link
	GET /projects/{id}/qr.png - Current vote link as a QR image

Voting side:

	GET  /vote?data= - QR target
	POST /votes      - Submit a token

Admin (X-Admin-Key):

	POST   /admin/teams
	GET    /admin/teams/{id}/devices
	DELETE /admin/teams/{id}/devices
	GET    /admin/results
*/
package router
