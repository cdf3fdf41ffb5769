// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the expovote API.

# Handler Types

Each handler is a struct built by a constructor:

  - DisplayHandler: rotating vote links and QR images for project displays
  - VoteHandler: vote submission from a scanned link
  - TeamsHandler: team listing and the admin API

# Display Side

Displays identify themselves with the X-Device-Fingerprint header:

	GET /projects/{id}/link   → GetLink (JSON link, refresh_in_ms)
	GET /projects/{id}/qr.png → GetQR (PNG of the same link)

A project accepts a limited number of display devices. Extra devices get
403 until an admin resets the project's links.

# Voting Side

	GET  /vote?data={token} → CastFromLink (the QR target)
	POST /votes             → SubmitVote ({"data": token})

Pipeline errors map to statuses in statusFor: malformed 400, bad signature
403, expired 410, unknown project 404, quota exceeded 409, store down 503.
The response message is models.UserMessage of the error.

# Admin

Admin routes require the X-Admin-Key header and are disabled when no key is
configured:

	POST   /admin/teams              → CreateTeam
	GET    /admin/teams/{id}/devices → ListDevices
	DELETE /admin/teams/{id}/devices → ResetDevices
	GET    /admin/results            → GetResults
*/
package handlers
