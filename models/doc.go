// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreateTeamRequest: id, project_title
  - SubmitVoteRequest: data (encoded vote token)

# Response Types

  - VoteLinkResponse: url, bucket, expires_at, refresh_in_ms
  - VoteResponse: project_id, title, vote_id, message
  - ListTeamsResponse, DeviceLinksResponse, ResetDevicesResponse, ResultsResponse
  - ErrorResponse: error, message

# Domain Types

  - Team: project id and title
  - DeviceLink: project ↔ display device binding
  - VoteRecord: one recorded vote
  - Voter, Device: fingerprint + network address pairs
  - TeamTally: votes per team

# Errors

Every terminal outcome of the vote pipeline is a sentinel error:

	ErrMalformed, ErrInvalidSignature, ErrExpired, ErrUnknownProject,
	ErrQuotaExceeded, ErrDeviceLimitReached, ErrPersistence, ErrIdentification

Callers test with errors.Is and show UserMessage(err) to the user.

# Constants

Voter identity sources:

	IdentityDisplay = "display" // quota keyed on the fingerprint inside the token
	IdentityScanner = "scanner" // quota keyed on the scanning device
*/
package models
