package models

import "time"

// Voter identity sources
const (
	IdentityDisplay = "display"
	IdentityScanner = "scanner"
)

// UnknownAddress is recorded when a device address cannot be determined
const UnknownAddress = "unknown"

// Request types

type CreateTeamRequest struct {
	ID           int64  `json:"id"`
	ProjectTitle string `json:"project_title"`
}

type SubmitVoteRequest struct {
	Data string `json:"data"`
}

// Response types

type VoteLinkResponse struct {
	ProjectID   int64     `json:"project_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Bucket      int64     `json:"bucket"`
	ExpiresAt   time.Time `json:"expires_at"`
	RefreshInMS int64     `json:"refresh_in_ms"`
}

type VoteResponse struct {
	ProjectID int64  `json:"project_id"`
	Title     string `json:"title"`
	VoteID    string `json:"vote_id"`
	Message   string `json:"message"`
}

type ListTeamsResponse struct {
	Teams []Team `json:"teams"`
}

type DeviceLinksResponse struct {
	ProjectID int64        `json:"project_id"`
	Links     []DeviceLink `json:"links"`
}

type ResetDevicesResponse struct {
	ProjectID int64 `json:"project_id"`
	Removed   int64 `json:"removed"`
}

type ResultsResponse struct {
	Results []TeamTally `json:"results"`
}

// Domain types

// Team is a project that can be voted for
type Team struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// DeviceLink binds a device fingerprint to a project it may display
type DeviceLink struct {
	ProjectID   int64     `json:"project_id"`
	Fingerprint string    `json:"fingerprint"`
	LinkedAt    time.Time `json:"linked_at"`
}

// VoteRecord is one recorded vote
type VoteRecord struct {
	ID          string    `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Fingerprint string    `json:"-"` // Never expose in JSON
	Address     string    `json:"-"` // Never expose in JSON
	RecordedAt  time.Time `json:"recorded_at"`
}

// Voter identifies who is casting a vote
type Voter struct {
	Fingerprint string
	Address     string
}

// Device identifies a display device
type Device struct {
	Fingerprint string
	Address     string
}

type TeamTally struct {
	ProjectID  int64      `json:"project_id"`
	Title      string     `json:"title"`
	Votes      int64      `json:"votes"`
	LastVoteAt *time.Time `json:"last_vote_at,omitempty"`
	LastVote   string     `json:"last_vote,omitempty"` // humanized
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
