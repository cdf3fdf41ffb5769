// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/danielhkuo/expovote/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Claim is the result of a device slot claim
type Claim int

const (
	ClaimDenied   Claim = iota // project already has the maximum number of devices
	ClaimExisting              // fingerprint was already bound
	ClaimNew                   // fingerprint took a free slot
)

func (c Claim) String() string {
	switch c {
	case ClaimExisting:
		return "existing"
	case ClaimNew:
		return "new"
	default:
		return "denied"
	}
}

// Store implements the read/write contract over teams, project_links,
// and the projects vote ledger.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB exposes the underlying connection pool
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Team returns the team with the given id, or ErrNotFound
func (s *Store) Team(ctx context.Context, id int64) (models.Team, error) {
	team := models.Team{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT project_title FROM teams WHERE id = $1
	`, id).Scan(&team.Title)

	if err == sql.ErrNoRows {
		return models.Team{}, ErrNotFound
	}
	if err != nil {
		return models.Team{}, fmt.Errorf("failed to query team: %w", err)
	}
	return team, nil
}

// ListTeams returns all teams ordered by id
func (s *Store) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_title FROM teams ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.Title); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// UpsertTeam creates a team or renames an existing one
func (s *Store) UpsertTeam(ctx context.Context, team models.Team) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, project_title)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET project_title = EXCLUDED.project_title
	`, team.ID, team.Title)
	if err != nil {
		return fmt.Errorf("failed to upsert team: %w", err)
	}
	return nil
}

// ClaimDeviceSlot binds fingerprint to projectID if it is already bound or
// if fewer than maxDevices distinct fingerprints are bound. The read and the
// insert run in one transaction serialized per project.
func (s *Store) ClaimDeviceSlot(ctx context.Context, projectID int64, fingerprint string, maxDevices int) (Claim, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ClaimDenied, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.lock(ctx, tx, "project_links:"+strconv.FormatInt(projectID, 10)); err != nil {
		return ClaimDenied, err
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM project_links
			WHERE project_id = $1 AND fingerprint = $2
		)
	`, projectID, fingerprint).Scan(&exists)
	if err != nil {
		return ClaimDenied, fmt.Errorf("failed to query device link: %w", err)
	}
	if exists {
		return ClaimExisting, nil
	}

	var bound int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT fingerprint) FROM project_links WHERE project_id = $1
	`, projectID).Scan(&bound)
	if err != nil {
		return ClaimDenied, fmt.Errorf("failed to count device links: %w", err)
	}
	if bound >= maxDevices {
		return ClaimDenied, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO project_links (project_id, fingerprint, linked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, fingerprint) DO NOTHING
	`, projectID, fingerprint, time.Now().UnixMilli())
	if err != nil {
		return ClaimDenied, fmt.Errorf("failed to insert device link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ClaimDenied, fmt.Errorf("failed to commit device link: %w", err)
	}
	return ClaimNew, nil
}

// DeviceLinked reports whether fingerprint is bound to projectID
func (s *Store) DeviceLinked(ctx context.Context, projectID int64, fingerprint string) (bool, error) {
	var linked bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM project_links
			WHERE project_id = $1 AND fingerprint = $2
		)
	`, projectID, fingerprint).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("failed to query device link: %w", err)
	}
	return linked, nil
}

// DeviceLinks lists the devices bound to a project, oldest first
func (s *Store) DeviceLinks(ctx context.Context, projectID int64) ([]models.DeviceLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, linked_at FROM project_links
		WHERE project_id = $1
		ORDER BY linked_at, fingerprint
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device links: %w", err)
	}
	defer rows.Close()

	links := []models.DeviceLink{}
	for rows.Next() {
		link := models.DeviceLink{ProjectID: projectID}
		var linkedAt int64
		if err := rows.Scan(&link.Fingerprint, &linkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device link: %w", err)
		}
		link.LinkedAt = time.UnixMilli(linkedAt).UTC()
		links = append(links, link)
	}
	return links, rows.Err()
}

// ResetDeviceLinks removes every device binding of a project
func (s *Store) ResetDeviceLinks(ctx context.Context, projectID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM project_links WHERE project_id = $1
	`, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete device links: %w", err)
	}
	return res.RowsAffected()
}

// RecordVote appends vote unless its fingerprint already has maxVotes votes.
// Returns false when the quota is exhausted. The count and the insert run
// in one transaction serialized per fingerprint.
func (s *Store) RecordVote(ctx context.Context, vote models.VoteRecord, maxVotes int) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.lock(ctx, tx, "projects:"+vote.Fingerprint); err != nil {
		return false, err
	}

	var votes int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM projects WHERE fingerprint = $1
	`, vote.Fingerprint).Scan(&votes)
	if err != nil {
		return false, fmt.Errorf("failed to count votes: %w", err)
	}
	if votes >= maxVotes {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, project_id, fingerprint, ip, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, vote.ID, vote.ProjectID, vote.Fingerprint, vote.Address, vote.RecordedAt.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("failed to insert vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit vote: %w", err)
	}
	return true, nil
}

// Tally counts votes per team, most votes first
func (s *Store) Tally(ctx context.Context) ([]models.TeamTally, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.project_title, COUNT(p.id), MAX(p.timestamp)
		FROM teams t
		LEFT JOIN projects p ON p.project_id = t.id
		GROUP BY t.id, t.project_title
		ORDER BY COUNT(p.id) DESC, t.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tally: %w", err)
	}
	defer rows.Close()

	tallies := []models.TeamTally{}
	for rows.Next() {
		var tally models.TeamTally
		var last sql.NullInt64
		if err := rows.Scan(&tally.ProjectID, &tally.Title, &tally.Votes, &last); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		if last.Valid {
			at := time.UnixMilli(last.Int64).UTC()
			tally.LastVoteAt = &at
		}
		tallies = append(tallies, tally)
	}
	return tallies, rows.Err()
}

// lock serializes transactions sharing key. SQLite needs nothing here:
// the pool has a single connection and transactions begin IMMEDIATE.
func (s *Store) lock(ctx context.Context, tx *sql.Tx, key string) error {
	if s.dialect != DialectPostgres {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}
