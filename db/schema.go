// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are valid on both PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Teams (projects that can be voted for)
CREATE TABLE IF NOT EXISTS teams (
    id BIGINT PRIMARY KEY,
    project_title TEXT NOT NULL
);

-- Display devices bound to a project
CREATE TABLE IF NOT EXISTS project_links (
    project_id BIGINT NOT NULL,
    fingerprint TEXT NOT NULL,
    linked_at BIGINT NOT NULL,
    PRIMARY KEY (project_id, fingerprint)
);

-- Vote ledger
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    project_id BIGINT NOT NULL,
    fingerprint TEXT NOT NULL,
    ip TEXT NOT NULL,
    timestamp BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_fingerprint ON projects(fingerprint);
CREATE INDEX IF NOT EXISTS idx_projects_project_id ON projects(project_id);
`
