// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles schema creation and the store contract.

# Opening

Open connects with either driver, pings, and creates the schema:

	store, err := db.Open(ctx, db.DialectPostgres, "postgres://...")
	store, err := db.Open(ctx, db.DialectSQLite, "expovote.db")

SQLite runs with a single connection and IMMEDIATE transactions.

# Tables

  - teams: id, project_title (read-only to the vote pipeline)
  - project_links: project_id, fingerprint, linked_at
  - projects: the vote ledger (id, project_id, fingerprint, ip, timestamp)

Timestamps are epoch milliseconds.

# Atomic Claims

ClaimDeviceSlot and RecordVote each count and insert inside one
transaction. On PostgreSQL the transaction first takes
pg_advisory_xact_lock on the project (device links) or fingerprint
(votes), so racing callers are serialized and the limits hold:

	claim, err := store.ClaimDeviceSlot(ctx, projectID, fingerprint, maxDevices)
	ok, err := store.RecordVote(ctx, vote, maxVotes)
*/
package db
