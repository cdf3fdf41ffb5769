// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the expovote server.

expovote runs audience voting at project expos. Each project display shows
a QR code that changes every bucket (10 seconds by default). Scanning it
opens a vote link whose token is encrypted and signed with a key derived
from the bucket, so a photo of the code stops working after the validity
window.

# Starting the Server

	DATABASE_URL=expovote.db SHARED_SECRET=... VALIDITY_WINDOW_BUCKETS=3 MAX_VOTES=1 expovote

Or with flags:

	expovote serve -p 3318 -d expovote.db -secret ... -window 3 -max-votes 1

# Kiosk Mode

Print the rotating link and a terminal QR code for one project:

	expovote display -project 42 -fingerprint kiosk-1

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - SHARED_SECRET (-secret): Key for bucket signatures and token encryption
  - VALIDITY_WINDOW_BUCKETS (-window): Buckets a token stays valid
  - MAX_VOTES (-max-votes): Votes per voter

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - MAX_DEVICES_PER_PROJECT (-max-devices): Display devices per project (default: 3)
  - BUCKET_WIDTH_SECONDS (-bucket-width): Key rotation period (default: 10)
  - BASE_URL (-base-url): Public prefix of vote links
  - VOTER_IDENTITY (-voter-identity): display (default) or scanner
  - ADMIN_KEY (-admin-key): Enables the admin API
  - STORE_TIMEOUT, REGISTRY_CACHE_TTL, LOG_LEVEL, LOG_FORMAT
  - CONFIG_FILE (-c): YAML file; -env-file: dotenv file (default .env)

# Architecture

  - auth: Bucket key rotation, admin key checks
  - payload: Token encryption and vote links
  - devicelock: Display device registry
  - admission: Vote validation pipeline
  - display: Link minting sessions
  - db: SQLite/PostgreSQL store
  - handlers, router, middleware: HTTP surface
  - cliparse, logging: Configuration and logging

See package documentation for each component.
*/
package main
