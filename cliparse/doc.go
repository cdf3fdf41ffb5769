// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Sources

Each setting is resolved in order:

 1. CLI flag
 2. Environment variable (a dotenv file, -env-file or .env, is loaded
    first and never overrides the real environment)
 3. YAML config file (-c or CONFIG_FILE)
 4. Default

# Required

  - DATABASE_URL (-d)
  - SHARED_SECRET (-secret)
  - VALIDITY_WINDOW_BUCKETS (-window), zero or more
  - MAX_VOTES (-max-votes), at least one

# Optional

	PORT                    -p                  3318
	DATABASE_TYPE           -t                  sqlite
	MAX_DEVICES_PER_PROJECT -max-devices        3
	BUCKET_WIDTH_SECONDS    -bucket-width       10
	BASE_URL                -base-url           http://localhost:<port>
	VOTER_IDENTITY          -voter-identity     display
	ADMIN_KEY               -admin-key          (admin API disabled)
	STORE_TIMEOUT           -store-timeout      5s
	REGISTRY_CACHE_TTL      -registry-cache-ttl 10m
	LOG_LEVEL               -log-level          info
	LOG_FORMAT              -log-format         auto

Kiosk display mode reads -project, -fingerprint and -address.

# YAML File

	database:
	  url: expovote.db
	shared_secret: change-me
	validity_window_buckets: 3
	max_votes: 1
	log:
	  level: debug
*/
package cliparse
