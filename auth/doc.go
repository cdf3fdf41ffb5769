// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the rotating signing key and admin key checks.

# Rotating Key

A Rotator quantizes wall-clock time into fixed-width buckets and derives
one key per bucket:

	r := auth.NewRotator(secret, 10*time.Second)
	bucket := r.CurrentBucket()     // floor(unix / 10s)
	qrSecret := r.Sign(bucket)      // hex(HMAC-SHA256(secret, "1000"))
	ok := r.Verify(bucket, qrSecret)

The key is valid for a whole bucket and changes atomically at each
boundary. Both the display and voting sides hold the same secret; it is
never transmitted.

# Admin Keys

Admin operations compare the X-Admin-Key header against the configured
ADMIN_KEY in constant time:

	if err := auth.ValidateAdminKey(provided, cfg.AdminKey); err != nil {
		// ErrInvalidAdminKey or ErrAdminDisabled
	}

# IP Hashing

Client addresses are logged as salted hashes. The salt is derived from the
shared secret, never the secret itself:

	ipHash := auth.HashIP(clientIP, rotator.LogSalt())
*/
package auth
