// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
	"time"

	"golang.org/x/crypto/hkdf"
)

// DefaultBucketWidth is the rotation period of the signing key.
const DefaultBucketWidth = 10 * time.Second

// logSaltInfo separates the log salt from the bucket keys
const logSaltInfo = "expovote ip-hash v1"

// Rotator derives a signing key that changes at every bucket boundary.
// Two rotators built from the same secret and width agree on every key.
type Rotator struct {
	secret  []byte
	width   time.Duration
	now     func() time.Time
	logSalt string
}

// RotatorOption customizes a Rotator
type RotatorOption func(*Rotator)

// WithClock replaces the wall clock (tests simulate buckets with it)
func WithClock(now func() time.Time) RotatorOption {
	return func(r *Rotator) {
		r.now = now
	}
}

// NewRotator creates a rotator for the shared secret.
// A non-positive width falls back to DefaultBucketWidth.
func NewRotator(secret string, width time.Duration, opts ...RotatorOption) *Rotator {
	if width <= 0 {
		width = DefaultBucketWidth
	}
	r := &Rotator{
		secret: []byte(secret),
		width:  width,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logSalt = deriveLogSalt(r.secret)
	return r
}

// LogSalt returns the salt for HashIP. It is derived from the secret with
// HKDF and never equals it.
func (r *Rotator) LogSalt() string {
	return r.logSalt
}

func deriveLogSalt(secret []byte) string {
	salt := make([]byte, 32)
	// HKDF-SHA256 can produce up to 8160 bytes; 32 never fails
	io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(logSaltInfo)), salt)
	return hex.EncodeToString(salt)
}

// Width returns the bucket width
func (r *Rotator) Width() time.Duration {
	return r.width
}

// Now returns the rotator's current time
func (r *Rotator) Now() time.Time {
	return r.now()
}

// CurrentBucket returns floor(now / width)
func (r *Rotator) CurrentBucket() int64 {
	return r.BucketAt(r.now())
}

// BucketAt returns the bucket containing t
func (r *Rotator) BucketAt(t time.Time) int64 {
	n := t.UnixNano()
	w := r.width.Nanoseconds()
	b := n / w
	if n%w < 0 {
		b--
	}
	return b
}

// BucketStart returns the instant the bucket begins
func (r *Rotator) BucketStart(bucket int64) time.Time {
	return time.Unix(0, bucket*r.width.Nanoseconds())
}

// NextBoundary returns the start of the bucket after the current one
func (r *Rotator) NextBoundary() time.Time {
	return r.BucketStart(r.CurrentBucket() + 1)
}

// KeyFor computes HMAC-SHA256(secret, decimal bucket)
func (r *Rotator) KeyFor(bucket int64) []byte {
	h := hmac.New(sha256.New, r.secret)
	h.Write([]byte(strconv.FormatInt(bucket, 10)))
	return h.Sum(nil)
}

// Sign returns the bucket key as lowercase hex, the form carried in payloads
func (r *Rotator) Sign(bucket int64) string {
	return hex.EncodeToString(r.KeyFor(bucket))
}

// Verify reports whether hexSecret is the key for bucket
func (r *Rotator) Verify(bucket int64, hexSecret string) bool {
	got, err := hex.DecodeString(hexSecret)
	if err != nil {
		return false
	}
	return hmac.Equal(got, r.KeyFor(bucket))
}
