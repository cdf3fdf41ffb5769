// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
)

// Terminal outcomes of the vote pipeline. None are retried.
var (
	ErrMalformed          = errors.New("malformed vote data")
	ErrInvalidSignature   = errors.New("invalid QR signature")
	ErrExpired            = errors.New("QR code expired")
	ErrUnknownProject     = errors.New("unknown project")
	ErrQuotaExceeded      = errors.New("vote quota exceeded")
	ErrDeviceLimitReached = errors.New("device limit reached")
	ErrPersistence        = errors.New("persistence failure")
	ErrIdentification     = errors.New("device identification failed")
)

// UserMessage maps an error to the message shown to the person at the screen.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformed):
		return "❌ Invalid or corrupted vote data"
	case errors.Is(err, ErrInvalidSignature):
		return "❌ Vote failed: Invalid QR code"
	case errors.Is(err, ErrExpired):
		return "❌ Vote failed: QR code expired"
	case errors.Is(err, ErrUnknownProject):
		return "❌ Project not found"
	case errors.Is(err, ErrQuotaExceeded):
		return "❌ Vote failed: You have already voted for a project"
	case errors.Is(err, ErrDeviceLimitReached):
		return "❌ This project is already logged in on the maximum number of devices"
	case errors.Is(err, ErrPersistence):
		return "❌ Vote service unavailable, please try again"
	case errors.Is(err, ErrIdentification):
		return "❌ Device identification failed"
	default:
		return "❌ Error processing vote"
	}
}

// RecordedMessage is the success message naming the voted project
func RecordedMessage(title string) string {
	return fmt.Sprintf("✅ Vote recorded successfully for %s", title)
}
