// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package payload

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrMalformed      = errors.New("malformed token")
	ErrSchemaMismatch = errors.New("payload schema mismatch")
	ErrEmptySecret    = errors.New("shared secret required")
)

// hkdfInfo domain-separates the payload key from the bucket HMAC key
const hkdfInfo = "expovote payload aes-256-gcm v1"

var encoding = base64.RawURLEncoding.Strict()

// Payload is the vote authorization carried inside a QR code
type Payload struct {
	ProjectID    int64  `json:"project_id"`
	Bucket       int64  `json:"timestamp"`
	BucketSecret string `json:"qrSecret"`
	Fingerprint  string `json:"fingerprint"`
	Address      string `json:"ip"`
}

// wirePayload detects missing fields on decode
type wirePayload struct {
	ProjectID    *int64  `json:"project_id"`
	Bucket       *int64  `json:"timestamp"`
	BucketSecret *string `json:"qrSecret"`
	Fingerprint  *string `json:"fingerprint"`
	Address      *string `json:"ip"`
}

// Codec encrypts payloads into URL-safe tokens and back.
// Safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives an AES-256-GCM key from the shared secret
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive payload key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encode serializes, encrypts, and transport-encodes a payload
func (c *Codec) Encode(p Payload) (string, error) {
	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return c.seal(plaintext)
}

// Decode reverses Encode. Transport or decryption failures return
// ErrMalformed; undecodable plaintext returns ErrSchemaMismatch.
func (c *Codec) Decode(token string) (Payload, error) {
	raw, err := encoding.DecodeString(token)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return Payload{}, fmt.Errorf("%w: token too short", ErrMalformed)
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var w wirePayload
	if err := json.Unmarshal(plaintext, &w); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if w.ProjectID == nil || w.Bucket == nil || w.BucketSecret == nil ||
		w.Fingerprint == nil || w.Address == nil {
		return Payload{}, fmt.Errorf("%w: missing field", ErrSchemaMismatch)
	}

	return Payload{
		ProjectID:    *w.ProjectID,
		Bucket:       *w.Bucket,
		BucketSecret: *w.BucketSecret,
		Fingerprint:  *w.Fingerprint,
		Address:      *w.Address,
	}, nil
}

// seal encrypts plaintext under a fresh nonce: base64url(nonce || ciphertext)
func (c *Codec) seal(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return encoding.EncodeToString(sealed), nil
}

// VoteLink builds the URL embedded in the QR code
func VoteLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/vote?data=" + url.QueryEscape(token)
}
