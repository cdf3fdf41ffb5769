// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package payload

import (
	"errors"
	"strings"
	"testing"
)

func newTestCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	c, err := NewCodec(secret)
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	c := newTestCodec(t, "s1")

	tests := []struct {
		name string
		p    Payload
	}{
		{"reference", Payload{ProjectID: 42, Bucket: 1000, BucketSecret: "abcdef", Fingerprint: "dev-A", Address: "1.2.3.4"}},
		{"zero values", Payload{}},
		{"negative ids", Payload{ProjectID: -1, Bucket: -7}},
		{"unicode", Payload{ProjectID: 7, Fingerprint: "устройство-🙂", Address: "::1"}},
		{"json metacharacters", Payload{Fingerprint: `"},{"x":1`, Address: "\\\n"}},
		{"large bucket", Payload{ProjectID: 1 << 40, Bucket: 1 << 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := c.Encode(tt.p)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := c.Decode(token)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.p {
				t.Errorf("Decode() = %+v, want %+v", got, tt.p)
			}
		})
	}
}

func TestEncodeIsURLSafe(t *testing.T) {
	c := newTestCodec(t, "s1")

	for i := 0; i < 50; i++ {
		token, err := c.Encode(Payload{ProjectID: int64(i), Fingerprint: strings.Repeat("?", i)})
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if strings.ContainsAny(token, "+/=") {
			t.Fatalf("token contains non URL-safe characters: %s", token)
		}
	}
}

func TestEncodeUsesFreshNonce(t *testing.T) {
	c := newTestCodec(t, "s1")
	p := Payload{ProjectID: 42, Bucket: 1000}

	t1, _ := c.Encode(p)
	t2, _ := c.Encode(p)
	if t1 == t2 {
		t.Error("Encode() produced identical tokens for repeated calls")
	}
}

func TestDecodeRejectsTampering(t *testing.T) {
	c := newTestCodec(t, "s1")
	token, err := c.Encode(Payload{ProjectID: 42, Bucket: 1000, BucketSecret: "ab", Fingerprint: "dev-A", Address: "1.2.3.4"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	for i := 0; i < len(token); i++ {
		for bit := 0; bit < 8; bit++ {
			b := []byte(token)
			b[i] ^= 1 << bit
			if _, err := c.Decode(string(b)); err == nil {
				t.Fatalf("Decode() accepted token with bit %d of char %d flipped", bit, i)
			}
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	c := newTestCodec(t, "s1")
	valid, _ := c.Encode(Payload{ProjectID: 42})

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrMalformed},
		{"not base64", "!!!not-base64!!!", ErrMalformed},
		{"padded", valid + "==", ErrMalformed},
		{"standard alphabet", strings.NewReplacer("-", "+", "_", "/").Replace(valid) + "+/", ErrMalformed},
		{"too short", "AAAA", ErrMalformed},
		{"truncated", valid[:len(valid)-4], ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeWrongSecret(t *testing.T) {
	token, _ := newTestCodec(t, "s1").Encode(Payload{ProjectID: 42})

	_, err := newTestCodec(t, "s2").Decode(token)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode() with wrong secret error = %v, want %v", err, ErrMalformed)
	}
}

func TestDecodeSchemaMismatch(t *testing.T) {
	c := newTestCodec(t, "s1")

	tests := []struct {
		name      string
		plaintext string
	}{
		{"not json", "hello"},
		{"array", `[1,2,3]`},
		{"wrong type", `{"project_id":"42","timestamp":1000,"qrSecret":"ab","fingerprint":"f","ip":"i"}`},
		{"missing ip", `{"project_id":42,"timestamp":1000,"qrSecret":"ab","fingerprint":"f"}`},
		{"missing secret", `{"project_id":42,"timestamp":1000,"fingerprint":"f","ip":"i"}`},
		{"null field", `{"project_id":42,"timestamp":null,"qrSecret":"ab","fingerprint":"f","ip":"i"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := c.seal([]byte(tt.plaintext))
			if err != nil {
				t.Fatalf("seal() error = %v", err)
			}
			_, err = c.Decode(token)
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Errorf("Decode() error = %v, want %v", err, ErrSchemaMismatch)
			}
		})
	}
}

func TestDecodeIgnoresFieldOrder(t *testing.T) {
	c := newTestCodec(t, "s1")
	token, _ := c.seal([]byte(`{"ip":"1.2.3.4","fingerprint":"dev-A","qrSecret":"ab","timestamp":1000,"project_id":42}`))

	got, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := Payload{ProjectID: 42, Bucket: 1000, BucketSecret: "ab", Fingerprint: "dev-A", Address: "1.2.3.4"}
	if got != want {
		t.Errorf("Decode() = %+v, want %+v", got, want)
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec(""); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("NewCodec(\"\") error = %v, want %v", err, ErrEmptySecret)
	}
}

func TestVoteLink(t *testing.T) {
	tests := []struct {
		base  string
		token string
		want  string
	}{
		{"https://poll.example", "abc_-D", "https://poll.example/vote?data=abc_-D"},
		{"https://poll.example/", "xyz", "https://poll.example/vote?data=xyz"},
	}

	for _, tt := range tests {
		if got := VoteLink(tt.base, tt.token); got != tt.want {
			t.Errorf("VoteLink(%q, %q) = %q, want %q", tt.base, tt.token, got, tt.want)
		}
	}
}
