package types

import (
	"encoding/base64"
	"fmt"

	"otkeys/internal/util/memzero"
)

// KeySize is the length in bytes of Curve25519 private and public keys.
const KeySize = 32

// X25519Public is a Curve25519 public key.
type X25519Public [KeySize]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// String returns the standard base64 encoding of the key.
func (p X25519Public) String() string { return base64.StdEncoding.EncodeToString(p[:]) }

// MarshalText encodes the key as standard base64.
func (p X25519Public) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a standard base64 key.
func (p *X25519Public) UnmarshalText(text []byte) error {
	parsed, err := ParseX25519Public(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseX25519Public decodes a base64 (standard or unpadded) public key.
func ParseX25519Public(s string) (X25519Public, error) {
	var out X25519Public
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return out, fmt.Errorf("x25519 public: %w", err)
	}
	if len(b) != KeySize {
		return out, fmt.Errorf("x25519 public: want %d bytes, got %d", KeySize, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// X25519Private is a Curve25519 private key.
//
// Holders keep it behind a pointer so Wipe reaches the only live copy.
type X25519Private [KeySize]byte

// Slice returns the key as a []byte aliasing k.
func (k *X25519Private) Slice() []byte { return k[:] }

// Wipe overwrites the key with zeros.
func (k *X25519Private) Wipe() {
	if k == nil {
		return
	}
	memzero.Zero(k[:])
}

// IsZero reports whether every byte of the key is zero.
func (k *X25519Private) IsZero() bool { return memzero.IsZero(k[:]) }

// String never prints key material.
func (k *X25519Private) String() string { return "X25519Private(redacted)" }
