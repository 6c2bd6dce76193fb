package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"

	"otkeys/internal/domain"
)

// GenerateX25519 returns a fresh Curve25519 key pair read from r.
// A nil r means crypto/rand.Reader. The private key is clamped per RFC 7748.
func GenerateX25519(r io.Reader) (priv *domain.X25519Private, pub domain.X25519Public, err error) {
	if r == nil {
		r = rand.Reader
	}
	priv = new(domain.X25519Private)
	if _, err = io.ReadFull(r, priv[:]); err != nil {
		priv.Wipe()
		return nil, pub, fmt.Errorf("x25519: read entropy: %w", err)
	}
	clamp(priv)
	pub, err = PublicKey(priv)
	if err != nil {
		priv.Wipe()
		return nil, pub, err
	}
	return priv, pub, nil
}

// PublicKey derives the public half of priv.
func PublicKey(priv *domain.X25519Private) (pub domain.X25519Public, err error) {
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return pub, fmt.Errorf("x25519: derive public: %w", err)
	}
	copy(pub[:], pb)
	return pub, nil
}

// DH computes X25519 Diffie–Hellman.
func DH(priv *domain.X25519Private, pub domain.X25519Public) (out [32]byte, err error) {
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, err
	}
	copy(out[:], secret)
	Wipe(secret)
	return out, nil
}

func clamp(k *domain.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
