package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"otkeys/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:10])
}

// FingerprintX25519 returns a short fingerprint of the public key.
func FingerprintX25519(pub domain.X25519Public) domain.Fingerprint {
	return domain.Fingerprint(Fingerprint(pub[:]))
}
