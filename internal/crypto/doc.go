// Package crypto exposes the minimal primitives used by otkeys.
//
// Contents
//
//   - X25519 key generation, clamping, public derivation and Diffie–Hellman
//     (GenerateX25519, PublicKey, DH)
//   - Passphrase key derivation for sealed files (DeriveKEKScrypt,
//     DeriveKEKArgon2)
//   - Memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Private keys are returned as *domain.X25519Private so callers can wipe the
// single copy they own. Never log private material; log fingerprints.
package crypto
