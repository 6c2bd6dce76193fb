package crypto

import (
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

// KeyBytes is the size of derived key-encryption keys.
const KeyBytes = 32

// Argon2Params tunes Argon2id key derivation.
type Argon2Params struct {
	Time    uint32 `json:"t"`
	Memory  uint32 `json:"m"`
	Threads uint8  `json:"p"`
}

// ScryptParams tunes scrypt key derivation.
type ScryptParams struct {
	N int `json:"N"`
	R int `json:"r"`
	P int `json:"p"`
}

// DefaultArgon2Params returns the parameters used for new Argon2id envelopes.
func DefaultArgon2Params() Argon2Params { return Argon2Params{Time: 1, Memory: 1 << 16, Threads: 4} }

// DefaultScryptParams returns the parameters used for new scrypt envelopes.
func DefaultScryptParams() ScryptParams { return ScryptParams{N: 1 << 15, R: 8, P: 1} }

// DeriveKEKArgon2 derives a key-encryption key from a passphrase and salt using Argon2id.
func DeriveKEKArgon2(passphrase string, salt []byte, p Argon2Params) []byte {
	pass := []byte(passphrase)
	defer Wipe(pass)
	return argon2.IDKey(pass, salt, p.Time, p.Memory, p.Threads, KeyBytes)
}

// DeriveKEKScrypt derives a key-encryption key from a passphrase and salt using scrypt.
func DeriveKEKScrypt(passphrase string, salt []byte, p ScryptParams) ([]byte, error) {
	pass := []byte(passphrase)
	defer Wipe(pass)
	return scrypt.Key(pass, salt, p.N, p.R, p.P, KeyBytes)
}
