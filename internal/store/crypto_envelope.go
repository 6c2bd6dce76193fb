package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"otkeys/internal/crypto"
)

const (
	// The current supported version of the encrypted blob format stored on disk.
	keystoreFormatVersion = 1

	saltBytes = 16

	// Upper bounds on KDF work accepted from disk. The parameters are read
	// before the blob is authenticated.
	maxScryptN      = 1 << 20
	maxScryptR      = 16
	maxScryptP      = 4
	maxScryptMemory = 256 << 20 // bytes, 128*N*r
	maxArgon2Time   = 10
	maxArgon2Memory = 256 << 10 // KiB
	maxArgon2Lanes  = 16
)

// KDF names accepted by NewAccountFileStore.
const (
	KDFScrypt   = "scrypt"
	KDFArgon2id = "argon2id"
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// ciphertext has been modified / corrupted.
	ErrWrongPassphrase = errors.New("store: wrong passphrase or corrupted account")

	// ErrUnknownKDF is returned for an unsupported key derivation name.
	ErrUnknownKDF = errors.New("store: unknown kdf")

	// ErrKDFParams is returned when stored KDF parameters are out of bounds.
	ErrKDFParams = errors.New("store: kdf parameters out of bounds")
)

// blob is the on‑disk JSON structure holding the ciphertext and KDF parameters.
type blob struct {
	V      int                  `json:"v"`
	KDF    string               `json:"kdf"`
	Salt   []byte               `json:"salt"`
	Scrypt *crypto.ScryptParams `json:"scrypt,omitempty"`
	Argon2 *crypto.Argon2Params `json:"argon2,omitempty"`
	Nonce  []byte               `json:"nonce"`
	Cipher []byte               `json:"cipher"`
}

// sealer derives keys and seals account pickles.
type sealer struct {
	kdf    string
	scrypt crypto.ScryptParams
	argon2 crypto.Argon2Params
}

func newSealer(kdf string) (sealer, error) {
	switch kdf {
	case "", KDFScrypt:
		kdf = KDFScrypt
	case KDFArgon2id:
	default:
		return sealer{}, fmt.Errorf("%w: %q", ErrUnknownKDF, kdf)
	}
	return sealer{
		kdf:    kdf,
		scrypt: crypto.DefaultScryptParams(),
		argon2: crypto.DefaultArgon2Params(),
	}, nil
}

// encrypt derives a key from passphrase and seals raw into a JSON blob.
// The salt is bound as associated data.
func (s sealer) encrypt(passphrase string, raw []byte) ([]byte, error) {
	bl := blob{V: keystoreFormatVersion, KDF: s.kdf, Salt: make([]byte, saltBytes)}
	if _, err := rand.Read(bl.Salt); err != nil {
		return nil, err
	}
	switch s.kdf {
	case KDFArgon2id:
		p := s.argon2
		bl.Argon2 = &p
	default:
		p := s.scrypt
		bl.Scrypt = &p
	}

	key, err := deriveKey(passphrase, bl)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	bl.Nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(bl.Nonce); err != nil {
		return nil, err
	}
	bl.Cipher = aead.Seal(nil, bl.Nonce, raw, bl.Salt)
	return json.Marshal(bl)
}

// decrypt opens the JSON blob using a key derived from passphrase.
func decrypt(passphrase string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, fmt.Errorf("store: decode envelope: %w", err)
	}
	if bl.V > keystoreFormatVersion {
		return nil, fmt.Errorf("store: unsupported keystore version %d", bl.V)
	}

	if err := checkParams(bl); err != nil {
		return nil, err
	}

	key, err := deriveKey(passphrase, bl)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(bl.Nonce) != aead.NonceSize() {
		return nil, ErrWrongPassphrase
	}
	pt, err := aead.Open(nil, bl.Nonce, bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func deriveKey(passphrase string, bl blob) ([]byte, error) {
	switch bl.KDF {
	case KDFScrypt:
		if bl.Scrypt == nil {
			return nil, fmt.Errorf("store: missing scrypt parameters")
		}
		return crypto.DeriveKEKScrypt(passphrase, bl.Salt, *bl.Scrypt)
	case KDFArgon2id:
		if bl.Argon2 == nil {
			return nil, fmt.Errorf("store: missing argon2 parameters")
		}
		return crypto.DeriveKEKArgon2(passphrase, bl.Salt, *bl.Argon2), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKDF, bl.KDF)
	}
}

// checkParams bounds the work an unauthenticated blob can demand.
func checkParams(bl blob) error {
	if len(bl.Salt) != saltBytes {
		return fmt.Errorf("%w: salt length %d", ErrKDFParams, len(bl.Salt))
	}
	if p := bl.Scrypt; p != nil {
		if p.N < 2 || p.N > maxScryptN || p.R < 1 || p.R > maxScryptR || p.P < 1 || p.P > maxScryptP ||
			128*p.N*p.R > maxScryptMemory {
			return fmt.Errorf("%w: scrypt N=%d r=%d p=%d", ErrKDFParams, p.N, p.R, p.P)
		}
	}
	if p := bl.Argon2; p != nil {
		if p.Time < 1 || p.Time > maxArgon2Time || p.Memory < 8*uint32(p.Threads) ||
			p.Memory > maxArgon2Memory || p.Threads < 1 || p.Threads > maxArgon2Lanes {
			return fmt.Errorf("%w: argon2 t=%d m=%d p=%d", ErrKDFParams, p.Time, p.Memory, p.Threads)
		}
	}
	return nil
}
