package store

import (
	"os"
	"path/filepath"
	"sync"

	"otkeys/internal/domain"
)

const accountFile = "account.json"

// AccountFileStore persists the pickled account, sealed under a passphrase.
type AccountFileStore struct {
	dir    string
	sealer sealer
	mu     sync.Mutex
}

// NewAccountFileStore returns an AccountFileStore rooted at dir that derives
// sealing keys with kdf (KDFScrypt when empty).
func NewAccountFileStore(dir, kdf string) (*AccountFileStore, error) {
	s, err := newSealer(kdf)
	if err != nil {
		return nil, err
	}
	return &AccountFileStore{dir: dir, sealer: s}, nil
}

// SaveAccount seals pickle and atomically replaces the account file.
func (s *AccountFileStore) SaveAccount(passphrase string, pickle []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	b, err := s.sealer.encrypt(passphrase, pickle)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, accountFile), b, 0o600)
}

// LoadAccount opens the account file. ok is false if none was saved yet.
// The returned pickle holds private keys; wipe it after use.
func (s *AccountFileStore) LoadAccount(passphrase string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(filepath.Join(s.dir, accountFile))
	if err != nil {
		return nil, false, err
	}
	if b == nil {
		return nil, false, nil
	}
	pickle, err := decrypt(passphrase, b)
	if err != nil {
		return nil, false, err
	}
	return pickle, true, nil
}

// Path returns the account file location.
func (s *AccountFileStore) Path() string { return filepath.Join(s.dir, accountFile) }

// Compile-time assertion that AccountFileStore implements domain.AccountStore.
var _ domain.AccountStore = (*AccountFileStore)(nil)
