package onetimekeys

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"otkeys/internal/crypto"
	"otkeys/internal/domain"
)

// ErrInvalidSnapshot is returned when a snapshot cannot describe a valid store.
var ErrInvalidSnapshot = errors.New("onetimekeys: invalid snapshot")

// PrivateKeyEntry is a persisted private key and its id.
type PrivateKeyEntry struct {
	ID  domain.KeyID
	Key domain.X25519Private
}

// Snapshot is the persisted form of a Store.
//
// Only unpublished public keys are carried; the public halves of published
// keys are derived again from their private keys on load. Both slices are
// ordered by ascending KeyID.
type Snapshot struct {
	NextKeyID   domain.KeyID
	PublicKeys  []domain.OneTimeKey
	PrivateKeys []PrivateKeyEntry
}

// Wipe erases the private key copies held by the snapshot.
func (sn *Snapshot) Wipe() {
	if sn == nil {
		return
	}
	for i := range sn.PrivateKeys {
		sn.PrivateKeys[i].Key.Wipe()
	}
}

// Snapshot copies the store into its persisted form. The caller owns the
// returned private key copies and should Wipe the snapshot when done.
func (s *Store) Snapshot() *Snapshot {
	sn := &Snapshot{
		NextKeyID:   s.nextKeyID,
		PublicKeys:  s.UnpublishedKeys(),
		PrivateKeys: make([]PrivateKeyEntry, 0, len(s.order)),
	}
	for _, id := range s.order {
		sn.PrivateKeys = append(sn.PrivateKeys, PrivateKeyEntry{ID: id, Key: *s.privateKeys[id]})
	}
	return sn
}

// FromSnapshot rebuilds a store from sn.
//
// Every private key is replayed through the insertion path, so the reverse
// index covers published keys as well as unpublished ones. A key is
// unpublished iff its id appears in sn.PublicKeys. If sn holds more keys than
// the store's capacity only the newest survive.
//
// sn is left untouched; the store keeps its own copies.
func FromSnapshot(sn *Snapshot, opts ...Option) (*Store, error) {
	if sn == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if sn.NextKeyID == MaxKeyID {
		return nil, fmt.Errorf("%w: next key id %d exhausts the id space", ErrInvalidSnapshot, sn.NextKeyID)
	}

	entries := slices.Clone(sn.PrivateKeys)
	defer func() {
		for i := range entries {
			entries[i].Key.Wipe()
		}
	}()
	slices.SortFunc(entries, func(a, b PrivateKeyEntry) int { return cmp.Compare(a.ID, b.ID) })

	derived := make(map[domain.KeyID]domain.X25519Public, len(entries))
	seen := make(map[domain.X25519Public]domain.KeyID, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.ID >= sn.NextKeyID {
			return nil, fmt.Errorf("%w: key id %d not below next id %d", ErrInvalidSnapshot, e.ID, sn.NextKeyID)
		}
		if _, dup := derived[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate key id %d", ErrInvalidSnapshot, e.ID)
		}
		pub, err := crypto.PublicKey(&e.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: key %d: %v", ErrInvalidSnapshot, e.ID, err)
		}
		if other, dup := seen[pub]; dup {
			return nil, fmt.Errorf("%w: keys %d and %d share a public key", ErrInvalidSnapshot, other, e.ID)
		}
		derived[e.ID] = pub
		seen[pub] = e.ID
	}

	unpublished := make(map[domain.KeyID]struct{}, len(sn.PublicKeys))
	for _, k := range sn.PublicKeys {
		pub, ok := derived[k.ID]
		if !ok {
			return nil, fmt.Errorf("%w: public key %d has no private key", ErrInvalidSnapshot, k.ID)
		}
		if pub != k.Public {
			return nil, fmt.Errorf("%w: public key %d does not match its private key", ErrInvalidSnapshot, k.ID)
		}
		if _, dup := unpublished[k.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate public key id %d", ErrInvalidSnapshot, k.ID)
		}
		unpublished[k.ID] = struct{}{}
	}

	s := New(opts...)
	s.nextKeyID = sn.NextKeyID
	for i := range entries {
		key := new(domain.X25519Private)
		*key = entries[i].Key
		_, isUnpublished := unpublished[entries[i].ID]
		s.insert(entries[i].ID, key, !isUnpublished)
	}
	return s, nil
}
