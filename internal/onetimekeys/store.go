package onetimekeys

import (
	"crypto/rand"
	"fmt"
	"io"
	"math"
	"slices"

	"otkeys/internal/crypto"
	"otkeys/internal/domain"
)

const (
	// PublicMaxOneTimeKeys is how many one-time keys an account advertises
	// to the directory at a time.
	PublicMaxOneTimeKeys = 50

	// DefaultCapacity is the maximum number of private keys a store holds.
	DefaultCapacity = 100 * PublicMaxOneTimeKeys

	// MaxKeyID bounds the id counter. It is never handed out, so the counter
	// cannot wrap.
	MaxKeyID domain.KeyID = math.MaxUint64
)

// Store is a bounded pool of one-time Curve25519 key pairs.
//
// Private keys are ordered by KeyID; when the pool is full the oldest key is
// evicted and wiped before a new one is inserted. Every public key held is
// resolvable back to its KeyID through the reverse index.
//
// A Store is not safe for concurrent use. The owning account serialises access.
type Store struct {
	nextKeyID domain.KeyID

	// privateKeys and order together form the KeyID-ordered private key map.
	privateKeys map[domain.KeyID]*domain.X25519Private
	order       []domain.KeyID

	unpublished map[domain.KeyID]domain.X25519Public
	reverse     map[domain.X25519Public]domain.KeyID

	capacity int
	random   io.Reader
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity overrides DefaultCapacity. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithRandom sets the entropy source used for key generation.
func WithRandom(r io.Reader) Option {
	return func(s *Store) {
		if r != nil {
			s.random = r
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		privateKeys: make(map[domain.KeyID]*domain.X25519Private),
		unpublished: make(map[domain.KeyID]domain.X25519Public),
		reverse:     make(map[domain.X25519Public]domain.KeyID),
		capacity:    DefaultCapacity,
		random:      rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate creates count fresh key pairs, all unpublished.
//
// Generation never fails; a broken entropy source or an exhausted id space
// is fatal and panics. Ids are never reused.
func (s *Store) Generate(count int) domain.GenerationResult {
	var res domain.GenerationResult
	for i := 0; i < count; i++ {
		if s.nextKeyID == MaxKeyID {
			panic("onetimekeys: key id space exhausted")
		}
		priv, pub, err := crypto.GenerateX25519(s.random)
		if err != nil {
			panic(fmt.Sprintf("onetimekeys: generate key: %v", err))
		}
		id := s.nextKeyID
		s.nextKeyID++
		if evicted, ok := s.insert(id, priv, false); ok {
			res.Removed = append(res.Removed, evicted)
		}
		res.Created = append(res.Created, pub)
	}
	return res
}

// MarkAsPublished records that every key currently held has been uploaded.
func (s *Store) MarkAsPublished() {
	clear(s.unpublished)
}

// UnpublishedKeys lists keys not yet uploaded, ordered by KeyID.
func (s *Store) UnpublishedKeys() []domain.OneTimeKey {
	out := make([]domain.OneTimeKey, 0, len(s.unpublished))
	for _, id := range s.order {
		if pub, ok := s.unpublished[id]; ok {
			out = append(out, domain.OneTimeKey{ID: id, Public: pub})
		}
	}
	return out
}

// LookupSecret returns the private key for pub without removing it.
// The returned key is owned by the store and must not be retained.
func (s *Store) LookupSecret(pub domain.X25519Public) (*domain.X25519Private, bool) {
	id, ok := s.reverse[pub]
	if !ok {
		return nil, false
	}
	priv, ok := s.privateKeys[id]
	if !ok {
		panic(fmt.Sprintf("onetimekeys: reverse index points at missing key %d", id))
	}
	return priv, true
}

// TakeSecret removes the private key for pub from the store and hands it to
// the caller, who must Wipe it once the shared secret has been derived.
// A key can be taken at most once.
func (s *Store) TakeSecret(pub domain.X25519Public) (*domain.X25519Private, bool) {
	id, ok := s.reverse[pub]
	if !ok {
		return nil, false
	}
	priv, _ := s.remove(id)
	return priv, true
}

// Contains reports whether pub belongs to a key held by the store.
func (s *Store) Contains(pub domain.X25519Public) bool {
	_, ok := s.reverse[pub]
	return ok
}

// Len returns the number of private keys held.
func (s *Store) Len() int { return len(s.privateKeys) }

// UnpublishedLen returns the number of keys not yet uploaded.
func (s *Store) UnpublishedLen() int { return len(s.unpublished) }

// Capacity returns the maximum number of keys held.
func (s *Store) Capacity() int { return s.capacity }

// NextKeyID returns the id the next generated key will get.
func (s *Store) NextKeyID() domain.KeyID { return s.nextKeyID }

// OldestKeyID returns the smallest KeyID held.
func (s *Store) OldestKeyID() (domain.KeyID, bool) {
	if len(s.order) == 0 {
		return 0, false
	}
	return s.order[0], true
}

// Wipe erases every private key and empties the store. The id counter is
// kept so identifiers are never handed out twice.
func (s *Store) Wipe() {
	for len(s.order) > 0 {
		priv, _ := s.remove(s.order[0])
		priv.Wipe()
	}
}

// insert adds a key, evicting the oldest one first if the store is full.
// It returns the public key of the evicted entry, if any.
func (s *Store) insert(
	id domain.KeyID,
	priv *domain.X25519Private,
	published bool,
) (evicted domain.X25519Public, didEvict bool) {
	if len(s.privateKeys) >= s.capacity && len(s.order) > 0 {
		old, oldPub := s.remove(s.order[0])
		old.Wipe()
		evicted, didEvict = oldPub, true
	}

	pub, err := crypto.PublicKey(priv)
	if err != nil {
		panic(fmt.Sprintf("onetimekeys: derive public key %d: %v", id, err))
	}

	s.privateKeys[id] = priv
	if n := len(s.order); n == 0 || s.order[n-1] < id {
		s.order = append(s.order, id)
	} else {
		i, _ := slices.BinarySearch(s.order, id)
		s.order = slices.Insert(s.order, i, id)
	}
	s.reverse[pub] = id

	if !published {
		s.unpublished[id] = pub
	}
	return evicted, didEvict
}

// remove drops id from every index and returns the still-live private key.
// The caller decides whether to wipe it or hand it out.
func (s *Store) remove(id domain.KeyID) (*domain.X25519Private, domain.X25519Public) {
	priv, ok := s.privateKeys[id]
	if !ok {
		panic(fmt.Sprintf("onetimekeys: remove unknown key %d", id))
	}
	pub, err := crypto.PublicKey(priv)
	if err != nil {
		panic(fmt.Sprintf("onetimekeys: derive public key %d: %v", id, err))
	}
	if got, ok := s.reverse[pub]; !ok || got != id {
		panic(fmt.Sprintf("onetimekeys: reverse index out of sync for key %d", id))
	}

	delete(s.privateKeys, id)
	delete(s.reverse, pub)
	delete(s.unpublished, id)
	if i, found := slices.BinarySearch(s.order, id); found {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return priv, pub
}
