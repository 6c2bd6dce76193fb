package account

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"otkeys/internal/crypto"
	"otkeys/internal/domain"
	"otkeys/internal/onetimekeys"
)

// Account owns the one-time key store and serialises every access to it.
type Account struct {
	mu      sync.Mutex
	keys    *onetimekeys.Store
	log     *slog.Logger
	metrics *Metrics
	storeOp []onetimekeys.Option
}

// Option configures an Account.
type Option func(*Account)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Account) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMetrics attaches lifecycle metrics.
func WithMetrics(m *Metrics) Option {
	return func(a *Account) { a.metrics = m }
}

// WithCapacity bounds the number of one-time keys held.
func WithCapacity(n int) Option {
	return func(a *Account) { a.storeOp = append(a.storeOp, onetimekeys.WithCapacity(n)) }
}

func newAccount(opts []Option) *Account {
	a := &Account{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// New returns an account with an empty one-time key pool.
func New(opts ...Option) *Account {
	a := newAccount(opts)
	a.keys = onetimekeys.New(a.storeOp...)
	a.observe()
	return a
}

// FromPickle restores an account from the output of Pickle.
func FromPickle(pickle []byte, opts ...Option) (*Account, error) {
	a := newAccount(opts)

	var sn onetimekeys.Snapshot
	if err := sn.UnmarshalBinary(pickle); err != nil {
		return nil, fmt.Errorf("account: unpickle: %w", err)
	}
	defer sn.Wipe()

	keys, err := onetimekeys.FromSnapshot(&sn, a.storeOp...)
	if err != nil {
		return nil, fmt.Errorf("account: unpickle: %w", err)
	}
	a.keys = keys
	// FromSnapshot rejects duplicate ids, so any shortfall is eviction.
	if dropped := len(sn.PrivateKeys) - keys.Len(); dropped > 0 {
		if a.metrics != nil {
			a.metrics.evicted.Add(float64(dropped))
		}
		a.log.Warn("evicted one-time keys above capacity on restore",
			slog.Int("count", dropped),
			slog.Int("capacity", keys.Capacity()),
		)
	}
	a.observe()
	a.log.Debug("account restored",
		slog.Int("stored", keys.Len()),
		slog.Int("unpublished", keys.UnpublishedLen()),
	)
	return a, nil
}

// Pickle serialises the account. The result holds private keys; wipe it
// once it has been sealed or written.
func (a *Account) Pickle() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sn := a.keys.Snapshot()
	defer sn.Wipe()
	b, err := sn.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("account: pickle: %w", err)
	}
	return b, nil
}

// Close wipes every private key held.
func (a *Account) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys.Wipe()
	a.observe()
}

// GenerateOneTimeKeys adds count keys to the pool, evicting the oldest ones
// if the pool is full.
func (a *Account) GenerateOneTimeKeys(count int) domain.GenerationResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	res := a.keys.Generate(count)
	if a.metrics != nil {
		a.metrics.generated.Add(float64(len(res.Created)))
		a.metrics.evicted.Add(float64(len(res.Removed)))
	}
	a.observe()
	if len(res.Removed) > 0 {
		a.log.Info("evicted one-time keys", slog.Int("count", len(res.Removed)))
	}
	a.log.Debug("generated one-time keys",
		slog.Int("count", len(res.Created)),
		slog.Int("stored", a.keys.Len()),
	)
	return res
}

// OneTimeKeys lists the keys not yet published, by ascending id.
func (a *Account) OneTimeKeys() []domain.OneTimeKey {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys.UnpublishedKeys()
}

// MarkKeysAsPublished records that every held key has been uploaded.
func (a *Account) MarkKeysAsPublished() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys.MarkAsPublished()
	a.observe()
}

// MaxNumberOfOneTimeKeys is how many keys should be on the directory at once.
func (a *Account) MaxNumberOfOneTimeKeys() int { return onetimekeys.PublicMaxOneTimeKeys }

// StoredOneTimeKeyCount returns the number of private keys held.
func (a *Account) StoredOneTimeKeyCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys.Len()
}

// Status summarises the key pool.
func (a *Account) Status() domain.AccountStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	oldest, ok := a.keys.OldestKeyID()
	return domain.AccountStatus{
		Stored:      a.keys.Len(),
		Unpublished: a.keys.UnpublishedLen(),
		Capacity:    a.keys.Capacity(),
		NextKeyID:   a.keys.NextKeyID(),
		OldestKeyID: oldest,
		HasKeys:     ok,
	}
}

// Publish uploads the unpublished keys and marks them published once the
// directory accepted them. It returns how many keys were uploaded. On error
// nothing is marked, so calling Publish again re-sends the same set.
//
// The lock is held across the upload so no key can be generated between the
// enumeration and the mark.
func (a *Account) Publish(ctx context.Context, dir domain.Directory, username domain.Username) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := a.keys.UnpublishedKeys()
	if len(keys) == 0 {
		return 0, nil
	}
	if err := dir.PublishOneTimeKeys(ctx, username, keys); err != nil {
		a.log.Warn("publish one-time keys failed",
			slog.String("username", username.String()),
			slog.Int("count", len(keys)),
			slog.Any("err", err),
		)
		return 0, fmt.Errorf("account: publish: %w", err)
	}
	a.keys.MarkAsPublished()
	if a.metrics != nil {
		a.metrics.published.Add(float64(len(keys)))
	}
	a.observe()
	a.log.Info("published one-time keys",
		slog.String("username", username.String()),
		slog.Int("count", len(keys)),
	)
	return len(keys), nil
}

// ConsumeOneTimeKey removes the private key matching pub and passes it to fn,
// which derives whatever the session needs from it. The key is wiped when fn
// returns and can never be resolved again, even if fn fails.
func (a *Account) ConsumeOneTimeKey(pub domain.X25519Public, fn func(*domain.X25519Private) error) error {
	a.mu.Lock()
	priv, ok := a.keys.TakeSecret(pub)
	if !ok {
		if a.metrics != nil {
			a.metrics.unknown.Inc()
		}
		a.mu.Unlock()
		a.log.Warn("unknown one-time key", slog.String("key", crypto.Fingerprint(pub[:])))
		return ErrUnknownOneTimeKey
	}
	if a.metrics != nil {
		a.metrics.consumed.Inc()
	}
	a.observe()
	a.mu.Unlock()

	defer priv.Wipe()
	a.log.Debug("consumed one-time key", slog.String("key", crypto.Fingerprint(pub[:])))
	return fn(priv)
}

// observe refreshes the gauges. Callers hold a.mu or own a exclusively.
func (a *Account) observe() {
	if a.metrics == nil {
		return
	}
	a.metrics.stored.Set(float64(a.keys.Len()))
	a.metrics.unpublished.Set(float64(a.keys.UnpublishedLen()))
}
