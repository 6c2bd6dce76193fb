package prekey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"otkeys/internal/account"
	"otkeys/internal/crypto"
	"otkeys/internal/domain"
)

// ErrNoAccount is returned when no account has been initialised yet.
var ErrNoAccount = errors.New("prekey: no account; run init first")

// Service loads the account, applies one operation and saves it back.
type Service struct {
	as   domain.AccountStore
	dir  domain.Directory
	log  *slog.Logger
	opts []account.Option
}

// New returns a Service. dir may be nil when no directory is configured;
// Publish then fails.
func New(as domain.AccountStore, dir domain.Directory, logger *slog.Logger, opts ...account.Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{as: as, dir: dir, log: logger, opts: append([]account.Option{account.WithLogger(logger)}, opts...)}
}

var _ domain.PreKeyService = (*Service)(nil)

// Init creates and saves an empty account. It reports false if one exists.
func (s *Service) Init(passphrase string) (bool, error) {
	pickle, ok, err := s.as.LoadAccount(passphrase)
	if err != nil {
		return false, err
	}
	if ok {
		crypto.Wipe(pickle)
		return false, nil
	}
	a := account.New(s.opts...)
	defer a.Close()
	if err := s.save(passphrase, a); err != nil {
		return false, err
	}
	s.log.Info("account initialised")
	return true, nil
}

// Generate adds count one-time keys and saves the account.
func (s *Service) Generate(passphrase string, count int) (domain.GenerationResult, error) {
	var res domain.GenerationResult
	err := s.update(passphrase, func(a *account.Account) error {
		res = a.GenerateOneTimeKeys(count)
		return nil
	})
	return res, err
}

// Publish uploads the unpublished keys and, on success, saves them as published.
func (s *Service) Publish(ctx context.Context, passphrase string, username domain.Username) (int, error) {
	if s.dir == nil {
		return 0, errors.New("prekey: no directory configured")
	}
	var n int
	err := s.update(passphrase, func(a *account.Account) error {
		var err error
		n, err = a.Publish(ctx, s.dir, username)
		return err
	})
	return n, err
}

// Status summarises the stored key pool.
func (s *Service) Status(passphrase string) (domain.AccountStatus, error) {
	var st domain.AccountStatus
	err := s.view(passphrase, func(a *account.Account) { st = a.Status() })
	return st, err
}

// UnpublishedKeys lists keys awaiting upload.
func (s *Service) UnpublishedKeys(passphrase string) ([]domain.OneTimeKey, error) {
	var keys []domain.OneTimeKey
	err := s.view(passphrase, func(a *account.Account) { keys = a.OneTimeKeys() })
	return keys, err
}

// Consume takes the one-time key a peer referenced, derives the X25519 shared
// secret with the peer's ephemeral key and returns only its fingerprint. The
// key is gone from the saved account afterwards.
func (s *Service) Consume(
	passphrase string,
	oneTimeKey domain.X25519Public,
	peerEphemeral domain.X25519Public,
) (domain.Fingerprint, error) {
	var fp domain.Fingerprint
	err := s.update(passphrase, func(a *account.Account) error {
		return a.ConsumeOneTimeKey(oneTimeKey, func(priv *domain.X25519Private) error {
			shared, err := crypto.DH(priv, peerEphemeral)
			if err != nil {
				return fmt.Errorf("prekey: derive shared secret: %w", err)
			}
			defer crypto.Wipe(shared[:])
			fp = domain.Fingerprint(crypto.Fingerprint(shared[:]))
			return nil
		})
	})
	return fp, err
}

func (s *Service) load(passphrase string) (*account.Account, error) {
	pickle, ok, err := s.as.LoadAccount(passphrase)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoAccount
	}
	defer crypto.Wipe(pickle)
	return account.FromPickle(pickle, s.opts...)
}

func (s *Service) save(passphrase string, a *account.Account) error {
	pickle, err := a.Pickle()
	if err != nil {
		return err
	}
	defer crypto.Wipe(pickle)
	return s.as.SaveAccount(passphrase, pickle)
}

func (s *Service) view(passphrase string, fn func(*account.Account)) error {
	a, err := s.load(passphrase)
	if err != nil {
		return err
	}
	defer a.Close()
	fn(a)
	return nil
}

// update saves the account after fn even if fn failed, so a key consumed by
// a failed handshake stays consumed.
func (s *Service) update(passphrase string, fn func(*account.Account) error) error {
	a, err := s.load(passphrase)
	if err != nil {
		return err
	}
	defer a.Close()
	opErr := fn(a)
	if errors.Is(opErr, account.ErrUnknownOneTimeKey) {
		return opErr
	}
	if err := s.save(passphrase, a); err != nil {
		return errors.Join(opErr, err)
	}
	return opErr
}
