package prekey_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otkeys/internal/account"
	"otkeys/internal/crypto"
	"otkeys/internal/domain"
	"otkeys/internal/relay"
	"otkeys/internal/services/prekey"
	"otkeys/internal/store"
)

// memStore keeps the pickle in memory and checks the passphrase.
type memStore struct {
	pass   string
	pickle []byte
}

func (m *memStore) SaveAccount(passphrase string, pickle []byte) error {
	m.pass = passphrase
	m.pickle = append([]byte(nil), pickle...)
	return nil
}

func (m *memStore) LoadAccount(passphrase string) ([]byte, bool, error) {
	if m.pickle == nil {
		return nil, false, nil
	}
	if passphrase != m.pass {
		return nil, false, store.ErrWrongPassphrase
	}
	return append([]byte(nil), m.pickle...), true, nil
}

func newService(t *testing.T, opts ...account.Option) (*prekey.Service, *relay.HTTPClient) {
	t.Helper()
	srv := httptest.NewServer(relay.NewServer(nil, nil, nil).Handler())
	t.Cleanup(srv.Close)
	dir := relay.NewHTTP(srv.URL, srv.Client())
	return prekey.New(&memStore{}, dir, nil, opts...), dir
}

func TestService_RequiresInit(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Generate("pass", 1)
	assert.ErrorIs(t, err, prekey.ErrNoAccount)
}

func TestService_InitOnce(t *testing.T) {
	svc, _ := newService(t)
	created, err := svc.Init("pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Init("pass")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestService_GeneratePublishConsume(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()
	_, err := svc.Init("pass")
	require.NoError(t, err)

	res, err := svc.Generate("pass", 5)
	require.NoError(t, err)
	require.Len(t, res.Created, 5)

	keys, err := svc.UnpublishedKeys("pass")
	require.NoError(t, err)
	assert.Len(t, keys, 5)

	n, err := svc.Publish(ctx, "pass", "bob")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	st, err := svc.Status("pass")
	require.NoError(t, err)
	assert.Equal(t, 5, st.Stored)
	assert.Equal(t, 0, st.Unpublished)

	// A peer claims a key and sends its ephemeral; both sides agree.
	claimed, err := dir.ClaimOneTimeKey(ctx, "bob")
	require.NoError(t, err)
	ephPriv, ephPub, err := crypto.GenerateX25519(nil)
	require.NoError(t, err)
	shared, err := crypto.DH(ephPriv, claimed.Public)
	require.NoError(t, err)

	fp, err := svc.Consume("pass", claimed.Public, ephPub)
	require.NoError(t, err)
	assert.Equal(t, domain.Fingerprint(crypto.Fingerprint(shared[:])), fp)

	// Consumption survived the save.
	st, err = svc.Status("pass")
	require.NoError(t, err)
	assert.Equal(t, 4, st.Stored)

	_, err = svc.Consume("pass", claimed.Public, ephPub)
	assert.ErrorIs(t, err, account.ErrUnknownOneTimeKey)
}

func TestService_FailedHandshakeStillConsumes(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Init("pass")
	require.NoError(t, err)
	res, err := svc.Generate("pass", 1)
	require.NoError(t, err)

	// All-zero peer key is a low-order point; DH fails.
	_, err = svc.Consume("pass", res.Created[0], domain.X25519Public{})
	require.Error(t, err)

	st, err := svc.Status("pass")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Stored)
}

type downDirectory struct{}

func (downDirectory) PublishOneTimeKeys(context.Context, domain.Username, []domain.OneTimeKey) error {
	return errors.New("unreachable")
}

func TestService_PublishFailureKeepsUnpublished(t *testing.T) {
	svc := prekey.New(&memStore{}, downDirectory{}, nil)
	_, err := svc.Init("pass")
	require.NoError(t, err)
	_, err = svc.Generate("pass", 3)
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), "pass", "bob")
	require.Error(t, err)

	st, err := svc.Status("pass")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Unpublished)
}

func TestService_NoDirectory(t *testing.T) {
	svc := prekey.New(&memStore{}, nil, nil)
	_, err := svc.Init("pass")
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), "pass", "bob")
	assert.Error(t, err)
}

func TestService_CapacityOption(t *testing.T) {
	svc, _ := newService(t, account.WithCapacity(3))
	_, err := svc.Init("pass")
	require.NoError(t, err)
	res, err := svc.Generate("pass", 5)
	require.NoError(t, err)
	assert.Len(t, res.Removed, 2)

	st, err := svc.Status("pass")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Stored)
	assert.Equal(t, 3, st.Capacity)
}

func TestService_FileStore(t *testing.T) {
	fs, err := store.NewAccountFileStore(t.TempDir(), store.KDFScrypt)
	require.NoError(t, err)
	svc := prekey.New(fs, nil, nil)

	_, err = svc.Init("pass")
	require.NoError(t, err)
	_, err = svc.Generate("pass", 2)
	require.NoError(t, err)

	_, err = svc.Status("wrong")
	assert.ErrorIs(t, err, store.ErrWrongPassphrase)

	st, err := svc.Status("pass")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Stored)
}
