package onetimekeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otkeys/internal/domain"
)

func TestSnapshot_CopiesState(t *testing.T) {
	s := New()
	s.Generate(3)
	s.MarkAsPublished()
	fresh := s.Generate(2).Created

	sn := s.Snapshot()
	assert.Equal(t, domain.KeyID(5), sn.NextKeyID)
	require.Len(t, sn.PrivateKeys, 5)
	require.Len(t, sn.PublicKeys, 2)
	assert.Equal(t, fresh[0], sn.PublicKeys[0].Public)
	assert.Equal(t, domain.KeyID(3), sn.PublicKeys[0].ID)
	for i, e := range sn.PrivateKeys {
		assert.Equal(t, domain.KeyID(i), e.ID)
	}

	// The snapshot owns copies: wiping it leaves the store intact.
	sn.Wipe()
	for _, e := range sn.PrivateKeys {
		assert.True(t, e.Key.IsZero())
	}
	priv, ok := s.LookupSecret(fresh[0])
	require.True(t, ok)
	assert.False(t, priv.IsZero())
}

func TestFromSnapshot_RoundTripUnpublished(t *testing.T) {
	s := New()
	pubs := s.Generate(4).Created

	restored, err := FromSnapshot(s.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, s.NextKeyID(), restored.NextKeyID())
	assert.Equal(t, s.UnpublishedKeys(), restored.UnpublishedKeys())
	for _, p := range pubs {
		_, ok := restored.LookupSecret(p)
		assert.True(t, ok)
	}
	checkInvariants(t, restored)
}

// Published keys must stay consumable after a reload: the reverse index is
// rebuilt from every persisted private key, not only the unpublished ones.
func TestFromSnapshot_PublishedKeysStayResolvable(t *testing.T) {
	s := New()
	published := s.Generate(3).Created
	s.MarkAsPublished()
	unpublished := s.Generate(2).Created

	restored, err := FromSnapshot(s.Snapshot())
	require.NoError(t, err)
	require.Equal(t, 5, restored.Len())
	require.Equal(t, 2, restored.UnpublishedLen())
	checkInvariants(t, restored)

	for _, p := range append(published, unpublished...) {
		priv, ok := restored.TakeSecret(p)
		require.True(t, ok, "key %s not resolvable after reload", p)
		priv.Wipe()
	}
	assert.Equal(t, 0, restored.Len())
}

func TestFromSnapshot_GenerationContinues(t *testing.T) {
	s := New()
	s.Generate(3)
	restored, err := FromSnapshot(s.Snapshot())
	require.NoError(t, err)

	restored.Generate(1)
	keys := restored.UnpublishedKeys()
	assert.Equal(t, domain.KeyID(3), keys[len(keys)-1].ID)
}

func TestFromSnapshot_AppliesCapacity(t *testing.T) {
	s := New()
	pubs := s.Generate(6).Created

	restored, err := FromSnapshot(s.Snapshot(), WithCapacity(4))
	require.NoError(t, err)
	assert.Equal(t, 4, restored.Len())
	oldest, _ := restored.OldestKeyID()
	assert.Equal(t, domain.KeyID(2), oldest)
	assert.False(t, restored.Contains(pubs[0]))
	assert.True(t, restored.Contains(pubs[5]))
	checkInvariants(t, restored)
}

func TestFromSnapshot_UnsortedInput(t *testing.T) {
	s := New()
	s.Generate(4)
	sn := s.Snapshot()
	sn.PrivateKeys[0], sn.PrivateKeys[3] = sn.PrivateKeys[3], sn.PrivateKeys[0]

	restored, err := FromSnapshot(sn)
	require.NoError(t, err)
	checkInvariants(t, restored)
}

func TestFromSnapshot_Rejects(t *testing.T) {
	base := func() *Snapshot {
		s := New()
		s.Generate(3)
		return s.Snapshot()
	}

	cases := map[string]func(sn *Snapshot){
		"id at next id": func(sn *Snapshot) { sn.NextKeyID = 2 },
		"duplicate id":  func(sn *Snapshot) { sn.PrivateKeys[1].ID = 0 },
		"shared public key": func(sn *Snapshot) {
			sn.PrivateKeys[1].Key = sn.PrivateKeys[0].Key
			sn.PublicKeys = sn.PublicKeys[:1]
		},
		"orphan public key": func(sn *Snapshot) {
			sn.PublicKeys = append(sn.PublicKeys, domain.OneTimeKey{ID: 9})
			sn.NextKeyID = 10
		},
		"mismatched public key": func(sn *Snapshot) { sn.PublicKeys[0].Public = sn.PublicKeys[1].Public },
		"duplicate public entry": func(sn *Snapshot) {
			sn.PublicKeys = append(sn.PublicKeys, sn.PublicKeys[0])
		},
		"exhausted id space": func(sn *Snapshot) { sn.NextKeyID = MaxKeyID },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			sn := base()
			mutate(sn)
			_, err := FromSnapshot(sn)
			require.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}

	_, err := FromSnapshot(nil)
	require.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestFromSnapshot_Empty(t *testing.T) {
	restored, err := FromSnapshot(&Snapshot{NextKeyID: 42})
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Len())
	assert.Equal(t, domain.KeyID(42), restored.NextKeyID())
}
