package onetimekeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"otkeys/internal/domain"
)

func TestPickle_RoundTrip(t *testing.T) {
	s := New()
	s.Generate(3)
	s.MarkAsPublished()
	s.Generate(2)

	sn := s.Snapshot()
	b, err := sn.MarshalBinary()
	require.NoError(t, err)

	var got Snapshot
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, sn.NextKeyID, got.NextKeyID)
	assert.Equal(t, sn.PublicKeys, got.PublicKeys)
	assert.Equal(t, sn.PrivateKeys, got.PrivateKeys)

	restored, err := FromSnapshot(&got)
	require.NoError(t, err)
	assert.Equal(t, s.UnpublishedKeys(), restored.UnpublishedKeys())
	checkInvariants(t, restored)
}

func TestPickle_EmitsAscendingIDs(t *testing.T) {
	s := New()
	s.Generate(3)
	sn := s.Snapshot()
	sn.PrivateKeys[0], sn.PrivateKeys[2] = sn.PrivateKeys[2], sn.PrivateKeys[0]
	sn.PublicKeys[0], sn.PublicKeys[1] = sn.PublicKeys[1], sn.PublicKeys[0]

	b, err := sn.MarshalBinary()
	require.NoError(t, err)
	var got Snapshot
	require.NoError(t, got.UnmarshalBinary(b))
	for i := range got.PrivateKeys {
		assert.Equal(t, domain.KeyID(i), got.PrivateKeys[i].ID)
		assert.Equal(t, domain.KeyID(i), got.PublicKeys[i].ID)
	}
}

func TestPickle_EmptyStore(t *testing.T) {
	b, err := New().Snapshot().MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0x00}, b)
}

func TestPickle_SkipsUnknownFields(t *testing.T) {
	s := New()
	s.Generate(1)
	b, err := s.Snapshot().MarshalBinary()
	require.NoError(t, err)

	b = protowire.AppendTag(b, 15, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))
	b = protowire.AppendTag(b, 16, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)

	var got Snapshot
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Len(t, got.PrivateKeys, 1)
}

func TestPickle_Malformed(t *testing.T) {
	shortKey := protowire.AppendTag(nil, fieldEntryID, protowire.VarintType)
	shortKey = protowire.AppendVarint(shortKey, 1)
	shortKey = protowire.AppendTag(shortKey, fieldEntryKey, protowire.BytesType)
	shortKey = protowire.AppendBytes(shortKey, []byte{1, 2, 3})

	missingKey := protowire.AppendTag(nil, fieldEntryID, protowire.VarintType)
	missingKey = protowire.AppendVarint(missingKey, 1)

	cases := map[string][]byte{
		"truncated varint": {0x08, 0xff},
		"truncated entry":  {0x1a, 0x30, 0x08},
		"bad tag":          {0x00},
		"short key": protowire.AppendBytes(
			protowire.AppendTag(nil, fieldPrivateKey, protowire.BytesType), shortKey),
		"incomplete entry": protowire.AppendBytes(
			protowire.AppendTag(nil, fieldPublicKey, protowire.BytesType), missingKey),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var sn Snapshot
			require.ErrorIs(t, sn.UnmarshalBinary(data), ErrMalformedPickle)
		})
	}
}
