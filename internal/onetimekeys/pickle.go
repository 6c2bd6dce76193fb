package onetimekeys

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"otkeys/internal/crypto"
	"otkeys/internal/domain"
)

// ErrMalformedPickle is returned when binary snapshot data cannot be parsed.
var ErrMalformedPickle = errors.New("onetimekeys: malformed pickle")

// Field numbers of the binary snapshot.
const (
	fieldNextKeyID  protowire.Number = 1
	fieldPublicKey  protowire.Number = 2
	fieldPrivateKey protowire.Number = 3

	fieldEntryID  protowire.Number = 1
	fieldEntryKey protowire.Number = 2
)

// MarshalBinary encodes the snapshot in protobuf wire format:
//
//	1: varint  next_key_id
//	2: message {1: varint key_id, 2: bytes public_key}   repeated, ascending id
//	3: message {1: varint key_id, 2: bytes private_key}  repeated, ascending id
//
// The result contains private key material; wipe it after use.
func (sn *Snapshot) MarshalBinary() ([]byte, error) {
	// size bounds the encoding so append never abandons a buffer holding
	// private key bytes.
	size := 11 + len(sn.PublicKeys)*48 + len(sn.PrivateKeys)*48
	b := make([]byte, 0, size)

	b = protowire.AppendTag(b, fieldNextKeyID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(sn.NextKeyID))

	for _, i := range ascending(len(sn.PublicKeys), func(i int) domain.KeyID { return sn.PublicKeys[i].ID }) {
		b = appendEntry(b, fieldPublicKey, sn.PublicKeys[i].ID, sn.PublicKeys[i].Public[:])
	}
	for _, i := range ascending(len(sn.PrivateKeys), func(i int) domain.KeyID { return sn.PrivateKeys[i].ID }) {
		b = appendEntry(b, fieldPrivateKey, sn.PrivateKeys[i].ID, sn.PrivateKeys[i].Key[:])
	}
	return b, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary. Unknown fields are
// skipped. The snapshot is only validated structurally; FromSnapshot checks
// the key invariants.
func (sn *Snapshot) UnmarshalBinary(data []byte) error {
	var out Snapshot
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			out.Wipe()
			return fmt.Errorf("%w: %v", ErrMalformedPickle, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldNextKeyID && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				out.Wipe()
				return fmt.Errorf("%w: next key id: %v", ErrMalformedPickle, protowire.ParseError(m))
			}
			out.NextKeyID = domain.KeyID(v)
			n = m

		case (num == fieldPublicKey || num == fieldPrivateKey) && typ == protowire.BytesType:
			msg, m := protowire.ConsumeBytes(data)
			if m < 0 {
				out.Wipe()
				return fmt.Errorf("%w: entry: %v", ErrMalformedPickle, protowire.ParseError(m))
			}
			id, key, err := consumeEntry(msg)
			if err != nil {
				out.Wipe()
				return err
			}
			if num == fieldPublicKey {
				out.PublicKeys = append(out.PublicKeys, domain.OneTimeKey{ID: id, Public: domain.X25519Public(key)})
			} else {
				out.PrivateKeys = append(out.PrivateKeys, PrivateKeyEntry{ID: id, Key: domain.X25519Private(key)})
			}
			crypto.Wipe(key[:])
			n = m

		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				out.Wipe()
				return fmt.Errorf("%w: field %d: %v", ErrMalformedPickle, num, protowire.ParseError(n))
			}
		}
		data = data[n:]
	}
	*sn = out
	return nil
}

// ascending returns the indices 0..n-1 ordered by id.
func ascending(n int, id func(int) domain.KeyID) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(id(a), id(b)) })
	return idx
}

func appendEntry(b []byte, field protowire.Number, id domain.KeyID, key []byte) []byte {
	var inner [2 + 10 + 2 + domain.KeySize]byte
	msg := inner[:0]
	msg = protowire.AppendTag(msg, fieldEntryID, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(id))
	msg = protowire.AppendTag(msg, fieldEntryKey, protowire.BytesType)
	msg = protowire.AppendBytes(msg, key)

	b = protowire.AppendTag(b, field, protowire.BytesType)
	b = protowire.AppendBytes(b, msg)
	crypto.Wipe(inner[:])
	return b
}

func consumeEntry(msg []byte) (id domain.KeyID, key [domain.KeySize]byte, err error) {
	defer func() {
		if err != nil {
			crypto.Wipe(key[:])
		}
	}()
	var hasID, hasKey bool
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return 0, key, fmt.Errorf("%w: entry tag: %v", ErrMalformedPickle, protowire.ParseError(n))
		}
		msg = msg[n:]
		switch {
		case num == fieldEntryID && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(msg)
			if m < 0 {
				return 0, key, fmt.Errorf("%w: entry id: %v", ErrMalformedPickle, protowire.ParseError(m))
			}
			id, hasID, n = domain.KeyID(v), true, m
		case num == fieldEntryKey && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(msg)
			if m < 0 {
				return 0, key, fmt.Errorf("%w: entry key: %v", ErrMalformedPickle, protowire.ParseError(m))
			}
			if len(v) != domain.KeySize {
				return 0, key, fmt.Errorf("%w: key length %d", ErrMalformedPickle, len(v))
			}
			copy(key[:], v)
			hasKey, n = true, m
		default:
			n = protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return 0, key, fmt.Errorf("%w: entry field %d: %v", ErrMalformedPickle, num, protowire.ParseError(n))
			}
		}
		msg = msg[n:]
	}
	if !hasID || !hasKey {
		return 0, key, fmt.Errorf("%w: incomplete entry", ErrMalformedPickle)
	}
	return id, key, nil
}
