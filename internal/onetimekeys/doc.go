// Package onetimekeys holds an account's pool of one-time pre-keys.
//
// A Store generates Curve25519 key pairs, tracks which of them have been
// published to the directory, and resolves a public key named in a peer's
// first message back to its private half. Capacity is bounded: when full, the
// oldest key (smallest KeyID) is evicted. Every path that drops a private key
// (eviction, TakeSecret, Wipe) overwrites it; a key handed out by TakeSecret
// becomes the caller's to wipe.
//
// Snapshot and FromSnapshot convert a Store to and from its persisted form,
// and Snapshot.MarshalBinary gives that form a protobuf wire encoding.
package onetimekeys
