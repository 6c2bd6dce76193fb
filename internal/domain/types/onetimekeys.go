package types

// OneTimeKey is the public half of a one-time key together with its id.
// It is what gets uploaded to, and claimed from, the directory.
type OneTimeKey struct {
	ID     KeyID        `json:"id"`
	Public X25519Public `json:"key"`
}

// GenerationResult reports the effect of a generate call.
type GenerationResult struct {
	// Created holds the public keys of the newly generated keys, oldest first.
	Created []X25519Public
	// Removed holds the public keys of keys evicted to stay within capacity.
	Removed []X25519Public
}

// AccountStatus summarises the one-time key pool of an account.
type AccountStatus struct {
	Stored      int   `json:"stored"`
	Unpublished int   `json:"unpublished"`
	Capacity    int   `json:"capacity"`
	NextKeyID   KeyID `json:"next_key_id"`
	OldestKeyID KeyID `json:"oldest_key_id"`
	HasKeys     bool  `json:"has_keys"`
}
