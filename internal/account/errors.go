package account

import "errors"

// ErrUnknownOneTimeKey means the peer named a one-time key this account does
// not hold: never issued, evicted, or already consumed. Callers treat it as a
// recoverable protocol error.
var ErrUnknownOneTimeKey = errors.New("account: unknown one-time key")
