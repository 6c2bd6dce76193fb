// Package main runs the in-memory one-time key directory used during
// development and tests. Accounts upload batches of one-time public keys;
// peers claim them one at a time.
//
// HTTP API
//
//	POST /v1/keys/{username}
//	    Add {"one_time_keys": [{"id": N, "key": "<base64>"}, ...]} to the
//	    user's pool. Keys already known for the user are ignored.
//
//	POST /v1/keys/{username}/claim
//	    Remove and return the oldest available key. 404 when the pool is empty.
//
//	GET /v1/keys/{username}/count
//	    Return {"count": N}.
//
//	GET /metrics
//	    Prometheus metrics.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Each request is logged with method, path, status and duration.
//   - The default listen address is :8080.
//
// The directory only ever sees public keys.
package main
