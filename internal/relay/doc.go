// Package relay is the one-time key directory: an HTTP client implementing
// domain.DirectoryClient and an in-memory server for development and tests.
//
// HTTP API
//
//	POST /v1/keys/{username}         {"one_time_keys": [{"id": 0, "key": "<b64>"}]}
//	    Queue keys for {username}. Keys already seen are ignored, so
//	    re-publishing after a lost response is harmless.
//
//	POST /v1/keys/{username}/claim
//	    Pop the oldest queued key. 404 when none are left.
//
//	GET /v1/keys/{username}/count
//	    Number of queued keys.
//
//	GET /metrics
//	    Prometheus metrics.
//
// The directory never sees private keys. State is lost on process exit.
package relay
