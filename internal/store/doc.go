// Package store provides file-based persistence for the otkeys account.
//
// AccountFileStore seals the pickled account with XChaCha20-Poly1305 under a
// key derived from the user's passphrase (scrypt by default, Argon2id on
// request) and writes it as a JSON envelope. Writes go through a temp file and
// rename so a crash never leaves a half-written account behind. All methods
// are concurrency-safe via internal locking.
package store
