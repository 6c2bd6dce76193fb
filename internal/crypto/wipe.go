package crypto

import "otkeys/internal/util/memzero"

// Wipe zeroes the provided buffer.
func Wipe(b []byte) { memzero.Zero(b) }
