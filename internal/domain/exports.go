package domain

import (
	interfaces "otkeys/internal/domain/interfaces"
	types "otkeys/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	KeyID            = types.KeyID
	Username         = types.Username
	Fingerprint      = types.Fingerprint
	X25519Public     = types.X25519Public
	X25519Private    = types.X25519Private
	OneTimeKey       = types.OneTimeKey
	GenerationResult = types.GenerationResult
	AccountStatus    = types.AccountStatus
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	AccountStore    = interfaces.AccountStore
	Directory       = interfaces.Directory
	DirectoryClient = interfaces.DirectoryClient
	PreKeyService   = interfaces.PreKeyService
)

// KeySize is the length in bytes of Curve25519 keys.
const KeySize = types.KeySize

// ParseX25519Public decodes a base64 public key.
var ParseX25519Public = types.ParseX25519Public
