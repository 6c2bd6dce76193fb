package interfaces

import (
	"context"

	domaintypes "otkeys/internal/domain/types"
)

// PreKeyService manages the persisted one-time key pool of the local account.
type PreKeyService interface {
	Init(passphrase string) (bool, error)
	Generate(passphrase string, count int) (domaintypes.GenerationResult, error)
	Publish(ctx context.Context, passphrase string, username domaintypes.Username) (int, error)
	Status(passphrase string) (domaintypes.AccountStatus, error)
	UnpublishedKeys(passphrase string) ([]domaintypes.OneTimeKey, error)
	Consume(
		passphrase string,
		oneTimeKey domaintypes.X25519Public,
		peerEphemeral domaintypes.X25519Public,
	) (domaintypes.Fingerprint, error)
}
